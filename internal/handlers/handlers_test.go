package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/observability"
	"github.com/epeers/marketdata/internal/refresh"
	"github.com/epeers/marketdata/internal/repository"
	"github.com/epeers/marketdata/internal/snapshot"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type noQuotes struct{}

func (noQuotes) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	return nil, nil
}

type fakeUserWriter struct {
	inserted []*models.User
	err      error
}

func (f *fakeUserWriter) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u.ID = int64(len(f.inserted) + 1)
	u.CreatedAt = time.Now()
	f.inserted = append(f.inserted, u)
	return u, nil
}

type fakeFolderWriter struct {
	folders   []*models.Folder
	trades    []*models.Trade
	deleteErr error
}

func (f *fakeFolderWriter) InsertFolder(ctx context.Context, fo *models.Folder) (*models.Folder, error) {
	fo.ID = int64(len(f.folders) + 1)
	f.folders = append(f.folders, fo)
	return fo, nil
}

func (f *fakeFolderWriter) DeleteFolder(ctx context.Context, id int64) error {
	return f.deleteErr
}

func (f *fakeFolderWriter) InsertTrade(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	t.ID = int64(len(f.trades) + 1)
	f.trades = append(f.trades, t)
	return t, nil
}

func (f *fakeFolderWriter) GetTrades(ctx context.Context, portfolioID int64) ([]*models.Trade, error) {
	var out []*models.Trade
	for _, t := range f.trades {
		if t.PortfolioID == portfolioID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeRebuilder struct {
	calls int
	err   error
}

func (f *fakeRebuilder) TriggerRebuild(ctx context.Context) error {
	f.calls++
	return f.err
}

func testStore() *snapshot.Store {
	store := snapshot.NewStore()
	series := models.NewDailySeries([]time.Time{
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	series.Closes[1] = []float64{100, math.NaN()}
	store.Publish(&snapshot.Snapshot{
		Assets: []*models.Asset{
			{ID: 1, Symbol: "AAPL", Type: models.AssetTypeEquity, Active: true, HistoryEligible: true},
			{ID: 2, Symbol: "MSFT", Type: models.AssetTypeEquity, Active: true, HistoryEligible: true},
		},
		Series:  series,
		BuiltAt: time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC),
	})
	return store
}

func testScheduler(store *snapshot.Store) *refresh.Scheduler {
	metrics := observability.New(prometheus.NewRegistry())
	return refresh.New(store, noQuotes{}, metrics, refresh.Config{})
}

func setupRouter(store *snapshot.Store, users *fakeUserWriter, folders *fakeFolderWriter, engine *fakeRebuilder) *gin.Engine {
	gin.SetMode(gin.TestMode)

	sched := testScheduler(store)
	historyHandler := NewHistoryHandler(store, sched)
	portfolioHandler := NewPortfolioHandler(store, users, folders)
	adminHandler := NewAdminHandler(store, sched, engine)

	router := gin.New()
	router.GET("/history/:symbol", historyHandler.GetHistory)
	router.GET("/quotes/:symbol", historyHandler.GetQuote)
	router.POST("/users", portfolioHandler.CreateUser)
	router.GET("/folders", portfolioHandler.GetFolders)
	router.POST("/folders", portfolioHandler.CreateFolder)
	router.DELETE("/folders/:id", portfolioHandler.DeleteFolder)
	router.POST("/trades", portfolioHandler.RecordTrade)
	router.GET("/trades/:portfolio_id", portfolioHandler.GetTrades)
	router.GET("/status", adminHandler.Status)
	router.POST("/reload", adminHandler.Reload)
	router.GET("/health", adminHandler.Health)
	return router
}

// TestGetHistory tests that history is served off the reconciled axis with
// nulls for dates the asset did not trade
func TestGetHistory(t *testing.T) {
	router := setupRouter(testStore(), &fakeUserWriter{}, &fakeFolderWriter{}, &fakeRebuilder{})

	req, _ := http.NewRequest("GET", "/history/AAPL", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Symbol != "AAPL" || resp.AssetID != 1 {
		t.Errorf("Wrong asset in response: %+v", resp)
	}
	if len(resp.Points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(resp.Points))
	}
	if resp.Points[0].Close == nil || *resp.Points[0].Close != 100 {
		t.Errorf("Expected close 100 on first date, got %v", resp.Points[0].Close)
	}
	if resp.Points[1].Close != nil {
		t.Errorf("Expected null close for untraded date, got %v", *resp.Points[1].Close)
	}
}

// TestGetHistoryUnknownSymbol tests the 404 path
func TestGetHistoryUnknownSymbol(t *testing.T) {
	router := setupRouter(testStore(), &fakeUserWriter{}, &fakeFolderWriter{}, &fakeRebuilder{})

	req, _ := http.NewRequest("GET", "/history/NOPE", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// TestGetHistoryNoSeries tests an asset in the directory without a
// reconciled series
func TestGetHistoryNoSeries(t *testing.T) {
	router := setupRouter(testStore(), &fakeUserWriter{}, &fakeFolderWriter{}, &fakeRebuilder{})

	req, _ := http.NewRequest("GET", "/history/MSFT", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse error response: %v", err)
	}
	if resp.Error != "no_history" {
		t.Errorf("Expected no_history error, got %q", resp.Error)
	}
}

// TestGetQuote tests serving the live quote set by the refresh tiers
func TestGetQuote(t *testing.T) {
	store := testStore()
	at := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	store.Current().AssetBySymbol("AAPL").SetLive(&models.LiveQuote{Price: 101.5, PrevClose: 100, At: at})

	router := setupRouter(store, &fakeUserWriter{}, &fakeFolderWriter{}, &fakeRebuilder{})

	req, _ := http.NewRequest("GET", "/quotes/AAPL", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var quote models.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &quote); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if quote.Price != 101.5 || quote.Symbol != "AAPL" {
		t.Errorf("Wrong quote: %+v", quote)
	}
}

// TestGetQuoteNotRefreshed tests that an asset with no live quote yet
// returns 404 rather than a zero price
func TestGetQuoteNotRefreshed(t *testing.T) {
	router := setupRouter(testStore(), &fakeUserWriter{}, &fakeFolderWriter{}, &fakeRebuilder{})

	req, _ := http.NewRequest("GET", "/quotes/MSFT", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse error response: %v", err)
	}
	if resp.Error != "no_quote" {
		t.Errorf("Expected no_quote error, got %q", resp.Error)
	}
}

// TestCreateUser tests that a created user lands in both the durable
// store and the published snapshot
func TestCreateUser(t *testing.T) {
	store := testStore()
	users := &fakeUserWriter{}
	router := setupRouter(store, users, &fakeFolderWriter{}, &fakeRebuilder{})

	body, _ := json.Marshal(models.CreateUserRequest{Name: "Ada", Email: "ada@example.com"})
	req, _ := http.NewRequest("POST", "/users", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(users.inserted) != 1 {
		t.Fatalf("Expected 1 durable insert, got %d", len(users.inserted))
	}
	if len(store.Current().Users) != 1 {
		t.Errorf("Expected user in published snapshot, got %d users", len(store.Current().Users))
	}
}

// TestCreateUserMissingFields tests request validation
func TestCreateUserMissingFields(t *testing.T) {
	users := &fakeUserWriter{}
	router := setupRouter(testStore(), users, &fakeFolderWriter{}, &fakeRebuilder{})

	req, _ := http.NewRequest("POST", "/users", strings.NewReader(`{"name": "Ada"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if len(users.inserted) != 0 {
		t.Errorf("Invalid request must not reach the durable store")
	}
}

// TestCreateAndListFolders tests folder creation and the snapshot-backed list
func TestCreateAndListFolders(t *testing.T) {
	store := testStore()
	router := setupRouter(store, &fakeUserWriter{}, &fakeFolderWriter{}, &fakeRebuilder{})

	body, _ := json.Marshal(models.CreateFolderRequest{OwnerID: 7, Name: "Retirement"})
	req, _ := http.NewRequest("POST", "/folders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	req, _ = http.NewRequest("GET", "/folders", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var folders []*models.Folder
	if err := json.Unmarshal(w.Body.Bytes(), &folders); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(folders) != 1 || folders[0].Name != "Retirement" {
		t.Errorf("Expected the created folder in the list, got %+v", folders)
	}
}

// TestDeleteFolderNotFound tests the sentinel error mapping
func TestDeleteFolderNotFound(t *testing.T) {
	folders := &fakeFolderWriter{deleteErr: repository.ErrFolderNotFound}
	router := setupRouter(testStore(), &fakeUserWriter{}, folders, &fakeRebuilder{})

	req, _ := http.NewRequest("DELETE", "/folders/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// TestRecordTrade tests trade recording with a defaulted execution time
func TestRecordTrade(t *testing.T) {
	folders := &fakeFolderWriter{}
	router := setupRouter(testStore(), &fakeUserWriter{}, folders, &fakeRebuilder{})

	body, _ := json.Marshal(models.RecordTradeRequest{PortfolioID: 3, AssetID: 1, Quantity: 10, Price: 99.5})
	req, _ := http.NewRequest("POST", "/trades", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(folders.trades) != 1 {
		t.Fatalf("Expected 1 recorded trade, got %d", len(folders.trades))
	}
	if folders.trades[0].ExecutedAt.IsZero() {
		t.Errorf("Expected executed_at defaulted to now")
	}

	req, _ = http.NewRequest("GET", "/trades/3", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var trades []*models.Trade
	if err := json.Unmarshal(w.Body.Bytes(), &trades); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(trades) != 1 || trades[0].Quantity != 10 {
		t.Errorf("Expected the recorded trade back, got %+v", trades)
	}
}

// TestStatusDump tests the plain-text diagnostics endpoint
func TestStatusDump(t *testing.T) {
	router := setupRouter(testStore(), &fakeUserWriter{}, &fakeFolderWriter{}, &fakeRebuilder{})

	req, _ := http.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	dump := w.Body.String()
	for _, want := range []string{"assets:", "refresh tiers", "hot", "sweep"} {
		if !strings.Contains(dump, want) {
			t.Errorf("Status dump missing %q:\n%s", want, dump)
		}
	}
	if !strings.Contains(dump, fmt.Sprintf("assets:            %d", 2)) {
		t.Errorf("Status dump should report 2 assets:\n%s", dump)
	}
}

// TestReload tests the on-demand rebuild endpoint
func TestReload(t *testing.T) {
	engine := &fakeRebuilder{}
	router := setupRouter(testStore(), &fakeUserWriter{}, &fakeFolderWriter{}, engine)

	req, _ := http.NewRequest("POST", "/reload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if engine.calls != 1 {
		t.Errorf("Expected 1 rebuild trigger, got %d", engine.calls)
	}
}

// TestReloadFailure tests that a failed rebuild surfaces as a 500
func TestReloadFailure(t *testing.T) {
	engine := &fakeRebuilder{err: fmt.Errorf("provider unavailable")}
	router := setupRouter(testStore(), &fakeUserWriter{}, &fakeFolderWriter{}, engine)

	req, _ := http.NewRequest("POST", "/reload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}
