package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/epeers/marketdata/internal/models"
)

// Alphavantage is a Stock and ETF API that fetches data including pricing data
// It is a subscription service, but provides free API access
// https://www.alphavantage.co/documentation/
const defaultBaseURL = "https://www.alphavantage.co/query"

// Client is an HTTP client for the AlphaVantage API. It implements the
// reconciler's PriceProvider and the scheduler's QuoteProvider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new AlphaVantage client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL creates a new AlphaVantage client with a custom base URL (for testing)
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DailyHistory fetches raw daily closes for a symbol and returns ascending
// native trading dates with their closes, clipped to [start, end].
func (c *Client) DailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]time.Time, []float64, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", "full")
	params.Set("apikey", c.apiKey)

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	var tsResp TimeSeriesDailyResponse
	if err := json.Unmarshal(body, &tsResp); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if tsResp.ErrorMessage != "" {
		return nil, nil, fmt.Errorf("API error for %s: %s", symbol, tsResp.ErrorMessage)
	}

	type bar struct {
		date  time.Time
		close float64
	}
	var bars []bar
	for dateStr, ohlcv := range tsResp.TimeSeries {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		closePrice, err := strconv.ParseFloat(ohlcv.Close, 64)
		if err != nil {
			continue
		}
		bars = append(bars, bar{date: date, close: closePrice})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].date.Before(bars[j].date) })

	dates := make([]time.Time, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		dates[i] = b.date
		closes[i] = b.close
	}
	return dates, closes, nil
}

// Splits fetches the primary per-asset split records in [start, end].
func (c *Client) Splits(ctx context.Context, symbol string, start, end time.Time) ([]models.Split, error) {
	params := url.Values{}
	params.Set("function", "SPLITS")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var splitResp SplitsResponse
	if err := json.Unmarshal(body, &splitResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var splits []models.Split
	for _, row := range splitResp.Data {
		date, err := time.Parse("2006-01-02", row.EffectiveDate)
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		factor, err := strconv.ParseFloat(row.SplitFactor, 64)
		if err != nil || factor <= 0 {
			continue
		}
		// split_factor is shares-after per share-before (4.0 for a 4-for-1).
		splits = append(splits, models.Split{Date: date, BeforeQty: 1, AfterQty: factor})
	}
	return splits, nil
}

// Quotes fetches real-time quotes for a batch of symbols.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	params := url.Values{}
	params.Set("function", "REALTIME_BULK_QUOTES")
	params.Set("symbol", strings.Join(symbols, ","))
	params.Set("apikey", c.apiKey)

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var quoteResp BulkQuotesResponse
	if err := json.Unmarshal(body, &quoteResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	now := time.Now()
	var quotes []models.Quote
	for _, row := range quoteResp.Data {
		price, err := strconv.ParseFloat(row.Price, 64)
		if err != nil {
			continue
		}
		prevClose, _ := strconv.ParseFloat(row.PreviousClose, 64)
		at := now
		if ts, err := time.Parse("2006-01-02 15:04:05", row.Timestamp); err == nil {
			at = ts
		}
		quotes = append(quotes, models.Quote{
			Symbol:    row.Symbol,
			Price:     price,
			PrevClose: prevClose,
			At:        at,
		})
	}
	return quotes, nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
