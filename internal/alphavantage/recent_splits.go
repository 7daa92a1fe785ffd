package alphavantage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/epeers/marketdata/internal/models"
	log "github.com/sirupsen/logrus"
)

// RecentSplits fetches the bulk corporate-action CSV covering all symbols
// since the given date. This is the secondary backstop feed: the reconciler
// consults it only for effective dates the per-symbol primary source lacks.
func (c *Client) RecentSplits(ctx context.Context, since time.Time) ([]models.SymbolSplit, error) {
	log.Debugf("RecentSplits begins (from Alphavantage)")
	params := url.Values{}
	params.Set("function", "SPLIT_EVENTS")
	params.Set("datatype", "csv")
	params.Set("date_from", since.Format("2006-01-02"))
	params.Set("apikey", c.apiKey)

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent splits: %w", err)
	}

	log.Debug("RecentSplits ends (from AV)")
	return parseRecentSplitsCSV(bytes.NewReader(body))
}

// parseRecentSplitsCSV parses the SPLIT_EVENTS CSV response.
// Expected columns: symbol,effective_date,before_quantity,after_quantity
func parseRecentSplitsCSV(r io.Reader) ([]models.SymbolSplit, error) {
	reader := csv.NewReader(r)

	// Read header row
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Build column index map
	colIdx := make(map[string]int)
	for i, col := range header {
		colIdx[col] = i
	}

	// Verify required columns exist
	requiredCols := []string{"symbol", "effective_date", "before_quantity", "after_quantity"}
	for _, col := range requiredCols {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var splits []models.SymbolSplit
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		date, err := time.Parse("2006-01-02", record[colIdx["effective_date"]])
		if err != nil {
			continue
		}
		before, err := strconv.ParseFloat(record[colIdx["before_quantity"]], 64)
		if err != nil || before <= 0 {
			continue
		}
		after, err := strconv.ParseFloat(record[colIdx["after_quantity"]], 64)
		if err != nil || after <= 0 {
			continue
		}

		splits = append(splits, models.SymbolSplit{
			Symbol: record[colIdx["symbol"]],
			Split:  models.Split{Date: date, BeforeQty: before, AfterQty: after},
		})
	}

	return splits, nil
}
