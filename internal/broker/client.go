package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the broker gateway's account endpoints. Only the
// net-liquidation scalar and its timestamp feed NAV history; positions are
// exposed for diagnostics.
type Client struct {
	baseURL string
	client  *resty.Client
}

// AccountSummary is the broker's account snapshot.
type AccountSummary struct {
	AccountID      string    `json:"account_id"`
	NetLiquidation float64   `json:"net_liquidation"`
	Cash           float64   `json:"cash"`
	Currency       string    `json:"currency"`
	AsOf           time.Time `json:"as_of"`
}

// Position is one open position in a broker account.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
}

// NewClient creates a broker gateway client.
func NewClient(baseURL string) *Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Client{
		baseURL: baseURL,
		client:  client,
	}
}

// GetAccountSummary fetches the current summary for one account.
func (c *Client) GetAccountSummary(ctx context.Context, accountID string) (*AccountSummary, error) {
	var summary AccountSummary
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&summary).
		Get(fmt.Sprintf("%s/v1/accounts/%s/summary", c.baseURL, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account summary: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("broker returned status %d for account %s", resp.StatusCode(), accountID)
	}
	return &summary, nil
}

// GetPositions fetches the open positions for one account.
func (c *Client) GetPositions(ctx context.Context, accountID string) ([]Position, error) {
	var positions []Position
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&positions).
		Get(fmt.Sprintf("%s/v1/accounts/%s/positions", c.baseURL, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("broker returned status %d for account %s", resp.StatusCode(), accountID)
	}
	return positions, nil
}
