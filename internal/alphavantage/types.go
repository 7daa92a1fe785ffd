package alphavantage

// TimeSeriesDailyResponse represents the TIME_SERIES_DAILY response
type TimeSeriesDailyResponse struct {
	TimeSeries   map[string]DailyOHLCV `json:"Time Series (Daily)"`
	ErrorMessage string                `json:"Error Message"`
}

// DailyOHLCV is one day's bar; AlphaVantage serializes numerics as strings
type DailyOHLCV struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// SplitsResponse represents the SPLITS response
type SplitsResponse struct {
	Symbol string     `json:"symbol"`
	Data   []SplitRow `json:"data"`
}

// SplitRow is one corporate action record
type SplitRow struct {
	EffectiveDate string `json:"effective_date"`
	SplitFactor   string `json:"split_factor"`
}

// BulkQuotesResponse represents the REALTIME_BULK_QUOTES response
type BulkQuotesResponse struct {
	Data []BulkQuoteRow `json:"data"`
}

// BulkQuoteRow is one symbol's real-time quote
type BulkQuoteRow struct {
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	PreviousClose string `json:"previous_close"`
	Timestamp     string `json:"timestamp"`
}
