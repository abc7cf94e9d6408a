package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cryptonak/loms/shared"
	"github.com/tidwall/gjson"
)

const (
	// BybitBaseURL is the public Bybit REST endpoint.
	BybitBaseURL = "https://api.bybit.com"
	// defaultBybitCategory selects USDT linear perpetuals.
	defaultBybitCategory = "linear"
)

// BybitConfig represents the configuration for the Bybit client.
type BybitConfig struct {
	// BaseURL is the REST endpoint base url.
	BaseURL string
	// Category is the market category for ticker queries.
	Category string
	// Timeout bounds every outbound request.
	Timeout time.Duration
}

// BybitClient fetches tickers from Bybit's public market endpoints. Only
// public endpoints are used, no API key is required.
type BybitClient struct {
	cfg   *BybitConfig
	httpc http.Client
}

// Ensure the Bybit client implements the TickerClient interface.
var _ shared.TickerClient = (*BybitClient)(nil)

// NewBybitClient instantiates a new Bybit ticker client.
func NewBybitClient(cfg *BybitConfig) *BybitClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BybitBaseURL
	}
	if cfg.Category == "" {
		cfg.Category = defaultBybitCategory
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second * 3
	}

	return &BybitClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: cfg.Timeout},
	}
}

// Name reports the exchange name.
func (c *BybitClient) Name() string {
	return "bybit"
}

// ParseTicker parses a ticker from the provided /v5/market/tickers
// response body.
func (c *BybitClient) ParseTicker(body []byte, symbol string) (*shared.Ticker, error) {
	payload := gjson.ParseBytes(body)

	if payload.Get("retCode").Int() != 0 {
		return nil, fmt.Errorf("bybit api error for %s: %s", symbol, payload.Get("retMsg").String())
	}

	items := payload.Get("result.list").Array()
	if len(items) == 0 {
		return nil, fmt.Errorf("bybit tickers empty for %s", symbol)
	}

	item := items[0]
	ticker := &shared.Ticker{
		Symbol: symbol,
		// Bybit does not expose a ticker timestamp here.
		TS:   time.Now().UTC(),
		Bid:  maybeFloat(item.Get("bid1Price")),
		Ask:  maybeFloat(item.Get("ask1Price")),
		Last: maybeFloat(item.Get("lastPrice")),
		Mark: maybeFloat(item.Get("markPrice")),
	}

	return ticker, nil
}

// Ticker fetches the ticker for the provided symbol.
func (c *BybitClient) Ticker(ctx context.Context, symbol string) (*shared.Ticker, error) {
	params := url.Values{}
	params.Add("category", c.cfg.Category)
	params.Add("symbol", symbol)

	formedURL := fmt.Sprintf("%s/v5/market/tickers?%s", c.cfg.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bybit ticker request for %s: %w", symbol, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching bybit ticker for %s: %w", symbol, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bybit ticker request for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bybit ticker response: %w", err)
	}

	return c.ParseTicker(body, symbol)
}

// maybeFloat converts an optional gjson field to a float pointer. Missing
// or non-numeric values yield nil.
func maybeFloat(result gjson.Result) *float64 {
	if !result.Exists() || result.String() == "" {
		return nil
	}

	switch result.Type {
	case gjson.Number:
		return shared.Float64(result.Float())
	case gjson.String:
		v, err := strconv.ParseFloat(result.String(), 64)
		if err != nil {
			return nil
		}
		return shared.Float64(v)
	default:
		return nil
	}
}
