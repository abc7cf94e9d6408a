package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cryptonak/loms/shared"
	"github.com/tidwall/gjson"
)

const (
	// BitgetBaseURL is the public Bitget REST endpoint.
	BitgetBaseURL = "https://api.bitget.com"
	// bitgetSuccessCode is the Bitget v2 API success code.
	bitgetSuccessCode = "00000"
)

// BitgetConfig represents the configuration for the Bitget client.
type BitgetConfig struct {
	// BaseURL is the REST endpoint base url.
	BaseURL string
	// Timeout bounds every outbound request.
	Timeout time.Duration
}

// BitgetClient fetches tickers from Bitget's public spot v2 market
// endpoints.
type BitgetClient struct {
	cfg   *BitgetConfig
	httpc http.Client
}

// Ensure the Bitget client implements the TickerClient interface.
var _ shared.TickerClient = (*BitgetClient)(nil)

// NewBitgetClient instantiates a new Bitget ticker client.
func NewBitgetClient(cfg *BitgetConfig) *BitgetClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BitgetBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second * 3
	}

	return &BitgetClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: cfg.Timeout},
	}
}

// Name reports the exchange name.
func (c *BitgetClient) Name() string {
	return "bitget"
}

// ParseTicker parses a ticker from the provided
// /api/v2/spot/market/tickers response body.
func (c *BitgetClient) ParseTicker(body []byte, symbol string) (*shared.Ticker, error) {
	payload := gjson.ParseBytes(body)

	if payload.Get("code").String() != bitgetSuccessCode {
		return nil, fmt.Errorf("bitget api error for %s: %s", symbol, payload.Get("msg").String())
	}

	items := payload.Get("data").Array()
	if len(items) == 0 {
		return nil, fmt.Errorf("bitget tickers empty for %s", symbol)
	}

	item := items[0]

	// The ticker timestamp is unix milliseconds in a string.
	ts := time.Now().UTC()
	if raw := item.Get("ts"); raw.Exists() && raw.Int() > 0 {
		ts = time.UnixMilli(raw.Int()).UTC()
	}

	ticker := &shared.Ticker{
		Symbol: symbol,
		TS:     ts,
		Bid:    maybeFloat(item.Get("bidPr")),
		Ask:    maybeFloat(item.Get("askPr")),
		Last:   maybeFloat(item.Get("lastPr")),
		// The spot ticker does not expose a mark price.
		Mark: nil,
	}

	return ticker, nil
}

// Ticker fetches the ticker for the provided symbol.
func (c *BitgetClient) Ticker(ctx context.Context, symbol string) (*shared.Ticker, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	formedURL := fmt.Sprintf("%s/api/v2/spot/market/tickers?%s", c.cfg.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bitget ticker request for %s: %w", symbol, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching bitget ticker for %s: %w", symbol, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bitget ticker request for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bitget ticker response: %w", err)
	}

	return c.ParseTicker(body, symbol)
}
