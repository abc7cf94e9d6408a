package pricing

import (
	"context"
	"time"

	"github.com/cryptonak/loms/shared"
)

// ExchangeSource is a price source backed by an exchange ticker client. It
// normalizes provider tickers into the canonical quote shape and fails if
// none of last/bid/ask/mark is present.
type ExchangeSource struct {
	client shared.TickerClient
	mode   shared.PriceMode
}

// Ensure the exchange source implements the PriceSource interface.
var _ shared.PriceSource = (*ExchangeSource)(nil)

// NewExchangeSource initializes a new exchange price source.
func NewExchangeSource(client shared.TickerClient, mode shared.PriceMode) *ExchangeSource {
	return &ExchangeSource{
		client: client,
		mode:   mode,
	}
}

// Type reports the source variant.
func (s *ExchangeSource) Type() shared.PriceSourceType {
	return shared.SourceExchange
}

// Quote fetches a quote for the provided symbol from the exchange.
func (s *ExchangeSource) Quote(ctx context.Context, symbol string) (*shared.PriceQuote, error) {
	ticker, err := s.client.Ticker(ctx, symbol)
	if err != nil {
		return nil, shared.NewPriceSourceError(shared.PriceErrNetwork, symbol,
			s.client.Name(), "fetching ticker", err)
	}

	if ticker.Last == nil && ticker.Bid == nil && ticker.Ask == nil && ticker.Mark == nil {
		return nil, shared.NewPriceSourceError(shared.PriceErrNoUsableField, symbol,
			s.client.Name(), "ticker carries no usable price field", nil)
	}

	ts := ticker.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &shared.PriceQuote{
		Symbol: symbol,
		TS:     ts,
		Bid:    ticker.Bid,
		Ask:    ticker.Ask,
		Last:   ticker.Last,
		Mark:   ticker.Mark,
		Source: shared.SourceExchange,
		Mode:   s.mode,
	}, nil
}
