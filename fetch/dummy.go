package fetch

import (
	"context"
	"time"

	"github.com/cryptonak/loms/shared"
)

// DummyClient is a canned ticker client for development and tests. It
// returns fixed values so the exchange price source can be exercised
// without real network calls.
type DummyClient struct{}

// Ensure the dummy client implements the TickerClient interface.
var _ shared.TickerClient = (*DummyClient)(nil)

// NewDummyClient instantiates a new dummy ticker client.
func NewDummyClient() *DummyClient {
	return &DummyClient{}
}

// Name reports the exchange name.
func (c *DummyClient) Name() string {
	return "dummy"
}

// Ticker returns a fixed ticker for the provided symbol.
func (c *DummyClient) Ticker(_ context.Context, symbol string) (*shared.Ticker, error) {
	return &shared.Ticker{
		Symbol: symbol,
		TS:     time.Now().UTC(),
		Bid:    shared.Float64(99.5),
		Ask:    shared.Float64(100.5),
		Last:   shared.Float64(100.0),
		Mark:   shared.Float64(100.2),
	}, nil
}
