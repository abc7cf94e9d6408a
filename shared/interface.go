package shared

import (
	"context"
	"time"
)

// PriceSource defines the requirements for fetching a standardized quote
// for a symbol. Implementations fail with a *PriceSourceError rather than
// returning a partially populated quote.
type PriceSource interface {
	// Type reports the source variant.
	Type() PriceSourceType
	// Quote fetches a quote for the provided symbol.
	Quote(ctx context.Context, symbol string) (*PriceQuote, error)
}

// ExitPolicy defines the requirements for evaluating exit decisions. An
// evaluation is a pure function of the position and the price context and
// must be free of side effects.
type ExitPolicy interface {
	// Name reports the policy name.
	Name() string
	// Evaluate returns the exit actions warranted by the provided context.
	Evaluate(position *Position, ectx ExitContext) []ExitAction
}

// BrokerAdapter defines the execution boundary that mutates position state
// to reflect opens and closes, abstracted from paper vs live execution.
type BrokerAdapter interface {
	// OpenPosition opens a new position with the provided terms.
	OpenPosition(ctx context.Context, params NewPositionParams) OrderResult
	// ClosePosition closes the provided position at the given price. The
	// close price is optional at the contract level, concrete adapters may
	// require it.
	ClosePosition(ctx context.Context, position *Position, closePrice *float64, reason string) CloseResult
}

// Ticker is a raw provider ticker normalized to optional canonical fields.
type Ticker struct {
	Symbol string
	TS     time.Time

	Bid  *float64
	Ask  *float64
	Last *float64
	Mark *float64
}

// TickerClient defines the requirements for fetching a ticker from an
// exchange. Implementations must surface network and auth failures as
// errors rather than returning empty or zeroed data.
type TickerClient interface {
	// Name reports the exchange name, used for diagnostics.
	Name() string
	// Ticker fetches the ticker for the provided symbol.
	Ticker(ctx context.Context, symbol string) (*Ticker, error)
}
