package shared

import "time"

// Signal represents an incoming trading signal from an external strategy.
type Signal struct {
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`

	Exchange     string `json:"exchange"`
	TimeframeMin int    `json:"timeframe_min"`
	Strategy     string `json:"strategy"`

	// TP/SL suggested by the strategy, in percent of the entry price.
	TPPct *float64 `json:"tp_pct,omitempty"`
	SLPct *float64 `json:"sl_pct,omitempty"`
}

// NewPositionParams carries the intent of opening a position into a broker
// adapter, independent of any transport layer.
type NewPositionParams struct {
	Symbol     string
	Side       Side
	Qty        float64
	EntryPrice float64

	Exchange     string
	MarketType   string
	AccountLabel string

	TPPrice *float64
	SLPrice *float64

	ExitStrategy string
}

// OrderResult is the outcome of an open position request. Either OK is
// true and Position is set, or OK is false and Reason explains why. There
// is no partial success.
type OrderResult struct {
	OK       bool
	Reason   string
	Position *Position
}

// CloseResult is the outcome of a close position request.
type CloseResult struct {
	OK       bool
	Reason   string
	Position *Position
}
