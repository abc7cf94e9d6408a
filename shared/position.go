package shared

import (
	"encoding/json"
	"time"
)

// PositionStatus represents the lifecycle status of a position.
type PositionStatus int

const (
	StatusOpen PositionStatus = iota
	StatusClosed
	StatusCancelled
)

// String stringifies the provided position status.
func (s PositionStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the status in its string form.
func (s PositionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes the status from its string form.
func (s *PositionStatus) UnmarshalJSON(b []byte) error {
	var raw string
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}

	status, _ := ParsePositionStatus(raw)
	*s = status
	return nil
}

// ParsePositionStatus parses a position status from its string form.
func ParsePositionStatus(raw string) (PositionStatus, bool) {
	switch raw {
	case "open":
		return StatusOpen, true
	case "closed":
		return StatusClosed, true
	case "cancelled":
		return StatusCancelled, true
	default:
		return StatusOpen, false
	}
}

// Position represents a simulated holding of a symbol with entry terms and
// a lifecycle status. The record is owned by the position store, all
// mutation goes through the broker adapter.
type Position struct {
	ID           string `json:"id"`
	Symbol       string `json:"symbol"`
	Exchange     string `json:"exchange,omitempty"`
	MarketType   string `json:"market_type,omitempty"`
	AccountLabel string `json:"account_label,omitempty"`

	Side       Side    `json:"side"`
	Qty        float64 `json:"qty"`
	EntryPrice float64 `json:"entry_price"`

	TPPrice      *float64 `json:"tp_price,omitempty"`
	SLPrice      *float64 `json:"sl_price,omitempty"`
	ExitStrategy string   `json:"exit_strategy,omitempty"`

	// Reserved for trailing policies, unused by the static policy.
	DynamicTPPrice   *float64 `json:"dynamic_tp_price,omitempty"`
	DynamicSLPrice   *float64 `json:"dynamic_sl_price,omitempty"`
	MaxFavorableMove *float64 `json:"max_favorable_move,omitempty"`

	Status PositionStatus `json:"status"`

	CreatedOn   time.Time  `json:"created_on"`
	ClosedOn    *time.Time `json:"closed_on,omitempty"`
	ClosePrice  *float64   `json:"close_price,omitempty"`
	PNL         *float64   `json:"pnl,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
}

// Age reports how long the position has been open relative to now.
func (p *Position) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedOn)
}

// Managed reports whether the position has at least one of tp/sl set and
// is therefore eligible for autonomous exit evaluation.
func (p *Position) Managed() bool {
	return p.TPPrice != nil || p.SLPrice != nil
}

// Notional returns the nominal exposure of the position.
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Qty
}
