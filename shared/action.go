package shared

import "time"

// ExitActionType represents the kinds of actions an exit policy can
// suggest. Only ClosePosition is acted upon by the current watcher, the
// others are forward-looking extension points.
type ExitActionType int

const (
	ClosePosition ExitActionType = iota
	AdjustStopLoss
	AdjustTakeProfit
	PartialClose
)

// String stringifies the provided exit action type.
func (t ExitActionType) String() string {
	switch t {
	case ClosePosition:
		return "close_position"
	case AdjustStopLoss:
		return "adjust_stop_loss"
	case AdjustTakeProfit:
		return "adjust_take_profit"
	case PartialClose:
		return "partial_close"
	default:
		return "unknown"
	}
}

// Close reasons recorded on positions.
const (
	CloseReasonTP     = "tp"
	CloseReasonSL     = "sl"
	CloseReasonManual = "manual"
)

// ExitAction is an action proposed by an exit policy. Fields are used per
// type: CloseReason for close/partial close, NewStopLoss and NewTakeProfit
// for the adjust variants, CloseQty for partial close.
type ExitAction struct {
	Type ExitActionType

	NewStopLoss   *float64
	NewTakeProfit *float64

	CloseReason string
	CloseQty    *float64
}

// NewCloseAction initializes a close position action.
func NewCloseAction(reason string) ExitAction {
	return ExitAction{
		Type:        ClosePosition,
		CloseReason: reason,
	}
}

// NewAdjustStopLossAction initializes a stop loss adjustment action.
func NewAdjustStopLossAction(newSL float64) ExitAction {
	return ExitAction{
		Type:        AdjustStopLoss,
		NewStopLoss: Float64(newSL),
	}
}

// NewAdjustTakeProfitAction initializes a take profit adjustment action.
func NewAdjustTakeProfitAction(newTP float64) ExitAction {
	return ExitAction{
		Type:          AdjustTakeProfit,
		NewTakeProfit: Float64(newTP),
	}
}

// NewPartialCloseAction initializes a partial close action.
func NewPartialCloseAction(qty float64, reason string) ExitAction {
	return ExitAction{
		Type:        PartialClose,
		CloseQty:    Float64(qty),
		CloseReason: reason,
	}
}

// ExitContext is the evaluation context handed to an exit policy: the
// selected numeric price, the full quote when available and the evaluation
// time for aging rules.
type ExitContext struct {
	Price float64
	Quote *PriceQuote
	Now   time.Time
}
