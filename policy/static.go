package policy

import (
	"github.com/cryptonak/loms/shared"
)

// StaticName is the name of the static TP/SL policy.
const StaticName = "tp_sl_static"

// TieBreak selects which trigger wins when a single evaluation could
// satisfy both the take profit and the stop loss.
type TieBreak int

const (
	TakeProfitFirst TieBreak = iota
	StopLossFirst
)

// String stringifies the provided tie break.
func (t TieBreak) String() string {
	switch t {
	case TakeProfitFirst:
		return "tp_first"
	case StopLossFirst:
		return "sl_first"
	default:
		return "unknown"
	}
}

// StaticTPSL is the static take-profit/stop-loss exit policy. Evaluation
// is pure and stateless: an already-triggerable price keeps signaling a
// close until the position actually leaves the open state.
type StaticTPSL struct {
	// TieBreak resolves simultaneous TP/SL triggers.
	TieBreak TieBreak
}

// Ensure the static policy implements the ExitPolicy interface.
var _ shared.ExitPolicy = (*StaticTPSL)(nil)

// NewStaticTPSL initializes a new static TP/SL policy.
func NewStaticTPSL(tieBreak TieBreak) *StaticTPSL {
	return &StaticTPSL{
		TieBreak: tieBreak,
	}
}

// Name reports the policy name.
func (p *StaticTPSL) Name() string {
	return StaticName
}

// Evaluate returns a close action when the context price crosses the
// position's tp or sl (both inclusive). Positions without tp and sl, and
// positions with an unknown side, yield no actions.
func (p *StaticTPSL) Evaluate(position *shared.Position, ectx shared.ExitContext) []shared.ExitAction {
	if position.TPPrice == nil && position.SLPrice == nil {
		return nil
	}

	// An unknown side disables management entirely, it never defaults.
	side := position.Side
	if side != shared.Long && side != shared.Short {
		return nil
	}

	price := ectx.Price

	var hitTP, hitSL bool
	if tp := position.TPPrice; tp != nil {
		switch side {
		case shared.Long:
			hitTP = price >= *tp
		case shared.Short:
			hitTP = price <= *tp
		}
	}
	if sl := position.SLPrice; sl != nil {
		switch side {
		case shared.Long:
			hitSL = price <= *sl
		case shared.Short:
			hitSL = price >= *sl
		}
	}

	if !hitTP && !hitSL {
		return nil
	}

	reason := shared.CloseReasonTP
	switch {
	case hitTP && hitSL:
		if p.TieBreak == StopLossFirst {
			reason = shared.CloseReasonSL
		}
	case hitSL:
		reason = shared.CloseReasonSL
	}

	return []shared.ExitAction{shared.NewCloseAction(reason)}
}
