package policy

import (
	"github.com/cryptonak/loms/shared"
	"github.com/rs/zerolog"
)

// New resolves the exit policy for the provided strategy name. Positions
// carry an exit strategy tag, unknown tags resolve to the static TP/SL
// policy with a warning rather than leaving positions unmanaged.
func New(name string, tieBreak TieBreak, logger *zerolog.Logger) shared.ExitPolicy {
	switch name {
	case StaticName, "":
		return NewStaticTPSL(tieBreak)
	default:
		logger.Warn().Str("exit_strategy", name).
			Msg("unknown exit strategy, using the static tp/sl policy")
		return NewStaticTPSL(tieBreak)
	}
}
