package fetch

import (
	"time"

	"github.com/cryptonak/loms/shared"
	"github.com/rs/zerolog"
)

// Supported exchange ticker backends.
const (
	ExchangeDummy  = "dummy"
	ExchangeBybit  = "bybit"
	ExchangeBitget = "bitget"
)

// NewTickerClient resolves the ticker client for the provided exchange
// name. Unrecognized names fall back to the dummy client with a warning so
// a misconfigured price exchange degrades to fixed test prices instead of
// live traffic.
func NewTickerClient(exchange string, timeout time.Duration, logger *zerolog.Logger) shared.TickerClient {
	switch exchange {
	case ExchangeBybit:
		logger.Info().Str("exchange", ExchangeBybit).Dur("timeout", timeout).
			Msg("exchange ticker client selected")
		return NewBybitClient(&BybitConfig{Timeout: timeout})
	case ExchangeBitget:
		logger.Info().Str("exchange", ExchangeBitget).Dur("timeout", timeout).
			Msg("exchange ticker client selected")
		return NewBitgetClient(&BitgetConfig{Timeout: timeout})
	case ExchangeDummy:
		logger.Info().Str("exchange", ExchangeDummy).Msg("exchange ticker client selected")
		return NewDummyClient()
	default:
		logger.Warn().Str("exchange", exchange).
			Msg("unknown price exchange, falling back to dummy ticker client")
		return NewDummyClient()
	}
}
