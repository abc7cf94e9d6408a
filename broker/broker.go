package broker

import (
	"context"
	"fmt"

	"github.com/cryptonak/loms/shared"
	"github.com/rs/zerolog"
)

// Broker execution modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// ReasonExchangeNotImplemented is returned by the live stub for every
// request.
const ReasonExchangeNotImplemented = "broker_exchange_not_implemented"

// ExchangeStub reserves the live execution slot. It fails every request
// so a misconfigured live deployment surfaces immediately instead of
// silently paper trading.
type ExchangeStub struct {
	logger *zerolog.Logger
}

// Ensure the exchange stub implements the BrokerAdapter interface.
var _ shared.BrokerAdapter = (*ExchangeStub)(nil)

// NewExchangeStub initializes a new live exchange stub.
func NewExchangeStub(logger *zerolog.Logger) *ExchangeStub {
	return &ExchangeStub{
		logger: logger,
	}
}

// OpenPosition fails, live execution is not implemented.
func (b *ExchangeStub) OpenPosition(_ context.Context, params shared.NewPositionParams) shared.OrderResult {
	b.logger.Error().Str("symbol", params.Symbol).
		Msg("rejecting open, live execution is not implemented")
	return shared.OrderResult{
		OK:     false,
		Reason: ReasonExchangeNotImplemented,
	}
}

// ClosePosition fails, live execution is not implemented.
func (b *ExchangeStub) ClosePosition(_ context.Context, pos *shared.Position, _ *float64, _ string) shared.CloseResult {
	b.logger.Error().Str("id", pos.ID).
		Msg("rejecting close, live execution is not implemented")
	return shared.CloseResult{
		OK:     false,
		Reason: ReasonExchangeNotImplemented,
	}
}

// NewAdapter initializes the broker adapter for the provided execution
// mode. Unknown modes are a configuration error, never a silent paper
// fallback.
func NewAdapter(mode string, paperCfg *PaperSimConfig, logger *zerolog.Logger) (shared.BrokerAdapter, error) {
	switch mode {
	case ModePaper:
		return NewPaperSim(paperCfg)
	case ModeLive:
		return NewExchangeStub(logger), nil
	default:
		return nil, fmt.Errorf("unknown broker mode: %q", mode)
	}
}
