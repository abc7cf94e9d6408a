package broker

import (
	"context"
	"errors"
	"time"

	"github.com/cryptonak/loms/position"
	"github.com/cryptonak/loms/shared"
	"github.com/rs/zerolog"
)

// Close rejection reasons surfaced by the paper adapter.
const (
	ReasonMissingClosePrice = "missing_close_price"
	ReasonPositionNotOpen   = "position_not_open"
)

// PaperSimConfig represents the paper simulation adapter configuration.
type PaperSimConfig struct {
	// Store is the position store fills are applied to.
	Store *position.Store
	// PersistOpenedPosition journals a newly opened position.
	PersistOpenedPosition func(ctx context.Context, pos *shared.Position) error
	// PersistClosedPosition journals a position close.
	PersistClosedPosition func(ctx context.Context, pos *shared.Position) error
	// Logger is the adapter logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sanely checks all its expected values.
func (cfg *PaperSimConfig) Validate() error {
	var errs error

	if cfg.Store == nil {
		errs = errors.Join(errs, errors.New("position store cannot be nil"))
	}
	if cfg.PersistOpenedPosition == nil {
		errs = errors.Join(errs, errors.New("persist opened position function cannot be nil"))
	}
	if cfg.PersistClosedPosition == nil {
		errs = errors.Join(errs, errors.New("persist closed position function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, errors.New("logger cannot be nil"))
	}

	return errs
}

// PaperSim simulates broker execution against the in-memory position
// store. Fills are instant and full, at exactly the requested price,
// with no fees, slippage or partial fills.
type PaperSim struct {
	cfg *PaperSimConfig
}

// Ensure the paper adapter implements the BrokerAdapter interface.
var _ shared.BrokerAdapter = (*PaperSim)(nil)

// NewPaperSim initializes a new paper simulation adapter.
func NewPaperSim(cfg *PaperSimConfig) (*PaperSim, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &PaperSim{
		cfg: cfg,
	}, nil
}

// OpenPosition opens a new simulated position with the provided terms.
func (b *PaperSim) OpenPosition(ctx context.Context, params shared.NewPositionParams) shared.OrderResult {
	pos := position.New(params, time.Now().UTC())
	b.cfg.Store.Add(pos)

	err := b.cfg.PersistOpenedPosition(ctx, pos)
	if err != nil {
		// Persistence is journaling, the in-memory open already happened.
		b.cfg.Logger.Error().Err(err).Str("id", pos.ID).
			Msg("persisting opened position failed")
	}

	b.cfg.Logger.Info().Str("id", pos.ID).Str("symbol", pos.Symbol).
		Str("side", pos.Side.String()).Float64("entry_price", pos.EntryPrice).
		Float64("qty", pos.Qty).Msg("opened paper position")

	return shared.OrderResult{
		OK:       true,
		Position: pos,
	}
}

// ClosePosition closes the provided position at the given price. The
// close price is required, the paper adapter has no market of its own to
// fall back on. Closing an already-closed position fails without
// touching the recorded closing data.
func (b *PaperSim) ClosePosition(ctx context.Context, pos *shared.Position, closePrice *float64, reason string) shared.CloseResult {
	if closePrice == nil {
		return shared.CloseResult{
			OK:     false,
			Reason: ReasonMissingClosePrice,
		}
	}

	pnl := b.pnl(pos, *closePrice)

	closed, err := b.cfg.Store.MarkClosed(pos.ID, *closePrice, pnl, reason, time.Now().UTC())
	if err != nil {
		res := shared.CloseResult{
			OK:     false,
			Reason: ReasonPositionNotOpen,
		}
		// The existing record is returned so a repeated close stays
		// idempotent for the caller.
		if closed.ID != "" {
			res.Position = &closed
		}
		return res
	}

	err = b.cfg.PersistClosedPosition(ctx, &closed)
	if err != nil {
		b.cfg.Logger.Error().Err(err).Str("id", closed.ID).
			Msg("persisting closed position failed")
	}

	b.cfg.Logger.Info().Str("id", closed.ID).Str("symbol", closed.Symbol).
		Str("reason", reason).Float64("close_price", *closePrice).
		Float64("pnl", pnl).Msg("closed paper position")

	return shared.CloseResult{
		OK:       true,
		Position: &closed,
	}
}

// pnl computes the realized profit and loss for closing the position at
// the provided price.
func (b *PaperSim) pnl(pos *shared.Position, closePrice float64) float64 {
	switch pos.Side {
	case shared.Short:
		return (pos.EntryPrice - closePrice) * pos.Qty
	case shared.Long:
		return (closePrice - pos.EntryPrice) * pos.Qty
	default:
		// An unknown side should never reach the adapter, the long
		// formula keeps the paper books consistent if one does.
		b.cfg.Logger.Warn().Str("id", pos.ID).Str("side", pos.Side.String()).
			Msg("computing pnl for a position with an unknown side")
		return (closePrice - pos.EntryPrice) * pos.Qty
	}
}
