package oms

import (
	"context"
	"errors"

	"github.com/cryptonak/loms/audit"
	"github.com/cryptonak/loms/position"
	"github.com/cryptonak/loms/risk"
	"github.com/cryptonak/loms/shared"
	"github.com/rs/zerolog"
)

// Default position terms applied when a signal omits them.
const (
	// DefaultTPPct is the default take profit, in percent of the entry
	// price.
	DefaultTPPct = 4.5
	// DefaultSLPct is the default stop loss, in percent of the entry
	// price.
	DefaultSLPct = 1.5
	// DefaultQty is the default position quantity.
	DefaultQty = 1.0
	// DefaultMarketType tags positions opened through the paper pipeline.
	DefaultMarketType = "paper_sim"
	// DefaultAccountLabel tags positions with the owning account bucket.
	DefaultAccountLabel = "lab_dev"
)

// Signal and close rejection reasons.
const (
	ReasonDisabled         = "oms_disabled"
	ReasonInvalidSide      = "invalid_side"
	ReasonPositionNotFound = "position_not_found"
	ReasonPositionNotOpen  = "position_not_open"
	ReasonPriceUnavailable = "price_source_unavailable"
)

// ManagerConfig represents the order manager configuration.
type ManagerConfig struct {
	// Enabled is the processing kill switch, disabled managers journal
	// and reject every signal.
	Enabled bool
	// ExitStrategy tags new positions with the exit strategy the watcher
	// resolves at evaluation time.
	ExitStrategy string
	// Store is the position store.
	Store *position.Store
	// Broker is the execution adapter.
	Broker shared.BrokerAdapter
	// Limiter gates new opens against exposure ceilings.
	Limiter *risk.Limiter
	// ResolveSource returns the active price source, used when a close
	// or a signal arrives without a price.
	ResolveSource func() shared.PriceSource
	// Journal is the audit journal every inbound signal is recorded to.
	Journal *audit.Journal
	// Logger is the manager logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sanely checks all its expected values.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.Store == nil {
		errs = errors.Join(errs, errors.New("position store cannot be nil"))
	}
	if cfg.Broker == nil {
		errs = errors.Join(errs, errors.New("broker adapter cannot be nil"))
	}
	if cfg.Limiter == nil {
		errs = errors.Join(errs, errors.New("risk limiter cannot be nil"))
	}
	if cfg.ResolveSource == nil {
		errs = errors.Join(errs, errors.New("resolve source function cannot be nil"))
	}
	if cfg.Journal == nil {
		errs = errors.Join(errs, errors.New("audit journal cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, errors.New("logger cannot be nil"))
	}

	return errs
}

// Manager orchestrates the signal intake pipeline: audit, kill switch,
// validation, risk admission and broker execution, in that order.
type Manager struct {
	cfg *ManagerConfig
}

// NewManager initializes a new order manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg: cfg,
	}, nil
}

// targets derives the tp/sl prices for the provided entry terms, applying
// the default percentages when the signal omits them. The offsets flip
// sign with the side so both targets stay on the profitable/protective
// side of the entry.
func targets(side shared.Side, entryPrice float64, tpPct *float64, slPct *float64) (*float64, *float64) {
	tp := DefaultTPPct
	if tpPct != nil {
		tp = *tpPct
	}
	sl := DefaultSLPct
	if slPct != nil {
		sl = *slPct
	}

	var tpPrice, slPrice float64
	switch side {
	case shared.Short:
		tpPrice = entryPrice * (1 - tp/100)
		slPrice = entryPrice * (1 + sl/100)
	default:
		tpPrice = entryPrice * (1 + tp/100)
		slPrice = entryPrice * (1 - sl/100)
	}

	return shared.Float64(tpPrice), shared.Float64(slPrice)
}

// currentPrice fetches the current price for the provided symbol from the
// active source.
func (m *Manager) currentPrice(ctx context.Context, symbol string) (float64, error) {
	source := m.cfg.ResolveSource()
	quote, err := source.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}

	return shared.SelectPrice(quote, quote.Mode)
}

// HandleSignal processes an inbound bounce signal into an open position.
// The signal is journaled before any validation so rejections remain
// reconstructable.
func (m *Manager) HandleSignal(ctx context.Context, signal *shared.Signal) shared.OrderResult {
	m.cfg.Journal.Record(audit.TypeBounceSignal, signal)

	if !m.cfg.Enabled {
		m.cfg.Logger.Info().Str("symbol", signal.Symbol).
			Msg("rejecting signal, order processing is disabled")
		return shared.OrderResult{
			OK:     false,
			Reason: ReasonDisabled,
		}
	}

	side := shared.NormalizeSide(signal.Side)
	if side == shared.UnknownSide {
		m.cfg.Logger.Info().Str("symbol", signal.Symbol).Str("side", signal.Side).
			Msg("rejecting signal, unknown side")
		return shared.OrderResult{
			OK:     false,
			Reason: ReasonInvalidSide,
		}
	}

	entryPrice := signal.Price
	if entryPrice <= 0 {
		price, err := m.currentPrice(ctx, signal.Symbol)
		if err != nil {
			m.cfg.Logger.Error().Err(err).Str("symbol", signal.Symbol).
				Msg("rejecting signal, no entry price and no quote")
			return shared.OrderResult{
				OK:     false,
				Reason: ReasonPriceUnavailable,
			}
		}
		entryPrice = price
	}

	qty := DefaultQty
	ok, reason := m.cfg.Limiter.Check(signal.Symbol, entryPrice, qty)
	if !ok {
		return shared.OrderResult{
			OK:     false,
			Reason: reason,
		}
	}

	tpPrice, slPrice := targets(side, entryPrice, signal.TPPct, signal.SLPct)

	return m.cfg.Broker.OpenPosition(ctx, shared.NewPositionParams{
		Symbol:       signal.Symbol,
		Side:         side,
		Qty:          qty,
		EntryPrice:   entryPrice,
		Exchange:     signal.Exchange,
		MarketType:   DefaultMarketType,
		AccountLabel: DefaultAccountLabel,
		TPPrice:      tpPrice,
		SLPrice:      slPrice,
		ExitStrategy: m.cfg.ExitStrategy,
	})
}

// ManualClose closes the position with the provided id at the given
// price, fetching the current price from the active source when none is
// provided. Closing an already-closed position is rejected by the broker
// without touching the recorded closing data.
func (m *Manager) ManualClose(ctx context.Context, id string, closePrice *float64) shared.CloseResult {
	pos, ok := m.cfg.Store.Fetch(id)
	if !ok {
		return shared.CloseResult{
			OK:     false,
			Reason: ReasonPositionNotFound,
		}
	}

	// Repeated closes return the existing record without refetching a
	// price.
	if pos.Status != shared.StatusOpen {
		return shared.CloseResult{
			OK:       false,
			Reason:   ReasonPositionNotOpen,
			Position: &pos,
		}
	}

	if closePrice == nil {
		price, err := m.currentPrice(ctx, pos.Symbol)
		if err != nil {
			m.cfg.Logger.Error().Err(err).Str("id", id).Str("symbol", pos.Symbol).
				Msg("rejecting close, no close price and no quote")
			return shared.CloseResult{
				OK:     false,
				Reason: ReasonPriceUnavailable,
			}
		}
		closePrice = shared.Float64(price)
	}

	return m.cfg.Broker.ClosePosition(ctx, &pos, closePrice, shared.CloseReasonManual)
}

// Stats summarizes the realized and open books.
type Stats struct {
	Open         int     `json:"open"`
	Closed       int     `json:"closed"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TPCloses     int     `json:"tp_closes"`
	SLCloses     int     `json:"sl_closes"`
	ManualCloses int     `json:"manual_closes"`
	TotalPNL     float64 `json:"total_pnl"`
	WinRate      float64 `json:"win_rate"`
	AvgPNL       float64 `json:"avg_pnl"`
	OMSActive    bool    `json:"oms_active"`
}

// Stats aggregates position counts, close reasons and realized pnl from
// the store.
func (m *Manager) Stats() Stats {
	stats := Stats{
		OMSActive: m.cfg.Enabled,
	}

	for _, pos := range m.cfg.Store.List(nil) {
		switch pos.Status {
		case shared.StatusOpen:
			stats.Open++
		case shared.StatusClosed:
			stats.Closed++
			switch pos.CloseReason {
			case shared.CloseReasonTP:
				stats.TPCloses++
			case shared.CloseReasonSL:
				stats.SLCloses++
			case shared.CloseReasonManual:
				stats.ManualCloses++
			}
			if pos.PNL != nil {
				stats.TotalPNL += *pos.PNL
				switch {
				case *pos.PNL > 0:
					stats.Wins++
				case *pos.PNL < 0:
					stats.Losses++
				}
			}
		}
	}

	if stats.Closed > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Closed)
		stats.AvgPNL = stats.TotalPNL / float64(stats.Closed)
	}

	return stats
}
