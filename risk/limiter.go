package risk

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Rejection reasons surfaced to callers and audit logs.
const (
	ReasonMaxTotalOpen  = "max_total_open_reached"
	ReasonMaxSymbolOpen = "max_symbol_open_reached"
	ReasonMaxSize       = "max_size_per_position_exceeded"
)

// LimiterConfig represents the risk limiter configuration.
type LimiterConfig struct {
	// MaxOpenPositions is the ceiling on concurrently open positions
	// across all symbols.
	MaxOpenPositions int
	// MaxOpenPositionsPerSymbol is the ceiling on concurrently open
	// positions for a single symbol.
	MaxOpenPositionsPerSymbol int
	// MaxSizePerPosition is the ceiling on a single position's notional
	// (entry price * quantity).
	MaxSizePerPosition float64
	// CountOpen returns the number of currently open positions.
	CountOpen func() int
	// CountOpenBySymbol returns the number of currently open positions
	// for the provided symbol.
	CountOpenBySymbol func(symbol string) int
	// Logger is the limiter logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sanely checks all its expected values.
func (cfg *LimiterConfig) Validate() error {
	var errs error

	if cfg.MaxOpenPositions <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max open positions cannot be %d", cfg.MaxOpenPositions))
	}
	if cfg.MaxOpenPositionsPerSymbol <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max open positions per symbol cannot be %d", cfg.MaxOpenPositionsPerSymbol))
	}
	if cfg.MaxSizePerPosition <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max size per position cannot be %f", cfg.MaxSizePerPosition))
	}
	if cfg.CountOpen == nil {
		errs = errors.Join(errs, errors.New("count open function cannot be nil"))
	}
	if cfg.CountOpenBySymbol == nil {
		errs = errors.Join(errs, errors.New("count open by symbol function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, errors.New("logger cannot be nil"))
	}

	return errs
}

// Limiter gates new position opens against configured exposure ceilings.
//
// A check is advisory: it reads counters at call time and is not
// serialized with the subsequent open, so concurrent admissions can race
// past a ceiling by the number of in-flight opens. Acceptable for paper
// trading, a live deployment would reserve capacity under a lock.
type Limiter struct {
	cfg *LimiterConfig
}

// NewLimiter initializes a new risk limiter.
func NewLimiter(cfg *LimiterConfig) (*Limiter, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Limiter{
		cfg: cfg,
	}, nil
}

// Check reports whether a new position for the provided symbol and terms
// is admissible. The checks run in a fixed order (total count, per-symbol
// count, size) and the first violated ceiling's reason is returned.
func (l *Limiter) Check(symbol string, entryPrice float64, qty float64) (bool, string) {
	if l.cfg.CountOpen() >= l.cfg.MaxOpenPositions {
		l.cfg.Logger.Info().Str("symbol", symbol).
			Int("max_open_positions", l.cfg.MaxOpenPositions).
			Msg("rejecting signal, total open position ceiling reached")
		return false, ReasonMaxTotalOpen
	}

	if l.cfg.CountOpenBySymbol(symbol) >= l.cfg.MaxOpenPositionsPerSymbol {
		l.cfg.Logger.Info().Str("symbol", symbol).
			Int("max_open_positions_per_symbol", l.cfg.MaxOpenPositionsPerSymbol).
			Msg("rejecting signal, per-symbol open position ceiling reached")
		return false, ReasonMaxSymbolOpen
	}

	// The notional ceiling is inclusive, an exactly-equal notional passes.
	notional := entryPrice * qty
	if notional > l.cfg.MaxSizePerPosition {
		l.cfg.Logger.Info().Str("symbol", symbol).
			Float64("notional", notional).
			Float64("max_size_per_position", l.cfg.MaxSizePerPosition).
			Msg("rejecting signal, position size ceiling exceeded")
		return false, ReasonMaxSize
	}

	return true, ""
}
