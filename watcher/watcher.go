package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cryptonak/loms/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

const (
	// gracePeriod is how long a freshly opened position is exempt from
	// exit evaluation, shielding it from closing on the same price move
	// that produced the entry signal.
	gracePeriod = 7 * time.Second
	// minInterval is the floor for the watch interval.
	minInterval = time.Second
	// defaultQuoteTimeout bounds a single quote fetch.
	defaultQuoteTimeout = 5 * time.Second
)

// WatcherConfig represents the position watcher configuration.
type WatcherConfig struct {
	// OpenPositions returns a snapshot of the currently open positions.
	OpenPositions func() []shared.Position
	// ResolveSource returns the active price source. It is resolved once
	// per tick so the source can be swapped at runtime.
	ResolveSource func() shared.PriceSource
	// ResolvePolicy returns the exit policy for the provided strategy
	// name.
	ResolvePolicy func(name string) shared.ExitPolicy
	// Broker is the execution adapter used to close triggered positions.
	Broker shared.BrokerAdapter
	// Interval is the delay between watch ticks.
	Interval time.Duration
	// QuoteTimeout bounds a single quote fetch, defaulted when unset.
	QuoteTimeout time.Duration
	// JobScheduler is the job scheduler driving the watch loop.
	JobScheduler *gocron.Scheduler
	// Logger is the watcher logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sanely checks all its expected values.
func (cfg *WatcherConfig) Validate() error {
	var errs error

	if cfg.OpenPositions == nil {
		errs = errors.Join(errs, errors.New("open positions function cannot be nil"))
	}
	if cfg.ResolveSource == nil {
		errs = errors.Join(errs, errors.New("resolve source function cannot be nil"))
	}
	if cfg.ResolvePolicy == nil {
		errs = errors.Join(errs, errors.New("resolve policy function cannot be nil"))
	}
	if cfg.Broker == nil {
		errs = errors.Join(errs, errors.New("broker adapter cannot be nil"))
	}
	if cfg.Interval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("watch interval cannot be %s", cfg.Interval))
	}
	if cfg.JobScheduler == nil {
		errs = errors.Join(errs, errors.New("job scheduler cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, errors.New("logger cannot be nil"))
	}

	return errs
}

// tickOutcome tallies the per-position results of a single tick.
type tickOutcome struct {
	evaluated int
	closed    int
	skipped   int
	failed    int
}

// Watcher periodically evaluates open positions against fresh prices and
// closes the ones whose exit policy triggers. A failure on one position
// never prevents the evaluation of the rest.
type Watcher struct {
	cfg *WatcherConfig
}

// NewWatcher initializes a new position watcher.
func NewWatcher(cfg *WatcherConfig) (*Watcher, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if cfg.Interval < minInterval {
		cfg.Logger.Warn().Dur("interval", cfg.Interval).
			Dur("min_interval", minInterval).
			Msg("watch interval below the floor, clamping")
		cfg.Interval = minInterval
	}
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = defaultQuoteTimeout
	}

	return &Watcher{
		cfg: cfg,
	}, nil
}

// fetchQuote fetches a bounded quote for the provided symbol.
func (w *Watcher) fetchQuote(ctx context.Context, source shared.PriceSource, symbol string) (*shared.PriceQuote, error) {
	qctx, cancel := context.WithTimeout(ctx, w.cfg.QuoteTimeout)
	defer cancel()

	return source.Quote(qctx, symbol)
}

// tick runs a single evaluation pass over the open positions. Quotes are
// fetched once per symbol, the price source is resolved once for the
// whole pass.
func (w *Watcher) tick(ctx context.Context) tickOutcome {
	var outcome tickOutcome

	positions := w.cfg.OpenPositions()
	if len(positions) == 0 {
		return outcome
	}

	source := w.cfg.ResolveSource()
	now := time.Now().UTC()

	type cachedQuote struct {
		quote *shared.PriceQuote
		err   error
	}
	quotes := make(map[string]cachedQuote)

	for idx := range positions {
		pos := &positions[idx]

		if pos.Age(now) < gracePeriod {
			outcome.skipped++
			continue
		}

		// Positions with neither tp nor sl have nothing to evaluate, no
		// quote is spent on them.
		if !pos.Managed() {
			outcome.skipped++
			continue
		}

		cached, ok := quotes[pos.Symbol]
		if !ok {
			quote, err := w.fetchQuote(ctx, source, pos.Symbol)
			cached = cachedQuote{quote: quote, err: err}
			quotes[pos.Symbol] = cached
		}
		if cached.err != nil {
			w.cfg.Logger.Warn().Err(cached.err).Str("symbol", pos.Symbol).
				Str("id", pos.ID).Msg("skipping position, quote unavailable")
			outcome.failed++
			continue
		}

		price, err := shared.SelectPrice(cached.quote, cached.quote.Mode)
		if err != nil {
			w.cfg.Logger.Warn().Err(err).Str("symbol", pos.Symbol).
				Str("id", pos.ID).Msg("skipping position, no usable price")
			outcome.failed++
			continue
		}

		outcome.evaluated++

		policy := w.cfg.ResolvePolicy(pos.ExitStrategy)
		actions := policy.Evaluate(pos, shared.ExitContext{
			Price: price,
			Quote: cached.quote,
			Now:   now,
		})

		for _, action := range actions {
			if action.Type != shared.ClosePosition {
				// Adjustment actions are accepted by the contract but not
				// produced by the static policy yet.
				w.cfg.Logger.Warn().Str("id", pos.ID).
					Str("action", action.Type.String()).
					Msg("ignoring unsupported exit action")
				continue
			}

			res := w.cfg.Broker.ClosePosition(ctx, pos, shared.Float64(price), action.CloseReason)
			if !res.OK {
				// Losing the close race to a manual close is expected.
				w.cfg.Logger.Info().Str("id", pos.ID).Str("reason", res.Reason).
					Msg("close request rejected")
				outcome.failed++
				continue
			}

			w.cfg.Logger.Info().Str("id", pos.ID).Str("symbol", pos.Symbol).
				Str("close_reason", action.CloseReason).Float64("price", price).
				Float64("pnl", *res.Position.PNL).Msg("auto-closed position")
			outcome.closed++
		}
	}

	return outcome
}

// Run starts the watch loop, blocking until the provided context is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	_, err := w.cfg.JobScheduler.Every(w.cfg.Interval).Do(func() {
		outcome := w.tick(ctx)
		if outcome.evaluated > 0 || outcome.failed > 0 {
			w.cfg.Logger.Debug().Int("evaluated", outcome.evaluated).
				Int("closed", outcome.closed).Int("skipped", outcome.skipped).
				Int("failed", outcome.failed).Msg("watch tick complete")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling watch job: %w", err)
	}

	w.cfg.JobScheduler.StartAsync()

	<-ctx.Done()
	w.cfg.JobScheduler.Stop()

	return nil
}
