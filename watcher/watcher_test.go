package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/cryptonak/loms/broker"
	"github.com/cryptonak/loms/policy"
	"github.com/cryptonak/loms/position"
	"github.com/cryptonak/loms/shared"
	"github.com/go-co-op/gocron"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func testLogger() *zerolog.Logger {
	logger := log.With().Str("component", "watcher").Logger()
	return &logger
}

// stubSource serves a fixed last price, or a fixed error, counting the
// quote fetches it receives.
type stubSource struct {
	price   float64
	err     error
	fetches int
}

func (s *stubSource) Type() shared.PriceSourceType {
	return shared.SourceSimulator
}

func (s *stubSource) Quote(_ context.Context, symbol string) (*shared.PriceQuote, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return &shared.PriceQuote{
		Symbol: symbol,
		TS:     time.Now().UTC(),
		Last:   shared.Float64(s.price),
		Source: shared.SourceSimulator,
		Mode:   shared.ModeLast,
	}, nil
}

func noopPersist(_ context.Context, _ *shared.Position) error {
	return nil
}

type watcherHarness struct {
	store   *position.Store
	source  *stubSource
	watcher *Watcher
}

func newHarness(t *testing.T) *watcherHarness {
	t.Helper()

	logger := testLogger()
	store := position.NewStore()
	source := &stubSource{price: 100}

	sim, err := broker.NewPaperSim(&broker.PaperSimConfig{
		Store:                 store,
		PersistOpenedPosition: noopPersist,
		PersistClosedPosition: noopPersist,
		Logger:                logger,
	})
	assert.Nil(t, err)

	w, err := NewWatcher(&WatcherConfig{
		OpenPositions: store.Open,
		ResolveSource: func() shared.PriceSource { return source },
		ResolvePolicy: func(name string) shared.ExitPolicy {
			return policy.New(name, policy.TakeProfitFirst, logger)
		},
		Broker:       sim,
		Interval:     time.Second,
		JobScheduler: gocron.NewScheduler(time.UTC),
		Logger:       logger,
	})
	assert.Nil(t, err)

	return &watcherHarness{
		store:   store,
		source:  source,
		watcher: w,
	}
}

// addPosition seeds an open position created past the grace period.
func (h *watcherHarness) addPosition(symbol string, side shared.Side, tp *float64, sl *float64) *shared.Position {
	pos := position.New(shared.NewPositionParams{
		Symbol:       symbol,
		Side:         side,
		Qty:          1,
		EntryPrice:   100,
		TPPrice:      tp,
		SLPrice:      sl,
		ExitStrategy: policy.StaticName,
	}, time.Now().UTC().Add(-time.Minute))
	h.store.Add(pos)
	return pos
}

func TestWatcherConfigValidate(t *testing.T) {
	cfg := &WatcherConfig{}
	assert.NotNil(t, cfg.Validate())
}

func TestWatcherClampsInterval(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, time.Second, h.watcher.cfg.Interval)

	logger := testLogger()
	w, err := NewWatcher(&WatcherConfig{
		OpenPositions: h.store.Open,
		ResolveSource: func() shared.PriceSource { return h.source },
		ResolvePolicy: func(name string) shared.ExitPolicy {
			return policy.New(name, policy.TakeProfitFirst, logger)
		},
		Broker:       h.watcher.cfg.Broker,
		Interval:     100 * time.Millisecond,
		JobScheduler: gocron.NewScheduler(time.UTC),
		Logger:       logger,
	})
	assert.Nil(t, err)
	assert.Equal(t, minInterval, w.cfg.Interval)
}

func TestWatcherTickClosesTriggered(t *testing.T) {
	h := newHarness(t)

	long := h.addPosition("BTCUSDT", shared.Long, shared.Float64(105), shared.Float64(95))
	safe := h.addPosition("ETHUSDT", shared.Long, shared.Float64(200), shared.Float64(50))

	h.source.price = 106
	outcome := h.watcher.tick(context.Background())

	assert.Equal(t, 2, outcome.evaluated)
	assert.Equal(t, 1, outcome.closed)

	closed, _ := h.store.Fetch(long.ID)
	assert.Equal(t, shared.StatusClosed, closed.Status)
	assert.Equal(t, shared.CloseReasonTP, closed.CloseReason)
	assert.Equal(t, 106.0, *closed.ClosePrice)
	assert.Equal(t, 6.0, *closed.PNL)

	open, _ := h.store.Fetch(safe.ID)
	assert.Equal(t, shared.StatusOpen, open.Status)
}

func TestWatcherTickStopLoss(t *testing.T) {
	h := newHarness(t)

	pos := h.addPosition("BTCUSDT", shared.Long, shared.Float64(105), shared.Float64(95))

	h.source.price = 94
	outcome := h.watcher.tick(context.Background())
	assert.Equal(t, 1, outcome.closed)

	closed, _ := h.store.Fetch(pos.ID)
	assert.Equal(t, shared.CloseReasonSL, closed.CloseReason)
	assert.Equal(t, -6.0, *closed.PNL)
}

func TestWatcherGracePeriod(t *testing.T) {
	h := newHarness(t)

	// A freshly opened position is not evaluated even at a triggering
	// price.
	pos := position.New(shared.NewPositionParams{
		Symbol:       "BTCUSDT",
		Side:         shared.Long,
		Qty:          1,
		EntryPrice:   100,
		TPPrice:      shared.Float64(105),
		SLPrice:      shared.Float64(95),
		ExitStrategy: policy.StaticName,
	}, time.Now().UTC())
	h.store.Add(pos)

	h.source.price = 110
	outcome := h.watcher.tick(context.Background())

	assert.Equal(t, 0, outcome.evaluated)
	assert.Equal(t, 1, outcome.skipped)

	got, _ := h.store.Fetch(pos.ID)
	assert.Equal(t, shared.StatusOpen, got.Status)
}

func TestWatcherSkipsUnmanagedPositions(t *testing.T) {
	h := newHarness(t)

	// An aged position with neither tp nor sl is skipped without spending
	// a quote on it.
	unmanaged := h.addPosition("BTCUSDT", shared.Long, nil, nil)

	outcome := h.watcher.tick(context.Background())
	assert.Equal(t, 0, outcome.evaluated)
	assert.Equal(t, 1, outcome.skipped)
	assert.Equal(t, 0, h.source.fetches)

	got, _ := h.store.Fetch(unmanaged.ID)
	assert.Equal(t, shared.StatusOpen, got.Status)

	// A dead source does not turn the skip into a failure either.
	h.source.err = shared.NewPriceSourceError(shared.PriceErrNetwork, "BTCUSDT", shared.SourceSimulator.String(), "unreachable", nil)
	outcome = h.watcher.tick(context.Background())
	assert.Equal(t, 0, outcome.failed)
	assert.Equal(t, 1, outcome.skipped)
	assert.Equal(t, 0, h.source.fetches)

	// A managed position alongside it still gets its quote.
	h.source.err = nil
	h.addPosition("ETHUSDT", shared.Long, shared.Float64(200), shared.Float64(50))
	outcome = h.watcher.tick(context.Background())
	assert.Equal(t, 1, outcome.evaluated)
	assert.Equal(t, 1, outcome.skipped)
	assert.Equal(t, 1, h.source.fetches)
}

func TestWatcherQuoteFailureIsolation(t *testing.T) {
	h := newHarness(t)

	pos := h.addPosition("BTCUSDT", shared.Long, shared.Float64(105), shared.Float64(95))

	h.source.err = shared.NewPriceSourceError(shared.PriceErrNetwork, "BTCUSDT", shared.SourceSimulator.String(), "unreachable", nil)
	outcome := h.watcher.tick(context.Background())

	assert.Equal(t, 0, outcome.evaluated)
	assert.Equal(t, 1, outcome.failed)

	got, _ := h.store.Fetch(pos.ID)
	assert.Equal(t, shared.StatusOpen, got.Status)

	// The next tick with a healthy source proceeds normally.
	h.source.err = nil
	h.source.price = 106
	outcome = h.watcher.tick(context.Background())
	assert.Equal(t, 1, outcome.closed)
}

func TestWatcherEmptyStore(t *testing.T) {
	h := newHarness(t)

	outcome := h.watcher.tick(context.Background())
	assert.Equal(t, 0, outcome.evaluated)
	assert.Equal(t, 0, outcome.closed)
}
