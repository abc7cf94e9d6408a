package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cryptonak/loms/api"
	"github.com/cryptonak/loms/audit"
	"github.com/cryptonak/loms/broker"
	"github.com/cryptonak/loms/database"
	"github.com/cryptonak/loms/fetch"
	"github.com/cryptonak/loms/oms"
	"github.com/cryptonak/loms/policy"
	"github.com/cryptonak/loms/position"
	"github.com/cryptonak/loms/pricing"
	"github.com/cryptonak/loms/risk"
	"github.com/cryptonak/loms/shared"
	"github.com/cryptonak/loms/watcher"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// LOMSConfig represents the configuration struct for the order
// management service.
type LOMSConfig struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string
	// BrokerMode selects the execution adapter, paper or live.
	BrokerMode string
	// OMSEnabled is the signal processing kill switch.
	OMSEnabled bool
	// PriceSource selects the price source variant.
	PriceSource string
	// PriceMode selects the quote field used for exchange prices.
	PriceMode string
	// PriceExchange selects the exchange ticker backend.
	PriceExchange string
	// QuoteTimeout bounds a single quote fetch.
	QuoteTimeout time.Duration
	// WatchInterval is the delay between position watch ticks.
	WatchInterval time.Duration
	// TieBreak resolves simultaneous exit triggers, tp_first or sl_first.
	TieBreak string
	// MaxOpenPositions is the total open position ceiling.
	MaxOpenPositions int
	// MaxOpenPositionsPerSymbol is the per-symbol open position ceiling.
	MaxOpenPositionsPerSymbol int
	// MaxSizePerPosition is the per-position notional ceiling.
	MaxSizePerPosition float64
	// AuditPath is the filepath of the signal audit journal.
	AuditPath string
	// DBEndpoint represents the database connection endpoint, position
	// journaling is disabled when empty.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *LOMSConfig) Validate() error {
	var errs error

	if cfg.ListenAddr == "" {
		errs = errors.Join(errs, fmt.Errorf("listen address cannot be an empty string"))
	}
	if cfg.BrokerMode == "" {
		errs = errors.Join(errs, fmt.Errorf("broker mode cannot be an empty string"))
	}
	if cfg.AuditPath == "" {
		errs = errors.Join(errs, fmt.Errorf("audit path cannot be an empty string"))
	}
	if cfg.WatchInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("watch interval cannot be %s", cfg.WatchInterval))
	}
	if cfg.MaxOpenPositions <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max open positions cannot be %d", cfg.MaxOpenPositions))
	}
	if cfg.MaxOpenPositionsPerSymbol <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max open positions per symbol cannot be %d", cfg.MaxOpenPositionsPerSymbol))
	}
	if cfg.MaxSizePerPosition <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max size per position cannot be %f", cfg.MaxSizePerPosition))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// parseTieBreak resolves the configured tie break policy, defaulting to
// take profit first.
func parseTieBreak(raw string, logger *zerolog.Logger) policy.TieBreak {
	switch raw {
	case "sl_first":
		return policy.StopLossFirst
	case "tp_first", "":
		return policy.TakeProfitFirst
	default:
		logger.Warn().Str("tie_break", raw).
			Msg("unknown tie break, defaulting to tp_first")
		return policy.TakeProfitFirst
	}
}

// LOMS represents the paper trading order management service.
type LOMS struct {
	cfg     *LOMSConfig
	store   *position.Store
	journal *audit.Journal
	db      *database.Database
	manager *oms.Manager
	watcher *watcher.Watcher
	server  *http.Server
	logger  *zerolog.Logger
	wg      sync.WaitGroup
}

// NewLOMS initializes a new order management service.
func NewLOMS(ctx context.Context, cfg *LOMSConfig) (*LOMS, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "loms").Logger()

	store := position.NewStore()

	auditLogger := logger.With().Str("component", "audit").Logger()
	journal, err := audit.NewJournal(cfg.AuditPath, &auditLogger)
	if err != nil {
		return nil, fmt.Errorf("creating audit journal: %v", err)
	}

	var db *database.Database
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err = database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %v", err)
		}
	} else {
		logger.Warn().Msg("no database endpoint configured, position journaling disabled")
	}

	persistOpened := func(ctx context.Context, pos *shared.Position) error {
		if db == nil {
			return nil
		}
		return db.RecordOpenedPosition(ctx, pos)
	}
	persistClosed := func(ctx context.Context, pos *shared.Position) error {
		if db == nil {
			return nil
		}
		return db.RecordClosedPosition(ctx, pos)
	}

	sourceType, err := shared.ParsePriceSourceType(cfg.PriceSource)
	if err != nil {
		return nil, fmt.Errorf("parsing price source: %v", err)
	}
	priceMode, err := shared.ParsePriceMode(cfg.PriceMode)
	if err != nil {
		return nil, fmt.Errorf("parsing price mode: %v", err)
	}

	var generator *pricing.Generator
	var tickerClient shared.TickerClient
	switch sourceType {
	case shared.SourceSimulator:
		generator = pricing.NewGenerator(&pricing.GeneratorConfig{})
	case shared.SourceExchange:
		fetchLogger := logger.With().Str("component", "fetch").Logger()
		tickerClient = fetch.NewTickerClient(cfg.PriceExchange, cfg.QuoteTimeout, &fetchLogger)
	}

	source, err := pricing.NewSource(&pricing.SourceConfig{
		Type:      sourceType,
		Generator: generator,
		Client:    tickerClient,
		Mode:      priceMode,
	})
	if err != nil {
		return nil, fmt.Errorf("creating price source: %v", err)
	}
	resolveSource := func() shared.PriceSource { return source }

	brokerLogger := logger.With().Str("component", "broker").Logger()
	adapter, err := broker.NewAdapter(cfg.BrokerMode, &broker.PaperSimConfig{
		Store:                 store,
		PersistOpenedPosition: persistOpened,
		PersistClosedPosition: persistClosed,
		Logger:                &brokerLogger,
	}, &brokerLogger)
	if err != nil {
		return nil, fmt.Errorf("creating broker adapter: %v", err)
	}

	riskLogger := logger.With().Str("component", "risk").Logger()
	limiter, err := risk.NewLimiter(&risk.LimiterConfig{
		MaxOpenPositions:          cfg.MaxOpenPositions,
		MaxOpenPositionsPerSymbol: cfg.MaxOpenPositionsPerSymbol,
		MaxSizePerPosition:        cfg.MaxSizePerPosition,
		CountOpen:                 store.CountOpen,
		CountOpenBySymbol:         store.CountOpenBySymbol,
		Logger:                    &riskLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating risk limiter: %v", err)
	}

	omsLogger := logger.With().Str("component", "oms").Logger()
	manager, err := oms.NewManager(&oms.ManagerConfig{
		Enabled:       cfg.OMSEnabled,
		ExitStrategy:  policy.StaticName,
		Store:         store,
		Broker:        adapter,
		Limiter:       limiter,
		ResolveSource: resolveSource,
		Journal:       journal,
		Logger:        &omsLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating order manager: %v", err)
	}

	policyLogger := logger.With().Str("component", "policy").Logger()
	tieBreak := parseTieBreak(cfg.TieBreak, &policyLogger)
	resolvePolicy := func(name string) shared.ExitPolicy {
		return policy.New(name, tieBreak, &policyLogger)
	}

	watcherLogger := logger.With().Str("component", "watcher").Logger()
	positionWatcher, err := watcher.NewWatcher(&watcher.WatcherConfig{
		OpenPositions: store.Open,
		ResolveSource: resolveSource,
		ResolvePolicy: resolvePolicy,
		Broker:        adapter,
		Interval:      cfg.WatchInterval,
		QuoteTimeout:  cfg.QuoteTimeout,
		JobScheduler:  gocron.NewScheduler(time.UTC),
		Logger:        &watcherLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating position watcher: %v", err)
	}

	apiLogger := logger.With().Str("component", "api").Logger()
	handler := api.NewHandler(&api.HandlerConfig{
		Manager:       manager,
		Store:         store,
		Generator:     generator,
		ResolveSource: resolveSource,
		Journal:       journal,
		Logger:        &apiLogger,
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.SetupRoutes(handler),
	}

	service := &LOMS{
		cfg:     cfg,
		store:   store,
		journal: journal,
		db:      db,
		manager: manager,
		watcher: positionWatcher,
		server:  server,
		logger:  &logger,
	}

	return service, nil
}

// Run handles the lifecycle processes of the order management service.
func (s *LOMS) Run(ctx context.Context) {
	s.wg.Add(3)

	go func() {
		defer s.wg.Done()
		err := s.watcher.Run(ctx)
		if err != nil {
			s.logger.Error().Msgf("running position watcher: %v", err)
			s.cfg.Cancel()
		}
	}()

	go func() {
		defer s.wg.Done()
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("http server listening")
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Msgf("running http server: %v", err)
			s.cfg.Cancel()
		}
	}()

	go func() {
		defer s.wg.Done()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		err := s.server.Shutdown(shutdownCtx)
		if err != nil {
			s.logger.Error().Msgf("shutting down http server: %v", err)
		}

		err = s.journal.Close()
		if err != nil {
			s.logger.Error().Msgf("closing audit journal: %v", err)
		}
	}()

	s.wg.Wait()
}
