package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
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
	// QuoteTimeoutSecs bounds a single quote fetch, in seconds.
	QuoteTimeoutSecs int
	// WatchIntervalSecs is the delay between position watch ticks, in
	// seconds.
	WatchIntervalSecs int
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
	// DBEndpoint represents the database connection endpoint.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string

	registeredFlags map[string]bool
}

// applyDefaults fills unset fields with paper trading defaults.
func (cfg *Config) applyDefaults() {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.BrokerMode == "" {
		cfg.BrokerMode = "paper"
	}
	if cfg.PriceSource == "" {
		cfg.PriceSource = "simulator"
	}
	if cfg.PriceMode == "" {
		cfg.PriceMode = "last"
	}
	if cfg.PriceExchange == "" {
		cfg.PriceExchange = "dummy"
	}
	if cfg.QuoteTimeoutSecs == 0 {
		cfg.QuoteTimeoutSecs = 5
	}
	if cfg.WatchIntervalSecs == 0 {
		cfg.WatchIntervalSecs = 3
	}
	if cfg.MaxOpenPositions == 0 {
		cfg.MaxOpenPositions = 10
	}
	if cfg.MaxOpenPositionsPerSymbol == 0 {
		cfg.MaxOpenPositionsPerSymbol = 3
	}
	if cfg.MaxSizePerPosition == 0 {
		cfg.MaxSizePerPosition = 100000
	}
	if cfg.AuditPath == "" {
		cfg.AuditPath = "signals.jsonl"
	}
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.BrokerMode != "paper" && cfg.BrokerMode != "live" {
		errs = errors.Join(errs, fmt.Errorf("broker mode must be paper or live, got %q", cfg.BrokerMode))
	}
	if cfg.QuoteTimeoutSecs <= 0 {
		errs = errors.Join(errs, fmt.Errorf("quote timeout cannot be %d seconds", cfg.QuoteTimeoutSecs))
	}
	if cfg.WatchIntervalSecs <= 0 {
		errs = errors.Join(errs, fmt.Errorf("watch interval cannot be %d seconds", cfg.WatchIntervalSecs))
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

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"listenaddr", &cfg.ListenAddr, "the http listen address"},
		{"brokermode", &cfg.BrokerMode, "the broker execution mode (paper or live)"},
		{"omsenabled", &cfg.OMSEnabled, "the signal processing kill switch"},
		{"pricesource", &cfg.PriceSource, "the price source variant (simulator, exchange or replay)"},
		{"pricemode", &cfg.PriceMode, "the quote field for exchange prices (last, bid, ask, mid or mark)"},
		{"priceexchange", &cfg.PriceExchange, "the exchange ticker backend (dummy, bybit or bitget)"},
		{"quotetimeoutsecs", &cfg.QuoteTimeoutSecs, "the quote fetch timeout in seconds"},
		{"watchintervalsecs", &cfg.WatchIntervalSecs, "the position watch interval in seconds"},
		{"tiebreak", &cfg.TieBreak, "the exit trigger tie break (tp_first or sl_first)"},
		{"maxopenpositions", &cfg.MaxOpenPositions, "the total open position ceiling"},
		{"maxopenpositionspersymbol", &cfg.MaxOpenPositionsPerSymbol, "the per-symbol open position ceiling"},
		{"maxsizeperposition", &cfg.MaxSizePerPosition, "the per-position notional ceiling"},
		{"auditpath", &cfg.AuditPath, "the filepath of the signal audit journal"},
		{"dbendpoint", &cfg.DBEndpoint, "the database connection endpoint"},
		{"dbuser", &cfg.DBUser, "the database user"},
		{"dbpass", &cfg.DBPass, "the database user pass"},
	}
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	cfg.applyDefaults()

	return cfg.Validate()
}
