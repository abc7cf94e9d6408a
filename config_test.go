package main

import (
	"flag"
	"os"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid paper config",
			cfg: Config{
				BrokerMode:                "paper",
				QuoteTimeoutSecs:          5,
				WatchIntervalSecs:         3,
				MaxOpenPositions:          10,
				MaxOpenPositionsPerSymbol: 3,
				MaxSizePerPosition:        100000,
			},
			wantErr: nil,
		},
		{
			name: "valid live config",
			cfg: Config{
				BrokerMode:                "live",
				QuoteTimeoutSecs:          5,
				WatchIntervalSecs:         3,
				MaxOpenPositions:          10,
				MaxOpenPositionsPerSymbol: 3,
				MaxSizePerPosition:        100000,
			},
			wantErr: nil,
		},
		{
			name: "unknown broker mode",
			cfg: Config{
				BrokerMode:                "margin",
				QuoteTimeoutSecs:          5,
				WatchIntervalSecs:         3,
				MaxOpenPositions:          10,
				MaxOpenPositionsPerSymbol: 3,
				MaxSizePerPosition:        100000,
			},
			wantErr: []string{"broker mode must be paper or live"},
		},
		{
			name: "non-positive ceilings",
			cfg: Config{
				BrokerMode:                "paper",
				QuoteTimeoutSecs:          5,
				WatchIntervalSecs:         3,
				MaxOpenPositions:          0,
				MaxOpenPositionsPerSymbol: -1,
				MaxSizePerPosition:        0,
			},
			wantErr: []string{
				"max open positions cannot be 0",
				"max open positions per symbol cannot be -1",
				"max size per position cannot be",
			},
		},
		{
			name: "non-positive intervals",
			cfg: Config{
				BrokerMode:                "paper",
				QuoteTimeoutSecs:          0,
				WatchIntervalSecs:         -2,
				MaxOpenPositions:          10,
				MaxOpenPositionsPerSymbol: 3,
				MaxSizePerPosition:        100000,
			},
			wantErr: []string{
				"quote timeout cannot be 0 seconds",
				"watch interval cannot be -2 seconds",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:      "defaults only",
			env:       map[string]string{},
			args:      []string{"cmd"},
			expectErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.ListenAddr != ":8080" {
					t.Errorf("ListenAddr: got %v, want :8080", cfg.ListenAddr)
				}
				if cfg.BrokerMode != "paper" {
					t.Errorf("BrokerMode: got %v, want paper", cfg.BrokerMode)
				}
				if cfg.PriceSource != "simulator" {
					t.Errorf("PriceSource: got %v, want simulator", cfg.PriceSource)
				}
				if cfg.WatchIntervalSecs != 3 {
					t.Errorf("WatchIntervalSecs: got %v, want 3", cfg.WatchIntervalSecs)
				}
				if cfg.OMSEnabled {
					t.Errorf("OMSEnabled: got true, want false")
				}
			},
		},
		{
			name: "all from env",
			env: map[string]string{
				"brokermode":         "paper",
				"omsenabled":         "true",
				"pricesource":        "exchange",
				"priceexchange":      "bybit",
				"pricemode":          "mid",
				"watchintervalsecs":  "10",
				"maxsizeperposition": "2500.5",
			},
			args:      []string{"cmd"},
			expectErr: false,
			check: func(t *testing.T, cfg *Config) {
				if !cfg.OMSEnabled {
					t.Errorf("OMSEnabled: got false, want true")
				}
				if cfg.PriceSource != "exchange" {
					t.Errorf("PriceSource: got %v, want exchange", cfg.PriceSource)
				}
				if cfg.PriceExchange != "bybit" {
					t.Errorf("PriceExchange: got %v, want bybit", cfg.PriceExchange)
				}
				if cfg.WatchIntervalSecs != 10 {
					t.Errorf("WatchIntervalSecs: got %v, want 10", cfg.WatchIntervalSecs)
				}
				if cfg.MaxSizePerPosition != 2500.5 {
					t.Errorf("MaxSizePerPosition: got %v, want 2500.5", cfg.MaxSizePerPosition)
				}
			},
		},
		{
			name:      "all from flags",
			env:       map[string]string{},
			args:      []string{"cmd", "-brokermode=live", "-omsenabled=true", "-tiebreak=sl_first", "-maxopenpositions=7"},
			expectErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.BrokerMode != "live" {
					t.Errorf("BrokerMode: got %v, want live", cfg.BrokerMode)
				}
				if cfg.TieBreak != "sl_first" {
					t.Errorf("TieBreak: got %v, want sl_first", cfg.TieBreak)
				}
				if cfg.MaxOpenPositions != 7 {
					t.Errorf("MaxOpenPositions: got %v, want 7", cfg.MaxOpenPositions)
				}
			},
		},
		{
			name: "invalid broker mode",
			env: map[string]string{
				"brokermode": "margin",
			},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"broker mode must be paper or live"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Set environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Set command-line arguments
			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "") // don't load .env file

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if tt.check != nil {
					tt.check(t, &cfg)
				}
			}

			// Clean up env
			for k := range tt.env {
				os.Unsetenv(k)
			}
		})
	}
}
