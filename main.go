package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/cryptonak/loms/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lomsCfg := service.LOMSConfig{
		ListenAddr:                cfg.ListenAddr,
		BrokerMode:                cfg.BrokerMode,
		OMSEnabled:                cfg.OMSEnabled,
		PriceSource:               cfg.PriceSource,
		PriceMode:                 cfg.PriceMode,
		PriceExchange:             cfg.PriceExchange,
		QuoteTimeout:              time.Duration(cfg.QuoteTimeoutSecs) * time.Second,
		WatchInterval:             time.Duration(cfg.WatchIntervalSecs) * time.Second,
		TieBreak:                  cfg.TieBreak,
		MaxOpenPositions:          cfg.MaxOpenPositions,
		MaxOpenPositionsPerSymbol: cfg.MaxOpenPositionsPerSymbol,
		MaxSizePerPosition:        cfg.MaxSizePerPosition,
		AuditPath:                 cfg.AuditPath,
		DBEndpoint:                cfg.DBEndpoint,
		DBUser:                    cfg.DBUser,
		DBPass:                    cfg.DBPass,
		Cancel:                    cancel,
	}
	loms, err := service.NewLOMS(ctx, &lomsCfg)
	if err != nil {
		log.Printf("creating loms service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	loms.Run(ctx)
}
