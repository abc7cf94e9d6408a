package pricing

import (
	"fmt"

	"github.com/cryptonak/loms/shared"
)

// SourceConfig represents the configuration for the price source factory.
type SourceConfig struct {
	// Type selects the source variant.
	Type shared.PriceSourceType
	// Generator backs the simulated source.
	Generator *Generator
	// Client backs the exchange source.
	Client shared.TickerClient
	// Mode is the quote field mode tagged on exchange quotes.
	Mode shared.PriceMode
}

// NewSource resolves the concrete price source for the provided
// configuration. This is the only place source selection occurs.
func NewSource(cfg *SourceConfig) (shared.PriceSource, error) {
	switch cfg.Type {
	case shared.SourceSimulator:
		if cfg.Generator == nil {
			return nil, fmt.Errorf("simulated price source requires a generator")
		}
		return NewSimulatedSource(cfg.Generator), nil
	case shared.SourceExchange:
		if cfg.Client == nil {
			return nil, fmt.Errorf("exchange price source requires a ticker client")
		}
		return NewExchangeSource(cfg.Client, cfg.Mode), nil
	case shared.SourceReplay:
		return NewReplaySource(), nil
	default:
		return nil, fmt.Errorf("unknown price source type: %d", cfg.Type)
	}
}
