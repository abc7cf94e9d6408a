package pricing

import (
	"context"
	"time"

	"github.com/cryptonak/loms/shared"
)

// SimulatedSource is a price source backed by a local price generator. It
// always succeeds unless the generator itself errors.
type SimulatedSource struct {
	gen *Generator
}

// Ensure the simulated source implements the PriceSource interface.
var _ shared.PriceSource = (*SimulatedSource)(nil)

// NewSimulatedSource initializes a new simulated price source.
func NewSimulatedSource(gen *Generator) *SimulatedSource {
	return &SimulatedSource{
		gen: gen,
	}
}

// Type reports the source variant.
func (s *SimulatedSource) Type() shared.PriceSourceType {
	return shared.SourceSimulator
}

// Quote fetches a simulated quote for the provided symbol.
func (s *SimulatedSource) Quote(_ context.Context, symbol string) (*shared.PriceQuote, error) {
	price, err := s.gen.Price(symbol)
	if err != nil {
		return nil, shared.NewPriceSourceError(shared.PriceErrMalformed, symbol,
			shared.SourceSimulator.String(), "generating price", err)
	}

	return &shared.PriceQuote{
		Symbol: symbol,
		TS:     time.Now().UTC(),
		Last:   shared.Float64(price),
		Source: shared.SourceSimulator,
		Mode:   shared.ModeLast,
	}, nil
}
