package pricing

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// defaultBasePrice is the starting price for symbols without an
	// explicit base. Kept low so percentage TP/SL targets are reachable
	// within a few ticks.
	defaultBasePrice = 100.0
	// defaultMaxVariation bounds the random perturbation around the base.
	defaultMaxVariation = 10.0
)

// GeneratorConfig represents the configuration for the price generator.
type GeneratorConfig struct {
	// BasePrice is the starting price for all symbols.
	BasePrice float64
	// MaxVariation bounds the random perturbation applied per fetch.
	MaxVariation float64
	// Seed seeds the generator's random state. Zero seeds from the clock.
	Seed int64
}

// Generator produces simulated prices as a base value plus a bounded
// random perturbation. It carries its own random state and per-symbol
// bases, it is passed in by dependency rather than shared as ambient
// state.
type Generator struct {
	cfg   *GeneratorConfig
	mtx   sync.Mutex
	rng   *rand.Rand
	bases map[string]float64
}

// NewGenerator initializes a new price generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	if cfg.BasePrice == 0 {
		cfg.BasePrice = defaultBasePrice
	}
	if cfg.MaxVariation == 0 {
		cfg.MaxVariation = defaultMaxVariation
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		bases: make(map[string]float64),
	}
}

// SetBasePrice overrides the base price for the provided symbol.
func (g *Generator) SetBasePrice(symbol string, price float64) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.bases[symbol] = price
}

// BasePrice returns the current base price for the provided symbol.
func (g *Generator) BasePrice(symbol string) float64 {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	base, ok := g.bases[symbol]
	if !ok {
		base = g.cfg.BasePrice
	}
	return base
}

// Price generates a price for the provided symbol.
func (g *Generator) Price(symbol string) (float64, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	base, ok := g.bases[symbol]
	if !ok {
		base = g.cfg.BasePrice
	}

	variation := (g.rng.Float64()*2 - 1) * g.cfg.MaxVariation
	price := base + variation

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("generated non-finite price for %s (base=%v)", symbol, base)
	}

	return price, nil
}
