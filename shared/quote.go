package shared

import (
	"fmt"
	"time"
)

// PriceSourceType represents where quotes come from.
type PriceSourceType int

const (
	// SourceSimulator generates prices locally (pure paper).
	SourceSimulator PriceSourceType = iota
	// SourceExchange pulls real prices from an exchange ticker endpoint.
	SourceExchange
	// SourceReplay reproduces prices from a historical feed. Recognized but
	// not implemented yet, it exists so configuration validation and
	// logging can name it correctly.
	SourceReplay
)

// String stringifies the provided price source type.
func (t PriceSourceType) String() string {
	switch t {
	case SourceSimulator:
		return "simulator"
	case SourceExchange:
		return "exchange"
	case SourceReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// ParsePriceSourceType parses a price source type from its string form.
func ParsePriceSourceType(raw string) (PriceSourceType, error) {
	switch raw {
	case "simulator":
		return SourceSimulator, nil
	case "exchange":
		return SourceExchange, nil
	case "replay":
		return SourceReplay, nil
	default:
		return SourceSimulator, fmt.Errorf("unknown price source type: %q", raw)
	}
}

// PriceMode represents which quote field to use for TP/SL and PnL.
type PriceMode int

const (
	ModeLast PriceMode = iota
	ModeBid
	ModeAsk
	ModeMid
	ModeMark
)

// String stringifies the provided price mode.
func (m PriceMode) String() string {
	switch m {
	case ModeLast:
		return "last"
	case ModeBid:
		return "bid"
	case ModeAsk:
		return "ask"
	case ModeMid:
		return "mid"
	case ModeMark:
		return "mark"
	default:
		return "unknown"
	}
}

// ParsePriceMode parses a price mode from its string form.
func ParsePriceMode(raw string) (PriceMode, error) {
	switch raw {
	case "last":
		return ModeLast, nil
	case "bid":
		return ModeBid, nil
	case "ask":
		return ModeAsk, nil
	case "mid":
		return ModeMid, nil
	case "mark":
		return ModeMark, nil
	default:
		return ModeLast, fmt.Errorf("unknown price mode: %q", raw)
	}
}

// PriceQuote is a standardized quote for a symbol, immutable once
// constructed. Source and mode tags are carried for diagnostics.
type PriceQuote struct {
	Symbol string
	TS     time.Time

	Bid  *float64
	Ask  *float64
	Last *float64
	Mark *float64

	Source PriceSourceType
	Mode   PriceMode
}

// Mid returns (bid+ask)/2 when both are present.
func (q *PriceQuote) Mid() (float64, bool) {
	if q.Bid == nil || q.Ask == nil {
		return 0, false
	}
	return (*q.Bid + *q.Ask) / 2, true
}

// SelectPrice extracts exactly one numeric field from the quote per the
// requested mode. A missing required field is a hard failure rather than a
// silent substitution, protecting exit and pnl computation from acting on
// undefined prices.
func SelectPrice(quote *PriceQuote, mode PriceMode) (float64, error) {
	switch mode {
	case ModeLast:
		if quote.Last == nil {
			return 0, fmt.Errorf("quote for %s has no last price", quote.Symbol)
		}
		return *quote.Last, nil
	case ModeBid:
		if quote.Bid == nil {
			return 0, fmt.Errorf("quote for %s has no bid price", quote.Symbol)
		}
		return *quote.Bid, nil
	case ModeAsk:
		if quote.Ask == nil {
			return 0, fmt.Errorf("quote for %s has no ask price", quote.Symbol)
		}
		return *quote.Ask, nil
	case ModeMark:
		if quote.Mark == nil {
			return 0, fmt.Errorf("quote for %s has no mark price", quote.Symbol)
		}
		return *quote.Mark, nil
	case ModeMid:
		mid, ok := quote.Mid()
		if !ok {
			return 0, fmt.Errorf("quote for %s has no mid price (bid/ask missing)", quote.Symbol)
		}
		return mid, nil
	default:
		return 0, fmt.Errorf("unsupported price mode: %d", mode)
	}
}

// Float64 returns a pointer to the provided float. Convenience for the
// optional quote and position fields.
func Float64(v float64) *float64 {
	return &v
}
