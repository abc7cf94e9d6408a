package pricing

import (
	"context"

	"github.com/cryptonak/loms/shared"
)

// ReplaySource is the historical replay price source. It is a recognized
// variant of the source family but its behavior is absent, every call
// fails with an unsupported price source error.
type ReplaySource struct{}

// Ensure the replay source implements the PriceSource interface.
var _ shared.PriceSource = (*ReplaySource)(nil)

// NewReplaySource initializes a new replay price source.
func NewReplaySource() *ReplaySource {
	return &ReplaySource{}
}

// Type reports the source variant.
func (s *ReplaySource) Type() shared.PriceSourceType {
	return shared.SourceReplay
}

// Quote always fails, the replay feed is not implemented.
func (s *ReplaySource) Quote(_ context.Context, symbol string) (*shared.PriceQuote, error) {
	return nil, shared.NewPriceSourceError(shared.PriceErrUnsupported, symbol,
		shared.SourceReplay.String(), "replay price source is not implemented", nil)
}
