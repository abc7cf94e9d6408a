package policy

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func testLogger() *zerolog.Logger {
	logger := log.With().Str("component", "policy").Logger()
	return &logger
}
