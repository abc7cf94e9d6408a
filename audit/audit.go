package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TypeBounceSignal tags raw inbound bounce signal payloads.
const TypeBounceSignal = "bounce_signal"

// entry is a single journal line.
type entry struct {
	Type    string      `json:"type"`
	TS      string      `json:"ts"`
	Payload interface{} `json:"payload"`
}

// Journal is an append-only JSONL audit log. Every inbound signal is
// journaled before any processing so rejected and malformed requests
// remain reconstructable.
type Journal struct {
	mtx    sync.Mutex
	file   *os.File
	logger *zerolog.Logger
}

// NewJournal initializes a new audit journal at the provided path,
// creating parent directories as needed.
func NewJournal(path string, logger *zerolog.Logger) (*Journal, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit journal: %w", err)
	}

	return &Journal{
		file:   file,
		logger: logger,
	}, nil
}

// Record appends an entry of the provided type to the journal. Journal
// failures are logged, never propagated, auditing must not block signal
// processing.
func (j *Journal) Record(entryType string, payload interface{}) {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	line, err := json.Marshal(&entry{
		Type:    entryType,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Payload: payload,
	})
	if err != nil {
		j.logger.Error().Err(err).Str("type", entryType).
			Msg("marshaling audit entry failed")
		return
	}

	_, err = j.file.Write(append(line, '\n'))
	if err != nil {
		j.logger.Error().Err(err).Str("type", entryType).
			Msg("writing audit entry failed")
	}
}

// Close closes the underlying journal file.
func (j *Journal) Close() error {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	return j.file.Close()
}
