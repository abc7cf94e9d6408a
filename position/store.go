package position

import (
	"fmt"
	"sync"
	"time"

	"github.com/cryptonak/loms/shared"
	"github.com/google/uuid"
)

// New initializes a new open position from the provided parameters.
func New(params shared.NewPositionParams, now time.Time) *shared.Position {
	return &shared.Position{
		ID:           uuid.New().String(),
		Symbol:       params.Symbol,
		Exchange:     params.Exchange,
		MarketType:   params.MarketType,
		AccountLabel: params.AccountLabel,
		Side:         params.Side,
		Qty:          params.Qty,
		EntryPrice:   params.EntryPrice,
		TPPrice:      params.TPPrice,
		SLPrice:      params.SLPrice,
		ExitStrategy: params.ExitStrategy,
		Status:       shared.StatusOpen,
		CreatedOn:    now,
	}
}

// Store is the in-memory position store, the single shared mutable
// resource of the order management core. It hands out value copies, live
// records are only mutated through the store itself so the status guard
// and the closing data update stay atomic.
type Store struct {
	mtx       sync.RWMutex
	positions map[string]*shared.Position
	// order preserves insertion order for stable snapshots.
	order []string
}

// NewStore initializes a new position store.
func NewStore() *Store {
	return &Store{
		positions: make(map[string]*shared.Position),
		order:     make([]string, 0),
	}
}

// Add registers the provided position with the store.
func (s *Store) Add(pos *shared.Position) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.positions[pos.ID]; !ok {
		s.order = append(s.order, pos.ID)
	}
	cp := *pos
	s.positions[pos.ID] = &cp
}

// Fetch returns a copy of the position with the provided id.
func (s *Store) Fetch(id string) (shared.Position, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	pos, ok := s.positions[id]
	if !ok {
		return shared.Position{}, false
	}
	return *pos, true
}

// Open returns copies of all currently open positions in insertion order.
func (s *Store) Open() []shared.Position {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	open := make([]shared.Position, 0, len(s.order))
	for _, id := range s.order {
		pos := s.positions[id]
		if pos.Status == shared.StatusOpen {
			open = append(open, *pos)
		}
	}
	return open
}

// List returns copies of positions, optionally filtered by status.
func (s *Store) List(status *shared.PositionStatus) []shared.Position {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	list := make([]shared.Position, 0, len(s.order))
	for _, id := range s.order {
		pos := s.positions[id]
		if status != nil && pos.Status != *status {
			continue
		}
		list = append(list, *pos)
	}
	return list
}

// CountOpen reports the number of open positions.
func (s *Store) CountOpen() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var count int
	for _, pos := range s.positions {
		if pos.Status == shared.StatusOpen {
			count++
		}
	}
	return count
}

// CountOpenBySymbol reports the number of open positions for the symbol.
func (s *Store) CountOpenBySymbol(symbol string) int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var count int
	for _, pos := range s.positions {
		if pos.Status == shared.StatusOpen && pos.Symbol == symbol {
			count++
		}
	}
	return count
}

// MarkClosed transitions the position with the provided id from open to
// closed, setting the closing data atomically with the status change. The
// status is re-checked under the lock immediately before mutating so a
// manual close and the watcher racing on the same position cannot both
// win.
func (s *Store) MarkClosed(id string, closePrice float64, pnl float64, reason string, closedOn time.Time) (shared.Position, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	pos, ok := s.positions[id]
	if !ok {
		return shared.Position{}, fmt.Errorf("position %s not found", id)
	}

	if pos.Status != shared.StatusOpen {
		return *pos, fmt.Errorf("position %s is not open (status=%s)", id, pos.Status.String())
	}

	pos.Status = shared.StatusClosed
	pos.ClosedOn = &closedOn
	pos.ClosePrice = shared.Float64(closePrice)
	pos.PNL = shared.Float64(pnl)
	pos.CloseReason = reason

	return *pos, nil
}
