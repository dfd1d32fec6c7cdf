package store

import (
	"sync"

	"github.com/efreitasn/makeamarket/internal/domain"
)

// HistoryStore is the public tape of one game: every executed trade from
// completed rounds, in execution order. Append-only.
type HistoryStore struct {
	mu     sync.RWMutex
	trades []*domain.Trade
}

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		trades: make([]*domain.Trade, 0),
	}
}

// Append adds a completed round's trades to the tape.
func (s *HistoryStore) Append(trades ...*domain.Trade) {
	if len(trades) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, trades...)
}

// Snapshot returns every trade on the tape in execution order.
// Returns an empty slice if nothing has traded.
func (s *HistoryStore) Snapshot() []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Trade, len(s.trades))
	copy(result, s.trades)
	return result
}

// ByRound returns the trades executed in the given round.
func (s *HistoryStore) ByRound(round int) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trade, 0)
	for _, t := range s.trades {
		if t.Round == round {
			result = append(result, t)
		}
	}
	return result
}

// Len returns the number of trades on the tape.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}
