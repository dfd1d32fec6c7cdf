package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/efreitasn/makeamarket/internal/domain"
)

func newTestTrade(id string, round int) *domain.Trade {
	return &domain.Trade{
		TradeID:       id,
		ParticipantID: "0",
		Counterparty:  "maker",
		Price:         20,
		Quantity:      -1,
		Round:         round,
	}
}

func TestHistoryStore_AppendAndSnapshot(t *testing.T) {
	s := NewHistoryStore()

	s.Append(newTestTrade("trade-1", 1), newTestTrade("trade-2", 1))
	s.Append(newTestTrade("trade-3", 2))

	trades := s.Snapshot()
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	for i, want := range []string{"trade-1", "trade-2", "trade-3"} {
		if trades[i].TradeID != want {
			t.Errorf("trades[%d] = %s, want %s", i, trades[i].TradeID, want)
		}
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestHistoryStore_Snapshot_Empty(t *testing.T) {
	s := NewHistoryStore()

	trades := s.Snapshot()
	if trades == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(trades) != 0 {
		t.Fatalf("expected 0 trades, got %d", len(trades))
	}
}

func TestHistoryStore_AppendNothing(t *testing.T) {
	s := NewHistoryStore()
	s.Append()
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestHistoryStore_Snapshot_ReturnsCopy(t *testing.T) {
	s := NewHistoryStore()
	s.Append(newTestTrade("trade-1", 1))

	snap := s.Snapshot()
	snap[0] = newTestTrade("mutated", 1)

	if got := s.Snapshot()[0].TradeID; got != "trade-1" {
		t.Fatalf("internal slice was mutated: got %s", got)
	}
}

func TestHistoryStore_SnapshotIsStable(t *testing.T) {
	s := NewHistoryStore()
	s.Append(newTestTrade("trade-1", 1))

	snap := s.Snapshot()
	s.Append(newTestTrade("trade-2", 2))

	if len(snap) != 1 {
		t.Fatalf("earlier snapshot grew to %d trades", len(snap))
	}
}

func TestHistoryStore_ByRound(t *testing.T) {
	s := NewHistoryStore()
	s.Append(newTestTrade("a", 1), newTestTrade("b", 2), newTestTrade("c", 2))

	if got := s.ByRound(2); len(got) != 2 || got[0].TradeID != "b" || got[1].TradeID != "c" {
		t.Errorf("ByRound(2) = %v, want [b c]", got)
	}
	if got := s.ByRound(3); got == nil || len(got) != 0 {
		t.Errorf("ByRound(3) = %v, want empty", got)
	}
}

func TestHistoryStore_ConcurrentAccess(t *testing.T) {
	s := NewHistoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(newTestTrade(fmt.Sprintf("trade-%d", i), 1))
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}
