package store

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Property: Top always returns entries sorted by P&L descending, then
// settled_at ascending, then game_id ascending.
func TestProperty_LeaderboardOrdering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 60).Draw(t, "numEntries")
		l := NewLeaderboard()
		for i := 0; i < n; i++ {
			// Small ranges to force P&L and timestamp collisions.
			l.Record(LeaderboardEntry{
				GameID:    fmt.Sprintf("game-%d", rapid.IntRange(0, 40).Draw(t, "id")),
				PnL:       rapid.Int64Range(-5, 5).Draw(t, "pnl"),
				SettledAt: time.Date(2025, 1, 1, 0, 0, rapid.IntRange(0, 5).Draw(t, "sec"), 0, time.UTC),
			})
		}

		top := l.Top(n)
		if len(top) != l.Len() {
			t.Fatalf("Top(%d) returned %d entries, Len() = %d", n, len(top), l.Len())
		}
		seen := make(map[string]bool, len(top))
		for i, e := range top {
			if seen[e.GameID] {
				t.Fatalf("game %s ranked twice", e.GameID)
			}
			seen[e.GameID] = true
			if i > 0 && entryLess(e, top[i-1]) {
				t.Fatalf("entry %d (%+v) should rank before entry %d (%+v)", i, e, i-1, top[i-1])
			}
			if r := l.Rank(e.GameID); r != i+1 {
				t.Fatalf("Rank(%s) = %d, want %d", e.GameID, r, i+1)
			}
		}
	})
}
