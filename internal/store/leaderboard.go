package store

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// LeaderboardEntry is one settled game's final result.
type LeaderboardEntry struct {
	GameID    string
	PnL       int64
	Rounds    int
	SettledAt time.Time
}

// entryLess orders entries by P&L descending, then settled_at ascending,
// then game_id ascending. Min() is the best game; earlier settlements win
// ties.
func entryLess(a, b LeaderboardEntry) bool {
	if a.PnL != b.PnL {
		return a.PnL > b.PnL
	}
	if !a.SettledAt.Equal(b.SettledAt) {
		return a.SettledAt.Before(b.SettledAt)
	}
	return a.GameID < b.GameID
}

// Leaderboard ranks settled games in a B-tree with a game ID index so a
// re-recorded game replaces its earlier entry.
type Leaderboard struct {
	mu      sync.RWMutex
	entries *btree.BTreeG[LeaderboardEntry]
	index   map[string]LeaderboardEntry // game_id → entry
}

// NewLeaderboard creates an empty Leaderboard.
func NewLeaderboard() *Leaderboard {
	const degree = 16
	return &Leaderboard{
		entries: btree.NewG[LeaderboardEntry](degree, entryLess),
		index:   make(map[string]LeaderboardEntry),
	}
}

// Record inserts a settled game, replacing any earlier entry for the
// same game ID.
func (l *Leaderboard) Record(e LeaderboardEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.index[e.GameID]; ok {
		l.entries.Delete(old)
	}
	l.entries.ReplaceOrInsert(e)
	l.index[e.GameID] = e
}

// Top returns up to n entries, best first.
func (l *Leaderboard) Top(n int) []LeaderboardEntry {
	if n <= 0 {
		return []LeaderboardEntry{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]LeaderboardEntry, 0, min(n, l.entries.Len()))
	l.entries.Ascend(func(e LeaderboardEntry) bool {
		result = append(result, e)
		return len(result) < n
	})
	return result
}

// Rank returns the 1-based position of a game, or 0 if it is not ranked.
func (l *Leaderboard) Rank(gameID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.index[gameID]
	if !ok {
		return 0
	}
	rank := 0
	l.entries.AscendLessThan(e, func(LeaderboardEntry) bool {
		rank++
		return true
	})
	return rank + 1
}

// Len returns the number of ranked games.
func (l *Leaderboard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries.Len()
}
