package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/efreitasn/makeamarket/internal/store"
)

// Defaults for how long settled games stay readable and how often they
// are swept.
const (
	DefaultSettledRetention = 10 * time.Minute
	DefaultReapInterval     = time.Minute
)

type settledGame struct {
	gameID string
	evict  time.Time
}

// Reaper removes settled games from the session store once their
// retention window has passed. Leaderboard entries are not touched.
type Reaper struct {
	retention time.Duration
	interval  time.Duration
	sessions  *store.SessionStore[*Session]
	logger    *zap.Logger

	mu      sync.Mutex
	settled []settledGame // sorted by evict ASC
}

// NewReaper creates a Reaper. Non-positive durations use the defaults.
func NewReaper(
	retention, interval time.Duration,
	sessions *store.SessionStore[*Session],
	logger *zap.Logger,
) *Reaper {
	if retention <= 0 {
		retention = DefaultSettledRetention
	}
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{
		retention: retention,
		interval:  interval,
		sessions:  sessions,
		logger:    logger,
	}
}

// Add schedules gameID for removal one retention window after settledAt.
func (r *Reaper) Add(gameID string, settledAt time.Time) {
	evict := settledAt.Add(r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := sort.Search(len(r.settled), func(i int) bool {
		return r.settled[i].evict.After(evict)
	})
	r.settled = append(r.settled, settledGame{})
	copy(r.settled[idx+1:], r.settled[idx:])
	r.settled[idx] = settledGame{gameID: gameID, evict: evict}
}

// Start sweeps at the configured interval until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				r.tick(t)
			}
		}
	}()
}

// tick removes every settled game due at or before now.
func (r *Reaper) tick(now time.Time) {
	r.mu.Lock()
	cutoff := 0
	for cutoff < len(r.settled) && !r.settled[cutoff].evict.After(now) {
		cutoff++
	}
	due := r.settled[:cutoff]
	r.settled = r.settled[cutoff:]
	r.mu.Unlock()

	for _, g := range due {
		if err := r.sessions.Delete(g.gameID); err != nil {
			r.logger.Warn("settled game already gone", zap.String("game_id", g.gameID))
			continue
		}
		r.logger.Debug("settled game removed", zap.String("game_id", g.gameID))
	}
}

func (r *Reaper) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.settled)
}
