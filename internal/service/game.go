package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/engine"
	"github.com/efreitasn/makeamarket/internal/store"
)

// Per-request limits on game size.
const (
	MaxOpponents = 100
	MaxRounds    = 1000

	defaultLeaderboardSize = 10
)

// EventPublisher receives round and settlement events for live
// subscribers. Implementations must not block.
type EventPublisher interface {
	PublishRound(v *RoundView)
	PublishSettlement(v *SettlementView)
}

type noopPublisher struct{}

func (noopPublisher) PublishRound(*RoundView)           {}
func (noopPublisher) PublishSettlement(*SettlementView) {}

// Settings are the defaults every new game starts from.
type Settings struct {
	Opponents    int
	Rounds       int
	Values       engine.ValueRange
	StrategyName string
	HardMode     bool
	Seed         uint64

	// LeaderboardSize is the number of entries returned when no limit is
	// given.
	LeaderboardSize int

	// SettledRetention is how long a settled game stays readable before
	// it is removed, swept every ReapInterval. Zero uses the defaults.
	SettledRetention time.Duration
	ReapInterval     time.Duration
}

// CreateGameRequest overrides Settings for one game. Nil fields keep the
// default.
type CreateGameRequest struct {
	Opponents *int
	Rounds    *int
	HardMode  *bool
}

// GameService runs in-memory games for the HTTP API.
type GameService struct {
	sessions    *store.SessionStore[*Session]
	leaderboard *store.Leaderboard
	settings    Settings
	strategy    engine.Strategy
	publisher   EventPublisher
	reaper      *Reaper
	logger      *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGameService creates a GameService. publisher may be nil.
func NewGameService(
	sessions *store.SessionStore[*Session],
	leaderboard *store.Leaderboard,
	settings Settings,
	publisher EventPublisher,
	logger *zap.Logger,
) (*GameService, error) {
	strategy, err := engine.StrategyByName(settings.StrategyName)
	if err != nil {
		return nil, err
	}
	cfg := engine.Config{Opponents: settings.Opponents, Rounds: settings.Rounds, Values: settings.Values}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if settings.LeaderboardSize < 1 {
		settings.LeaderboardSize = defaultLeaderboardSize
	}
	return &GameService{
		sessions:    sessions,
		leaderboard: leaderboard,
		settings:    settings,
		strategy:    strategy,
		publisher:   publisher,
		reaper:      NewReaper(settings.SettledRetention, settings.ReapInterval, sessions, logger),
		logger:      logger,
		rng:         engine.NewRand(settings.Seed),
	}, nil
}

// CreateGame validates the request, deals a new game, and stores it.
func (s *GameService) CreateGame(req CreateGameRequest) (*GameView, error) {
	cfg := engine.Config{
		Opponents: s.settings.Opponents,
		Rounds:    s.settings.Rounds,
		Values:    s.settings.Values,
		Strategy:  s.strategy,
	}
	hardMode := s.settings.HardMode

	if req.Opponents != nil {
		if *req.Opponents < 1 || *req.Opponents > MaxOpponents {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("opponents must be between 1 and %d", MaxOpponents),
			}
		}
		cfg.Opponents = *req.Opponents
	}
	if req.Rounds != nil {
		if *req.Rounds < 1 || *req.Rounds > MaxRounds {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("rounds must be between 1 and %d", MaxRounds),
			}
		}
		cfg.Rounds = *req.Rounds
	}
	if req.HardMode != nil {
		hardMode = *req.HardMode
	}

	s.rngMu.Lock()
	game, err := engine.NewGame(cfg, engine.NewDealer(cfg.Values, s.rng))
	s.rngMu.Unlock()
	if errors.Is(err, domain.ErrInvalidConfig) {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		HardMode:  hardMode,
		Game:      game,
	}
	if err := s.sessions.Create(sess.ID, sess); err != nil {
		return nil, err
	}

	s.logger.Info("game created",
		zap.String("game_id", sess.ID),
		zap.Int("opponents", cfg.Opponents),
		zap.Int("rounds", cfg.Rounds),
		zap.Bool("hard_mode", hardMode),
	)

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	return sess.view(s.settings.StrategyName), nil
}

// StartReaper removes settled games in the background until ctx is
// cancelled.
func (s *GameService) StartReaper(ctx context.Context) {
	s.reaper.Start(ctx)
}

// GetGame returns the current state of a game.
func (s *GameService) GetGame(gameID string) (*GameView, error) {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}
	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	return sess.view(s.settings.StrategyName), nil
}

// Watch calls attach with the game's current state while holding the
// game's lock. Rounds and settlements are published under the same lock,
// so anything attach subscribes sees every later event and no earlier one.
func (s *GameService) Watch(gameID string, attach func(*GameView)) error {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return err
	}
	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	attach(sess.view(s.settings.StrategyName))
	return nil
}

// SubmitQuote plays the game's next round with quote. A malformed quote
// still consumes the round. It returns domain.ErrGameOver when no rounds
// remain.
func (s *GameService) SubmitQuote(gameID, quote string) (*RoundView, error) {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	r, err := sess.Game.PlayRound(quote)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDecision) {
			s.logger.Error("round aborted", zap.String("game_id", gameID), zap.Error(err))
		}
		return nil, err
	}

	v := &RoundView{
		GameID:          gameID,
		Round:           r,
		RoundsRemaining: sess.Game.RoundsRemaining(),
	}
	v.Maker, v.Opponents = sess.positions()

	s.logger.Debug("round played",
		zap.String("game_id", gameID),
		zap.Int("round", r.Index),
		zap.Bool("quoted", r.Quoted),
		zap.Bool("traded", r.Traded()),
		zap.Int("trades", len(r.Trades)),
	)
	s.publisher.PublishRound(v)
	return v, nil
}

// Settle reveals every hidden value, marks the maker to fair value, and
// records the result on the leaderboard. The game itself is removed once
// the settled retention window has passed.
func (s *GameService) Settle(gameID string) (*SettlementView, error) {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	settlement, err := sess.Game.Settle()
	if err != nil {
		return nil, err
	}

	settledAt := time.Now().UTC()
	s.leaderboard.Record(store.LeaderboardEntry{
		GameID:    gameID,
		PnL:       settlement.PnL,
		Rounds:    sess.Game.Config().Rounds,
		SettledAt: settledAt,
	})
	s.reaper.Add(gameID, settledAt)

	v := &SettlementView{
		GameID:     gameID,
		Settlement: settlement,
		Rank:       s.leaderboard.Rank(gameID),
	}
	v.Maker, _ = sess.positions()

	s.logger.Info("game settled",
		zap.String("game_id", gameID),
		zap.Int64("fair_value", settlement.FairValue),
		zap.Int64("pnl", settlement.PnL),
		zap.Int("rank", v.Rank),
	)
	s.publisher.PublishSettlement(v)
	return v, nil
}

// History returns the game's public trade tape in execution order.
func (s *GameService) History(gameID string) ([]*domain.Trade, error) {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}
	return sess.Game.History().Snapshot(), nil
}

// RoundTrades returns the trades executed in one round of the game.
func (s *GameService) RoundTrades(gameID string, round int) ([]*domain.Trade, error) {
	if round < 1 {
		return nil, &domain.ValidationError{Message: "round must be >= 1"}
	}
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}
	return sess.Game.History().ByRound(round), nil
}

// Leaderboard returns up to limit of the best settled games, best first.
// A zero limit uses the configured leaderboard size.
func (s *GameService) Leaderboard(limit int) ([]store.LeaderboardEntry, error) {
	if limit < 0 {
		return nil, &domain.ValidationError{Message: "limit must be >= 1"}
	}
	if limit == 0 {
		limit = s.settings.LeaderboardSize
	}
	return s.leaderboard.Top(limit), nil
}
