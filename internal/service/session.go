package service

import (
	"sync"
	"time"

	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/engine"
)

// Session is one live game behind the HTTP API. Mu serialises every
// request that touches Game.
type Session struct {
	ID        string
	CreatedAt time.Time
	HardMode  bool

	Mu   sync.Mutex
	Game *engine.Game
}

// PositionView is one participant's account as seen by the maker.
// HiddenValue is nil until revealed and Balance is nil when the position
// is concealed by hard mode.
type PositionView struct {
	ParticipantID string
	HiddenValue   *int64
	Balance       *domain.Balance
}

// GameView is the externally visible state of a session.
type GameView struct {
	GameID          string
	CreatedAt       time.Time
	HardMode        bool
	Strategy        string
	Values          engine.ValueRange
	Rounds          int
	RoundsPlayed    int
	RoundsRemaining int
	Maker           PositionView
	Opponents       []PositionView
	Settlement      *engine.Settlement
}

// RoundView is a played round plus the positions it left behind.
type RoundView struct {
	GameID          string
	Round           *engine.Round
	RoundsRemaining int
	Maker           PositionView
	Opponents       []PositionView
}

// SettlementView is a settled game's result and its leaderboard rank.
type SettlementView struct {
	GameID     string
	Settlement *engine.Settlement
	Maker      PositionView
	Rank       int
}

// view builds a GameView. Callers must hold s.Mu.
func (s *Session) view(strategy string) *GameView {
	g := s.Game
	cfg := g.Config()
	v := &GameView{
		GameID:          s.ID,
		CreatedAt:       s.CreatedAt,
		HardMode:        s.HardMode,
		Strategy:        strategy,
		Values:          cfg.Values,
		Rounds:          cfg.Rounds,
		RoundsPlayed:    g.RoundsPlayed(),
		RoundsRemaining: g.RoundsRemaining(),
		Settlement:      g.Settlement(),
	}
	v.Maker, v.Opponents = s.positions()
	return v
}

// positions returns the maker's position and every opponent's, concealing
// what the maker is not allowed to see. Callers must hold s.Mu.
func (s *Session) positions() (PositionView, []PositionView) {
	g := s.Game
	settled := g.Settlement() != nil

	maker := g.Maker()
	makerValue := maker.HiddenValue
	makerBal := maker.Balance()
	makerView := PositionView{
		ParticipantID: maker.ID,
		HiddenValue:   &makerValue,
		Balance:       &makerBal,
	}

	opps := g.Opponents()
	views := make([]PositionView, len(opps))
	for i, o := range opps {
		views[i] = PositionView{ParticipantID: o.ID}
		if settled {
			value := o.HiddenValue
			views[i].HiddenValue = &value
		}
		if !s.HardMode {
			bal := o.Balance()
			views[i].Balance = &bal
		}
	}
	return makerView, views
}
