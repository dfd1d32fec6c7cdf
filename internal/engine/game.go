package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/store"
)

// DefaultMakerID names the maker when Config.MakerID is empty.
const DefaultMakerID = "User"

// Config holds the parameters of one game.
type Config struct {
	Opponents int
	Rounds    int
	Values    ValueRange
	Strategy  Strategy // defaults to Baseline
	MakerID   string   // defaults to DefaultMakerID
}

// Validate checks counts and the value range. The range must leave room
// for the sum of every player's hidden value.
func (c Config) Validate() error {
	if c.Opponents < 1 {
		return fmt.Errorf("%w: opponents must be >= 1, got %d", domain.ErrInvalidConfig, c.Opponents)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be >= 1, got %d", domain.ErrInvalidConfig, c.Rounds)
	}
	if err := c.Values.Validate(); err != nil {
		return err
	}
	return c.Values.validateTotal(c.Opponents + 1)
}

// QuoteSource supplies the maker's quote string for each round. Round
// numbers are 1-based.
type QuoteSource interface {
	NextQuote(ctx context.Context, round int) (string, error)
}

// Game drives a fixed number of rounds between one maker and its
// opponents, then settles the maker against the revealed fair value.
// A Game is not safe for concurrent use.
type Game struct {
	cfg        Config
	maker      *domain.Participant
	opponents  []*Opponent
	history    *store.HistoryStore
	played     int
	settlement *Settlement
}

// NewGame validates cfg and deals the maker and every opponent a hidden
// value. Opponents are named "0".."n-1" in creation order.
func NewGame(cfg Config, dealer *Dealer) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Strategy == nil {
		cfg.Strategy = Baseline{}
	}
	if cfg.MakerID == "" {
		cfg.MakerID = DefaultMakerID
	}

	g := &Game{
		cfg:       cfg,
		maker:     dealer.NewParticipant(cfg.MakerID),
		opponents: make([]*Opponent, 0, cfg.Opponents),
		history:   store.NewHistoryStore(),
	}
	for i := 0; i < cfg.Opponents; i++ {
		g.opponents = append(g.opponents, dealer.NewOpponent(strconv.Itoa(i), cfg.Strategy))
	}
	return g, nil
}

// NewGameWith builds a game from already-dealt participants. Every hidden
// value must lie in cfg.Values.
func NewGameWith(cfg Config, maker *domain.Participant, opponents []*Opponent) (*Game, error) {
	cfg.Opponents = len(opponents)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Values.Contains(maker.HiddenValue) {
		return nil, fmt.Errorf("%w: maker hidden value %d outside %d..%d",
			domain.ErrInvalidConfig, maker.HiddenValue, cfg.Values.Min, cfg.Values.Max)
	}
	for _, o := range opponents {
		if !cfg.Values.Contains(o.HiddenValue) {
			return nil, fmt.Errorf("%w: opponent %s hidden value %d outside %d..%d",
				domain.ErrInvalidConfig, o.ID, o.HiddenValue, cfg.Values.Min, cfg.Values.Max)
		}
	}
	return &Game{
		cfg:       cfg,
		maker:     maker,
		opponents: opponents,
		history:   store.NewHistoryStore(),
	}, nil
}

// Config returns the game's configuration.
func (g *Game) Config() Config { return g.cfg }

// Maker returns the quoting participant.
func (g *Game) Maker() *domain.Participant { return g.maker }

// Opponents returns the opponents in creation order.
func (g *Game) Opponents() []*Opponent {
	result := make([]*Opponent, len(g.opponents))
	copy(result, g.opponents)
	return result
}

// Participants returns the maker followed by every opponent.
func (g *Game) Participants() []*domain.Participant {
	result := make([]*domain.Participant, 0, len(g.opponents)+1)
	result = append(result, g.maker)
	for _, o := range g.opponents {
		result = append(result, o.Participant)
	}
	return result
}

// History returns the public tape.
func (g *Game) History() *store.HistoryStore { return g.history }

// RoundsPlayed returns the number of completed rounds.
func (g *Game) RoundsPlayed() int { return g.played }

// RoundsRemaining returns how many rounds are left to play.
func (g *Game) RoundsRemaining() int { return g.cfg.Rounds - g.played }

// Finished reports whether every round has been played.
func (g *Game) Finished() bool { return g.played >= g.cfg.Rounds }

// Settlement returns the settlement, or nil before Settle.
func (g *Game) Settlement() *Settlement { return g.settlement }

// PlayRound runs the next round with the given quote string. It returns
// domain.ErrGameOver once every round has been played. A malformed quote
// still consumes the round.
func (g *Game) PlayRound(quote string) (*Round, error) {
	if g.Finished() {
		return nil, domain.ErrGameOver
	}
	r, err := RunRound(g.maker, g.opponents, quote, g.history, g.played+1)
	if err != nil {
		return nil, err
	}
	g.played++
	return r, nil
}

// Settle reveals hidden values and marks the maker to fair value. It
// returns domain.ErrRoundsRemaining before the last round and
// domain.ErrAlreadySettled on a second call.
func (g *Game) Settle() (*Settlement, error) {
	if g.settlement != nil {
		return nil, domain.ErrAlreadySettled
	}
	if !g.Finished() {
		return nil, fmt.Errorf("%w: %d of %d played", domain.ErrRoundsRemaining, g.played, g.cfg.Rounds)
	}
	g.settlement = Settle(g.maker, g.Participants())
	return g.settlement, nil
}

// Run plays every remaining round, pulling quotes from src and passing
// each completed round to onRound (which may be nil), then settles. It
// stops early on a source error, an invalid decision, or ctx
// cancellation.
func (g *Game) Run(ctx context.Context, src QuoteSource, onRound func(*Round)) (*Settlement, error) {
	for !g.Finished() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		quote, err := src.NextQuote(ctx, g.played+1)
		if err != nil {
			return nil, fmt.Errorf("read quote for round %d: %w", g.played+1, err)
		}
		r, err := g.PlayRound(quote)
		if err != nil {
			return nil, err
		}
		if onRound != nil {
			onRound(r)
		}
	}
	return g.Settle()
}
