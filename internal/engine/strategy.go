package engine

import (
	"fmt"
	"strings"

	"github.com/efreitasn/makeamarket/internal/domain"
)

// DecisionInput is everything an opponent may look at when answering a
// quote: the quote itself, its own hidden value, how many opponents are
// in the game, and the public tape of previous rounds.
type DecisionInput struct {
	Quote       domain.Quote
	HiddenValue int64
	Opponents   int
	History     []*domain.Trade
}

// Strategy decides how an opponent answers a quote. Implementations must
// be pure: the round engine calls Decide for every opponent against the
// same input before any trade is booked.
type Strategy interface {
	Decide(in DecisionInput) domain.Decision
}

// StrategyFunc adapts an ordinary function to the Strategy interface.
type StrategyFunc func(in DecisionInput) domain.Decision

// Decide calls f(in).
func (f StrategyFunc) Decide(in DecisionInput) domain.Decision {
	return f(in)
}

// FairValueEstimate is the baseline opponent's guess at the total:
// its own hidden value scaled by the number of players.
func FairValueEstimate(hiddenValue int64, opponents int) int64 {
	return hiddenValue * int64(opponents+1)
}

// Baseline lifts offers below its fair-value estimate and hits bids above
// it. A quote exactly at the estimate on either side is not traded.
// The public history is ignored.
type Baseline struct{}

// Decide implements Strategy.
func (Baseline) Decide(in DecisionInput) domain.Decision {
	fv := FairValueEstimate(in.HiddenValue, in.Opponents)
	switch {
	case in.Quote.Ask < fv:
		return domain.DecisionLift
	case in.Quote.Bid > fv:
		return domain.DecisionHit
	default:
		return domain.DecisionNoTrade
	}
}

// StrategyBaseline is the configuration name of Baseline.
const StrategyBaseline = "baseline"

var strategies = map[string]Strategy{
	StrategyBaseline: Baseline{},
}

// StrategyByName resolves a configured strategy name, case-insensitively.
func StrategyByName(name string) (Strategy, error) {
	s, ok := strategies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, name)
	}
	return s, nil
}

// Opponent is a participant bound to the strategy that answers for it.
type Opponent struct {
	*domain.Participant
	Strategy Strategy
}

// NewOpponent binds p to s.
func NewOpponent(p *domain.Participant, s Strategy) *Opponent {
	return &Opponent{Participant: p, Strategy: s}
}
