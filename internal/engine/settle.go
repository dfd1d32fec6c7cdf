package engine

import "github.com/efreitasn/makeamarket/internal/domain"

// Reveal is a participant's hidden value disclosed at settlement.
type Reveal struct {
	ParticipantID string
	HiddenValue   int64
}

// Settlement is the end-of-game result for the maker.
type Settlement struct {
	FairValue  int64    // sum of every hidden value, maker included
	Inventory  int64    // maker inventory before liquidation
	Liquidated bool     // false when the maker was already flat
	PnL        int64    // maker's final realized P&L
	Reveals    []Reveal // in participant order
}

// FairValue returns the true value of the contract: the sum of all
// hidden values.
func FairValue(participants []*domain.Participant) int64 {
	var sum int64
	for _, p := range participants {
		sum += p.HiddenValue
	}
	return sum
}

// Settle reveals every hidden value and marks the maker's remaining
// inventory to the fair value, long or short, folding the proceeds into
// realized P&L. A flat maker is left untouched. Opponents are not
// settled.
func Settle(maker *domain.Participant, participants []*domain.Participant) *Settlement {
	s := &Settlement{
		FairValue: FairValue(participants),
		Inventory: maker.Balance().Inventory,
		Reveals:   make([]Reveal, 0, len(participants)),
	}
	for _, p := range participants {
		s.Reveals = append(s.Reveals, Reveal{ParticipantID: p.ID, HiddenValue: p.HiddenValue})
	}

	s.Liquidated = maker.Liquidate(s.FairValue)
	s.PnL = maker.Balance().RealizedPnL
	return s
}
