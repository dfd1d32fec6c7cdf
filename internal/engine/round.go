package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/store"
)

// TradeSize is the fixed number of units exchanged per execution.
const TradeSize = 1

// RoundResult is one opponent's answer to the round's quote. Price is nil
// when the opponent did not trade.
type RoundResult struct {
	OpponentID string
	Decision   domain.Decision
	Price      *int64
}

// Round is the outcome of one quote/response cycle.
type Round struct {
	Index   int
	Quote   domain.Quote
	Quoted  bool // false when the quote string did not parse
	Results []RoundResult
	Trades  []*domain.Trade // opponent legs, as appended to the public tape
}

// Traded reports whether any opponent traded this round.
func (r *Round) Traded() bool {
	return len(r.Trades) > 0
}

// RunRound plays one round of quote/response between the maker and every
// opponent.
//
// A quote that does not parse as "<int>@<int>" skips the round: no
// opponent is asked, nothing trades, and every result is a price-less no
// trade.
//
// Otherwise every opponent decides, in creation order, against the same
// quote and the same snapshot of the public tape. Decisions are collected
// before anything is booked; an invalid decision aborts the round with
// domain.ErrInvalidDecision and leaves all accounts untouched. Each trade
// is then booked on both sides and the round's trades are appended to the
// tape so only later rounds see them. The quote is good for every
// opponent regardless of how many trade against it.
func RunRound(
	maker *domain.Participant,
	opponents []*Opponent,
	quote string,
	history *store.HistoryStore,
	index int,
) (*Round, error) {
	round := &Round{
		Index:   index,
		Results: make([]RoundResult, 0, len(opponents)),
		Trades:  make([]*domain.Trade, 0),
	}

	q, err := domain.ParseQuote(quote)
	if err != nil {
		for _, opp := range opponents {
			round.Results = append(round.Results, RoundResult{
				OpponentID: opp.ID,
				Decision:   domain.DecisionNoTrade,
			})
		}
		return round, nil
	}
	round.Quote = q
	round.Quoted = true

	// Step 1: Collect decisions against the pre-round state.
	in := DecisionInput{
		Quote:     q,
		Opponents: len(opponents),
		History:   history.Snapshot(),
	}
	decisions := make([]domain.Decision, len(opponents))
	for i, opp := range opponents {
		in.HiddenValue = opp.HiddenValue
		d := opp.Strategy.Decide(in)
		if !d.Valid() {
			return nil, fmt.Errorf("%w: opponent %s returned %d in round %d",
				domain.ErrInvalidDecision, opp.ID, uint8(d), index)
		}
		decisions[i] = d
	}

	// Step 2: Book each trade on both sides.
	executedAt := time.Now()
	for i, opp := range opponents {
		d := decisions[i]
		result := RoundResult{OpponentID: opp.ID, Decision: d}

		makerQty := d.MakerQuantity() * TradeSize
		if makerQty != 0 {
			price := q.Ask
			if d == domain.DecisionHit {
				price = q.Bid
			}
			tradeID := uuid.New().String()

			maker.ApplyTrade(domain.Trade{
				TradeID:      tradeID,
				Counterparty: opp.ID,
				Price:        price,
				Quantity:     makerQty,
				Round:        index,
				ExecutedAt:   executedAt,
			})
			oppTrade := opp.ApplyTrade(domain.Trade{
				TradeID:      tradeID,
				Counterparty: maker.ID,
				Price:        price,
				Quantity:     -makerQty,
				Round:        index,
				ExecutedAt:   executedAt,
			})

			round.Trades = append(round.Trades, oppTrade)
			result.Price = &price
		}
		round.Results = append(round.Results, result)
	}

	// Step 3: Publish to the tape for later rounds.
	history.Append(round.Trades...)

	return round, nil
}
