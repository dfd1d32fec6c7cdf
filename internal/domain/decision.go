package domain

import "fmt"

// Decision is an opponent's response to the maker's quote. The zero value
// is not a valid decision.
type Decision uint8

const (
	// DecisionNoTrade passes on the quote.
	DecisionNoTrade Decision = iota + 1
	// DecisionHit sells to the maker at the bid.
	DecisionHit
	// DecisionLift buys from the maker at the ask.
	DecisionLift
)

func (d Decision) String() string {
	switch d {
	case DecisionNoTrade:
		return "no_trade"
	case DecisionHit:
		return "hit"
	case DecisionLift:
		return "lift"
	default:
		return "unknown"
	}
}

// Label is the opponent-side verb printed on the round table.
func (d Decision) Label() string {
	switch d {
	case DecisionHit:
		return "sells"
	case DecisionLift:
		return "buys"
	default:
		return "--"
	}
}

// Valid reports whether d is one of the three defined decisions.
func (d Decision) Valid() bool {
	return d >= DecisionNoTrade && d <= DecisionLift
}

// MakerQuantity is the signed quantity the maker books for d: +1 when
// hit, -1 when lifted, 0 otherwise.
func (d Decision) MakerQuantity() int64 {
	switch d {
	case DecisionHit:
		return 1
	case DecisionLift:
		return -1
	default:
		return 0
	}
}

// MarshalText encodes the decision as its String form.
func (d Decision) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDecision, uint8(d))
	}
	return []byte(d.String()), nil
}
