package domain

import "time"

// Trade is one leg of an execution, recorded from the owner's side.
// Quantity is +1 for a buy and -1 for a sell. Both legs of an execution
// share the same TradeID.
type Trade struct {
	TradeID       string
	ParticipantID string
	Counterparty  string
	Price         int64
	Quantity      int64
	Round         int
	ExecutedAt    time.Time
}

// Notional returns price × quantity, the cash the owner paid for the leg.
func (t *Trade) Notional() int64 {
	return t.Price * t.Quantity
}
