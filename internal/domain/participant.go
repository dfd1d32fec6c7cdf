package domain

// Balance is a point-in-time view of a participant's account.
type Balance struct {
	Cash        int64
	Inventory   int64 // positive = long, negative = short
	RealizedPnL int64
}

// AverageCost returns cash per unit of open inventory, the figure shown
// next to a position on the console. Returns 0 when flat.
func (b Balance) AverageCost() float64 {
	if b.Inventory == 0 {
		return 0
	}
	inv := b.Inventory
	if inv < 0 {
		inv = -inv
	}
	return float64(b.Cash) / float64(inv)
}

// Participant is a player's account: a hidden value fixed at creation, a
// cash/inventory ledger and an append-only trade log. The maker and every
// opponent share this type.
//
// Cash and inventory only move through ApplyTrade and Liquidate. Realized
// P&L is recognized only when inventory returns to exactly zero, at which
// point the whole cash balance is folded into it and cash resets to 0.
type Participant struct {
	ID          string
	HiddenValue int64

	cash        int64
	inventory   int64
	realizedPnL int64
	trades      []*Trade
}

// NewParticipant creates a flat participant with the given hidden value.
func NewParticipant(id string, hiddenValue int64) *Participant {
	return &Participant{
		ID:          id,
		HiddenValue: hiddenValue,
		trades:      make([]*Trade, 0),
	}
}

// ApplyTrade books one leg against the account and returns the stored
// record. ParticipantID is stamped with the account's ID. There are no
// margin or position checks; the call always succeeds.
func (p *Participant) ApplyTrade(t Trade) *Trade {
	t.ParticipantID = p.ID
	rec := &t
	p.trades = append(p.trades, rec)

	p.cash -= t.Price * t.Quantity
	p.inventory += t.Quantity
	if p.inventory == 0 {
		p.flatten()
	}
	return rec
}

// Liquidate closes any open inventory at price without writing a trade
// record, then realizes the resulting cash. It returns false and leaves
// the account untouched when the participant is already flat.
func (p *Participant) Liquidate(price int64) bool {
	if p.inventory == 0 {
		return false
	}
	p.cash += p.inventory * price
	p.inventory = 0
	p.flatten()
	return true
}

func (p *Participant) flatten() {
	p.realizedPnL += p.cash
	p.cash = 0
}

// Balance returns the current cash, inventory and realized P&L.
func (p *Participant) Balance() Balance {
	return Balance{
		Cash:        p.cash,
		Inventory:   p.inventory,
		RealizedPnL: p.realizedPnL,
	}
}

// Trades returns a copy of the trade log in booking order.
func (p *Participant) Trades() []*Trade {
	result := make([]*Trade, len(p.trades))
	copy(result, p.trades)
	return result
}
