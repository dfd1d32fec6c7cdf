package domain

import (
	"testing"

	"pgregory.net/rapid"
)

// genTrade draws a single-unit leg at a price inside a modest range.
func genTrade() *rapid.Generator[Trade] {
	return rapid.Custom(func(t *rapid.T) Trade {
		return Trade{
			Counterparty: "cp",
			Price:        rapid.Int64Range(-100, 500).Draw(t, "price"),
			Quantity:     rapid.SampledFrom([]int64{1, -1}).Draw(t, "qty"),
		}
	})
}

// Property: no trade creates or destroys value. Cash plus realized P&L
// always equals the negated sum of price × quantity over the log, and
// inventory equals the sum of quantities.
func TestProperty_Conservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trades := rapid.SliceOfN(genTrade(), 0, 60).Draw(t, "trades")
		p := NewParticipant("p", 1)

		var notional, qty int64
		for _, tr := range trades {
			p.ApplyTrade(tr)
			notional += tr.Price * tr.Quantity
			qty += tr.Quantity

			b := p.Balance()
			if b.Cash+b.RealizedPnL != -notional {
				t.Fatalf("cash %d + realized %d != -notional %d", b.Cash, b.RealizedPnL, -notional)
			}
			if b.Inventory != qty {
				t.Fatalf("inventory %d != sum of quantities %d", b.Inventory, qty)
			}
		}

		var logged int64
		for _, rec := range p.Trades() {
			logged += rec.Notional()
		}
		if logged != notional {
			t.Fatalf("log notional %d != applied notional %d", logged, notional)
		}
	})
}

// Property: realized P&L moves only on a return to zero inventory, and
// then by exactly the cash accumulated since the previous flat point.
func TestProperty_FlatteningRecognizesOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trades := rapid.SliceOfN(genTrade(), 1, 60).Draw(t, "trades")
		p := NewParticipant("p", 1)

		var sinceFlat int64
		for i, tr := range trades {
			before := p.Balance()
			p.ApplyTrade(tr)
			after := p.Balance()
			sinceFlat -= tr.Price * tr.Quantity

			if after.Inventory == 0 {
				if after.Cash != 0 {
					t.Fatalf("trade %d: flat with cash %d", i, after.Cash)
				}
				if after.RealizedPnL-before.RealizedPnL != sinceFlat {
					t.Fatalf("trade %d: realized moved by %d, want %d",
						i, after.RealizedPnL-before.RealizedPnL, sinceFlat)
				}
				sinceFlat = 0
				continue
			}
			if after.RealizedPnL != before.RealizedPnL {
				t.Fatalf("trade %d: realized changed while inventory is %d", i, after.Inventory)
			}
			if after.Cash != sinceFlat {
				t.Fatalf("trade %d: cash %d, want %d", i, after.Cash, sinceFlat)
			}
		}
	})
}

// Property: liquidating a flat account changes nothing.
func TestProperty_LiquidateFlatIsNoop(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewParticipant("p", 1)
		n := rapid.IntRange(0, 20).Draw(t, "pairs")
		for i := 0; i < n; i++ {
			buy := rapid.Int64Range(0, 100).Draw(t, "buy")
			sell := rapid.Int64Range(0, 100).Draw(t, "sell")
			p.ApplyTrade(Trade{Price: buy, Quantity: 1})
			p.ApplyTrade(Trade{Price: sell, Quantity: -1})
		}
		before := p.Balance()
		price := rapid.Int64Range(-1000, 1000).Draw(t, "price")

		if p.Liquidate(price) {
			t.Fatal("Liquidate() = true on a flat account")
		}
		if after := p.Balance(); after != before {
			t.Fatalf("balance changed: %+v -> %+v", before, after)
		}
	})
}
