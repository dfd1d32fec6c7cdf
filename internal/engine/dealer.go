package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/efreitasn/makeamarket/internal/domain"
)

// ValueRange is the inclusive range hidden values are drawn from.
type ValueRange struct {
	Min int64
	Max int64
}

// Validate reports an inverted range or one too wide to draw from.
func (r ValueRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: value range min %d > max %d", domain.ErrInvalidConfig, r.Min, r.Max)
	}
	if r.Min < 0 && r.Max > math.MaxInt64+r.Min {
		return fmt.Errorf("%w: value range %d..%d is too wide", domain.ErrInvalidConfig, r.Min, r.Max)
	}
	return nil
}

// validateTotal reports a range whose values, summed over players, could
// overflow. Fair values and estimates are such sums.
func (r ValueRange) validateTotal(players int) error {
	limit := math.MaxInt64 / int64(players)
	if r.Max > limit || r.Min < -limit {
		return fmt.Errorf("%w: value range %d..%d overflows a total over %d players",
			domain.ErrInvalidConfig, r.Min, r.Max, players)
	}
	return nil
}

// Contains reports whether v lies in the range.
func (r ValueRange) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// NewRand returns a PCG-backed source. A zero seed picks one from the
// clock, so only non-zero seeds give reproducible games.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Dealer hands out participants with freshly drawn hidden values.
type Dealer struct {
	values ValueRange
	rng    *rand.Rand
}

// NewDealer creates a Dealer drawing from values with rng.
func NewDealer(values ValueRange, rng *rand.Rand) *Dealer {
	return &Dealer{values: values, rng: rng}
}

// Values returns the range the dealer draws from.
func (d *Dealer) Values() ValueRange {
	return d.values
}

// Draw returns a uniformly distributed value in the dealer's range.
func (d *Dealer) Draw() int64 {
	span := uint64(d.values.Max-d.values.Min) + 1
	return d.values.Min + int64(d.rng.Uint64N(span))
}

// NewParticipant creates a participant with a freshly drawn hidden value.
func (d *Dealer) NewParticipant(id string) *domain.Participant {
	return domain.NewParticipant(id, d.Draw())
}

// NewOpponent creates a participant and binds it to s.
func (d *Dealer) NewOpponent(id string, s Strategy) *Opponent {
	return NewOpponent(d.NewParticipant(id), s)
}
