package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// QuoteSeparator splits bid from ask on the wire: "20@25".
const QuoteSeparator = "@"

// Quote is the maker's two-sided market for a round. Bid <= Ask is not
// enforced; crossed and locked quotes are taken as given.
type Quote struct {
	Bid int64
	Ask int64
}

// String formats the quote in wire form.
func (q Quote) String() string {
	return strconv.FormatInt(q.Bid, 10) + QuoteSeparator + strconv.FormatInt(q.Ask, 10)
}

// Spread returns Ask - Bid. Negative for a crossed quote.
func (q Quote) Spread() int64 {
	return q.Ask - q.Bid
}

// ParseQuote parses "<int>@<int>". Whitespace around the input and around
// either side is ignored. Any other shape returns ErrMalformedQuote.
func ParseQuote(s string) (Quote, error) {
	parts := strings.Split(strings.TrimSpace(s), QuoteSeparator)
	if len(parts) != 2 {
		return Quote{}, fmt.Errorf("%w: %q", ErrMalformedQuote, s)
	}
	bid, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: bid %q", ErrMalformedQuote, parts[0])
	}
	ask, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: ask %q", ErrMalformedQuote, parts[1])
	}
	return Quote{Bid: bid, Ask: ask}, nil
}
