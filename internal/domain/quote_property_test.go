package domain

import (
	"testing"

	"pgregory.net/rapid"
)

// Property: any quote formatted to wire form parses back to itself.
func TestProperty_QuoteWireForm(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := Quote{
			Bid: rapid.Int64().Draw(t, "bid"),
			Ask: rapid.Int64().Draw(t, "ask"),
		}
		got, err := ParseQuote(q.String())
		if err != nil {
			t.Fatalf("ParseQuote(%q) unexpected error: %v", q.String(), err)
		}
		if got != q {
			t.Fatalf("ParseQuote(%q) = %+v, want %+v", q.String(), got, q)
		}
	})
}

// Property: input without the separator never parses.
func TestProperty_QuoteWithoutSeparatorRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[0-9a-z \-]{0,12}`).Draw(t, "input")
		if _, err := ParseQuote(s); err == nil {
			t.Fatalf("ParseQuote(%q) should fail without %q", s, QuoteSeparator)
		}
	})
}
