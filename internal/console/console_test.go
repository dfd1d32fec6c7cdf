package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/engine"
)

func newScenarioGame(t *testing.T, rounds int) *engine.Game {
	t.Helper()
	g, err := engine.NewGameWith(
		engine.Config{Rounds: rounds, Values: engine.ValueRange{Min: 1, Max: 10}},
		domain.NewParticipant(engine.DefaultMakerID, 5),
		[]*engine.Opponent{engine.NewOpponent(domain.NewParticipant("0", 7), engine.Baseline{})},
	)
	if err != nil {
		t.Fatalf("NewGameWith: %v", err)
	}
	return g
}

func TestPlay_FullGame(t *testing.T) {
	g := newScenarioGame(t, 1)
	var out bytes.Buffer
	c := New(strings.NewReader("\n20@25\n"), &out, Options{})

	s, err := c.Play(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.PnL != -8 {
		t.Errorf("PnL = %d, want -8", s.PnL)
	}

	text := out.String()
	for _, want := range []string{
		"There are a total of 1 opponents and 1 rounds",
		"Secret numbers are between 1 and 10 inclusive.",
		">>>>>>>>>>5<<<<<<<<<<",
		"Make a market on: 5 + SUM(all 1 opponents secret numbers)",
		"Game starting in 1",
		`Enter a quote in "bid@ask" format`,
		"Round 1",
		"Enter a quote>",
		"Player: 0 sells @ 20 \t\t Current position: -1@20",
		"Your stats:\t cash: -20\tstock: 1\tpnl: 0",
		"Player 0: 7",
		"This means the fair value is: 12",
		"You have 1 stocks",
		"Exchanging your stock for cash...",
		"Total pnl: >>>||  -8  ||<<<",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q\n%s", want, text)
		}
	}
	if strings.Contains(text, "Player User:") {
		t.Error("maker's own value should not be re-revealed")
	}
}

func TestPlay_MalformedQuote(t *testing.T) {
	g := newScenarioGame(t, 1)
	var out bytes.Buffer
	c := New(strings.NewReader("\nbanana\n"), &out, Options{})

	s, err := c.Play(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, malformedNotice) {
		t.Errorf("output missing malformed notice\n%s", text)
	}
	if !strings.Contains(text, "Player: 0 -- @ --") {
		t.Errorf("output missing no-trade line\n%s", text)
	}
	if s.Liquidated || s.PnL != 0 {
		t.Errorf("settlement = %+v, want untouched", s)
	}
	if strings.Contains(text, "Exchanging") || strings.Contains(text, "Covering") {
		t.Error("flat maker should not be liquidated")
	}
}

func TestPlay_ShortCover(t *testing.T) {
	g := newScenarioGame(t, 1)
	var out bytes.Buffer
	// Opponent fair estimate is 14, so an ask of 10 is lifted.
	c := New(strings.NewReader("\n5@10"), &out, Options{})

	s, err := c.Play(context.Background(), g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Sold at 10, covered at 12.
	if s.PnL != -2 {
		t.Errorf("PnL = %d, want -2", s.PnL)
	}
	text := out.String()
	for _, want := range []string{"Player: 0 buys @ 10", "You are short 1 stock", "Covering your short position..."} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q\n%s", want, text)
		}
	}
}

func TestShowRound_HardMode(t *testing.T) {
	g := newScenarioGame(t, 1)
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out, Options{HardMode: true})

	r, err := g.PlayRound("20@25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.ShowRound(g, r)

	if !strings.Contains(out.String(), "Current position: Hidden@Hidden") {
		t.Errorf("hard mode should hide the position\n%s", out.String())
	}
}

func TestPlay_InputEnds(t *testing.T) {
	g := newScenarioGame(t, 3)
	c := New(strings.NewReader("\n1@2\n"), io.Discard, Options{})

	_, err := c.Play(context.Background(), g)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("got %v, want io.EOF", err)
	}
	if g.RoundsPlayed() != 1 {
		t.Errorf("RoundsPlayed() = %d, want 1", g.RoundsPlayed())
	}
}

func TestPlay_Cancelled(t *testing.T) {
	g := newScenarioGame(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(strings.NewReader("\n20@25\n"), io.Discard, Options{})
	if _, err := c.Play(ctx, g); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestNextQuote_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := New(pr, io.Discard, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.NextQuote(ctx, 1)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("NextQuote still blocked on input after cancel")
	}
}

func TestReadLine_LineAfterCancelledRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := New(pr, io.Discard, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.readLine(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}

	go pw.Write([]byte("3@4\n"))
	got, err := c.readLine(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "3@4" {
		t.Errorf("readLine() = %q, want %q", got, "3@4")
	}
}

func TestReadLine(t *testing.T) {
	c := New(strings.NewReader("20@25\r\nlast"), io.Discard, Options{})
	ctx := context.Background()

	for _, want := range []string{"20@25", "last"} {
		got, err := c.readLine(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("readLine() = %q, want %q", got, want)
		}
	}
	if _, err := c.readLine(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("got %v, want io.EOF", err)
	}
}

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		b    domain.Balance
		want string
	}{
		{domain.Balance{}, "0@0"},
		{domain.Balance{Cash: 20, Inventory: -1}, "-1@20"},
		{domain.Balance{Cash: -45, Inventory: 2}, "2@-22.5"},
	}
	for _, tt := range tests {
		if got := formatPosition(tt.b); got != tt.want {
			t.Errorf("formatPosition(%+v) = %q, want %q", tt.b, got, tt.want)
		}
	}
}

func TestBoxLine_Centred(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out, Options{})
	c.boxLine("ab")
	line := strings.TrimRight(out.String(), "\n")
	if len(line) != boxWidth+2 || !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
		t.Fatalf("box line %q has wrong shape", line)
	}
	if idx := strings.Index(line, "ab"); idx != 1+(boxWidth-2)/2 {
		t.Errorf("text at column %d", idx)
	}
}
