// Package console plays the game interactively on a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/efreitasn/makeamarket/internal/domain"
	"github.com/efreitasn/makeamarket/internal/engine"
)

const (
	boxWidth        = 88
	malformedNotice = "Malformed quote...no quote"
	hiddenField     = "Hidden"
)

// Options control how the game is shown.
type Options struct {
	HardMode bool          // conceal opponent positions
	Pace     time.Duration // base delay for countdown and reveal, 0 disables
}

// Console reads quotes from in and writes the game to out. It implements
// engine.QuoteSource.
type Console struct {
	in   *bufio.Reader
	out  io.Writer
	opts Options

	// A single goroutine owns in once the first line is requested, so a
	// cancelled read does not leave the caller blocked on input.
	readerOnce sync.Once
	lines      chan inputLine
	readErr    error // set before lines is closed
}

type inputLine struct {
	text string
	err  error
}

// New creates a Console.
func New(in io.Reader, out io.Writer, opts Options) *Console {
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		opts:  opts,
		lines: make(chan inputLine, 1),
	}
}

// Play runs a whole game on the terminal: preamble, every round, then the
// reveal and final P&L.
func (c *Console) Play(ctx context.Context, g *engine.Game) (*engine.Settlement, error) {
	if err := c.Intro(ctx, g); err != nil {
		return nil, err
	}
	s, err := g.Run(ctx, c, func(r *engine.Round) { c.ShowRound(g, r) })
	if err != nil {
		return nil, err
	}
	if err := c.ShowSettlement(ctx, g.Maker().ID, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Intro prints the rules of this deal, waits for enter, counts down, and
// draws the quote box.
func (c *Console) Intro(ctx context.Context, g *engine.Game) error {
	cfg := g.Config()
	secret := g.Maker().HiddenValue

	c.printf("Secret numbers have been assigned!\n")
	c.printf("There are a total of %d opponents and %d rounds\n", cfg.Opponents, cfg.Rounds)
	c.printf("Secret numbers are between %d and %d inclusive.\n", cfg.Values.Min, cfg.Values.Max)
	c.printf("Your secret number is below:\n")
	c.printf(">>>>>>>>>>%d<<<<<<<<<<\n", secret)
	c.printf("Make a market on: %d + SUM(all %d opponents secret numbers)\n", secret, cfg.Opponents)
	c.printf("Press enter when you are ready")

	if _, err := c.readLine(ctx); err != nil {
		return fmt.Errorf("wait for start: %w", err)
	}

	for i := 3; i > 0; i-- {
		c.printf("Game starting in %d\n", i)
		if err := c.pause(ctx, c.opts.Pace); err != nil {
			return err
		}
	}

	c.printf("%s\n", strings.Repeat("-", boxWidth+2))
	c.boxLine("")
	c.boxLine(`Enter a quote in "bid@ask" format`)
	c.boxLine("")
	c.boxLine(fmt.Sprintf("Market Make: %d + SUM(%d opponent secret numbers)", secret, cfg.Opponents))
	c.boxLine("")
	c.printf("%s\n", strings.Repeat("-", boxWidth+2))
	return nil
}

// NextQuote prints the round banner and reads one line of input.
func (c *Console) NextQuote(ctx context.Context, round int) (string, error) {
	c.printf("\n%s Round %d %s\n", strings.Repeat("*", 25), round, strings.Repeat("*", 25))
	c.printf("Enter a quote>")
	return c.readLine(ctx)
}

// ShowRound prints every opponent's response and position, then the
// maker's stats.
func (c *Console) ShowRound(g *engine.Game, r *engine.Round) {
	if !r.Quoted {
		c.printf("%s\n", malformedNotice)
	}

	opps := g.Opponents()
	for i, res := range r.Results {
		price := "--"
		if res.Price != nil {
			price = strconv.FormatInt(*res.Price, 10)
		}

		position := hiddenField + "@" + hiddenField
		if !c.opts.HardMode && i < len(opps) {
			position = formatPosition(opps[i].Balance())
		}
		c.printf("|\tPlayer: %s %s @ %s \t\t Current position: %s\n", res.OpponentID, res.Decision.Label(), price, position)
	}
	c.printf("%s\n", strings.Repeat("-", 47))

	b := g.Maker().Balance()
	c.printf("Your stats:\t cash: %d\tstock: %d\tpnl: %d\n", b.Cash, b.Inventory, b.RealizedPnL)
}

// ShowSettlement reveals every opponent's hidden value, the fair value,
// how the maker's inventory was closed, and the total P&L.
func (c *Console) ShowSettlement(ctx context.Context, makerID string, s *engine.Settlement) error {
	c.printf("%s Statistics %s\n", strings.Repeat("*", 20), strings.Repeat("*", 20))
	c.printf("Revealing secret numbers...\n")
	if err := c.pause(ctx, c.opts.Pace); err != nil {
		return err
	}
	for _, r := range s.Reveals {
		if r.ParticipantID == makerID {
			continue
		}
		c.printf("Player %s: %d\n", r.ParticipantID, r.HiddenValue)
		if err := c.pause(ctx, c.opts.Pace/2); err != nil {
			return err
		}
	}
	c.printf("This means the fair value is: %d\n", s.FairValue)
	c.printf("Computing your total pnl....\n")
	if err := c.pause(ctx, 2*c.opts.Pace); err != nil {
		return err
	}

	switch {
	case s.Inventory > 0:
		c.printf("You have %d stocks\n", s.Inventory)
		c.printf("Exchanging your stock for cash...\n")
	case s.Inventory < 0:
		c.printf("You are short %d stock\n", -s.Inventory)
		c.printf("Covering your short position...\n")
	}
	if err := c.pause(ctx, c.opts.Pace/2); err != nil {
		return err
	}
	c.printf("Total pnl: >>>||  %d  ||<<<\n", s.PnL)
	return nil
}

// readLine returns the next input line without its line ending. A final
// line without a newline is returned; EOF on an empty read is an error.
// It returns ctx.Err() as soon as ctx is done, even mid-read.
func (c *Console) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.readerOnce.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", c.readErr
		}
		if l.err != nil && !(errors.Is(l.err, io.EOF) && l.text != "") {
			return "", l.err
		}
		return strings.TrimRight(l.text, "\r\n"), nil
	}
}

// readLines feeds lines until the first read error, which is kept for
// every later readLine.
func (c *Console) readLines() {
	defer close(c.lines)
	for {
		text, err := c.in.ReadString('\n')
		if err != nil {
			c.readErr = err
		}
		c.lines <- inputLine{text: text, err: err}
		if err != nil {
			return
		}
	}
}

func (c *Console) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Console) boxLine(text string) {
	pad := max(boxWidth-len(text), 0)
	left := pad / 2
	c.printf("|%s%s%s|\n", strings.Repeat(" ", left), text, strings.Repeat(" ", pad-left))
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// formatPosition renders inventory@average-cost, e.g. "-1@20".
func formatPosition(b domain.Balance) string {
	return strconv.FormatInt(b.Inventory, 10) + "@" + strconv.FormatFloat(b.AverageCost(), 'f', -1, 64)
}
