// Package console plays an arena game in a terminal.
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

	"github.com/mayssameid/Clash-of-Digits/internal/arena"
)

// Renderer prints arena events as plain text. It is safe to use from the
// arena loop and the input goroutine at the same time.
type Renderer struct {
	mu      sync.Mutex
	w       io.Writer
	answers []int
	names   [2]string
}

func NewRenderer(w io.Writer, cfg arena.Config) *Renderer {
	cfg = cfg.Normalize()
	return &Renderer{w: w, names: [2]string{cfg.Player1, cfg.Player2}}
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// Notice prints a one-line message outside the game event stream.
func (r *Renderer) Notice(msg string) {
	r.printf("%s\n", msg)
}

func (r *Renderer) Question(v arena.QuestionView) {
	r.mu.Lock()
	r.answers = append(r.answers[:0], v.Answers...)
	r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d/%d  %s\n", v.Number, v.Total, r.scoreLine(v.Scores))
	fmt.Fprintf(&b, "%s's turn: %s\n", v.PlayerName, v.Text)
	for i, a := range v.Answers {
		fmt.Fprintf(&b, "  %d) %d\n", i+1, a)
	}
	if v.ComputerTurn {
		b.WriteString("Computer is thinking...\n")
	}
	r.printf("%s", b.String())
}

func (r *Renderer) Tick(t arena.Tick) {
	switch {
	case t.Cue:
		r.printf("\a%ds left!\n", t.Remaining)
	case t.Remaining == 0:
		r.printf("Time's up!\n")
	}
}

func (r *Renderer) Reveal(v arena.RevealView) {
	r.mu.Lock()
	correct := valueAt(r.answers, v.Correct)
	r.mu.Unlock()

	name := r.names[v.Responder]
	if v.TimedOut {
		r.printf("%s ran out of time. The answer was %s.\n", name, correct)
		return
	}
	r.mu.Lock()
	selected := valueAt(r.answers, v.Selected)
	r.mu.Unlock()
	r.printf("%s picked %s. The answer was %s.\n", name, selected, correct)
}

func (r *Renderer) Feedback(correct bool) {
	if correct {
		r.printf("Correct!\n")
		return
	}
	r.printf("Wrong!\n")
}

func (r *Renderer) Next(v arena.NextView) {
	r.printf("Up next: %s. Press Enter for question %d.\n", v.PlayerName, v.Number)
}

func (r *Renderer) Summary(s arena.Summary) {
	var b strings.Builder
	b.WriteString("\nGame over\n")
	for _, p := range s.Players {
		fmt.Fprintf(&b, "  %-12s %2d correct  %4d points\n", p.Name, p.Correct, p.Points)
	}
	if s.Tie {
		b.WriteString("It's a tie!\n")
	} else {
		fmt.Fprintf(&b, "%s wins!\n", s.WinnerName())
	}
	r.printf("%s", b.String())
}

func (r *Renderer) scoreLine(scores [2]arena.PlayerScore) string {
	return fmt.Sprintf("[%s %d : %d %s]", r.names[0], scores[0].Score, scores[1].Score, r.names[1])
}

func valueAt(answers []int, i int) string {
	if i < 0 || i >= len(answers) {
		return "?"
	}
	return strconv.Itoa(answers[i])
}

// Controller is the part of arena.Loop driven by keyboard input.
type Controller interface {
	Select(choice int) error
	Advance() error
}

// ReadInput forwards lines from in to ctl until in is exhausted, ctx is done or
// the player types "q". A number 1-4 picks an answer; an empty line advances.
func ReadInput(ctx context.Context, in io.Reader, ctl Controller, r *Renderer) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-done:
				return
			}
		}
	}()

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		var err error
		switch {
		case line == "q" || line == "quit":
			return nil
		case line == "":
			err = ctl.Advance()
		default:
			n, convErr := strconv.Atoi(line)
			if convErr != nil || n < 1 || n > arena.ChoiceCount {
				r.Notice(fmt.Sprintf("Type 1-%d to answer, Enter to continue, q to quit.", arena.ChoiceCount))
				continue
			}
			err = ctl.Select(n - 1)
		}

		switch {
		case err == nil:
		case errors.Is(err, arena.ErrLoopStopped), errors.Is(err, arena.ErrGameOver):
			return nil
		case errors.Is(err, arena.ErrInputDisabled), errors.Is(err, arena.ErrNotAwaitingNext):
			r.Notice("Not now.")
		default:
			return err
		}
	}
}
