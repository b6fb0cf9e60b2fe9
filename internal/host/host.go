// Package host drives interactive study sessions. A session is a Machine
// that turns one line of input into the next batch of output; hosts own the
// actual terminal I/O.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"study-ai/internal/models"
)

// ErrAborted is returned when input ends before the session reaches a terminal state.
var ErrAborted = errors.New("session aborted before completion")

// Output is what a session wants shown after a transition.
type Output struct {
	Lines  []string
	Prompt string
	Done   bool

	// Rating is set when the learner graded the card in Card.
	Rating models.Rating
	Card   models.FlashcardRecord
}

// Machine is a turn-based session. Handle must not be called once Done reports true.
type Machine interface {
	Start() Output
	Handle(input string) Output
	Done() bool
}

// Observer is notified of every output a session produces, after it has been rendered.
type Observer func(Output)

// Console runs a session over line-oriented reader/writer pairs.
//
// A Console must not be reused after Run returns because ctx was cancelled:
// a read may still be pending on the input, and the next line it receives
// is consumed and discarded. Build a new Console over a fresh reader instead.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Run starts m and feeds it one line at a time until it is done. It returns
// ErrAborted when input runs out or ctx is cancelled first.
func (c *Console) Run(ctx context.Context, m Machine, observe Observer) error {
	if err := c.emit(m.Start(), observe); err != nil {
		return err
	}
	stop := make(chan struct{})
	defer close(stop)
	lines := c.readLines(stop)

	for !m.Done() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}
		var r readResult
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		case r = <-lines:
		}
		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				return ErrAborted
			}
			return fmt.Errorf("read input: %w", r.err)
		}
		if err := c.emit(m.Handle(r.line), observe); err != nil {
			return err
		}
	}
	return nil
}

type readResult struct {
	line string
	err  error
}

// readLines feeds input lines to the returned channel until a read fails or
// stop is closed, so a blocked read never holds up cancellation.
func (c *Console) readLines(stop <-chan struct{}) <-chan readResult {
	out := make(chan readResult)
	go func() {
		for {
			line, err := c.readLine()
			select {
			case out <- readResult{line: line, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		// A final line without a newline still counts.
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) emit(out Output, observe Observer) error {
	for _, line := range out.Lines {
		if _, err := fmt.Fprintln(c.out, line); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if out.Prompt != "" && !out.Done {
		if _, err := fmt.Fprint(c.out, out.Prompt); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}
	}
	if observe != nil {
		observe(out)
	}
	return nil
}
