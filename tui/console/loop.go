// Package console runs the question and answer loop on a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"legisqa/llm"
	"legisqa/llm/agent"
	"legisqa/pubsub"
	"legisqa/tui/renderer"
)

const (
	// Prompt is printed, preceded by a newline, before every question.
	Prompt = "Digite sua questão (ou 'q' para sair) : "
	// AnswerHeading precedes every answer, after a blank line.
	AnswerHeading = "--- Final answer ---"
)

// Router answers one question.
type Router interface {
	Route(ctx context.Context, input string) (*llm.Turn, error)
}

// Loop reads questions from In and writes answers to Out until the user
// types q, In is exhausted, ctx ends, or routing fails with an error other
// than an unrecognized classification.
type Loop struct {
	In     io.Reader
	Out    io.Writer
	Router Router

	// Optional.
	Events   pubsub.Publisher[pubsub.TurnEvent]
	Logger   *slog.Logger
	Renderer *renderer.Renderer
	// Spinner wraps each routing call, e.g. to animate while waiting.
	Spinner func(ctx context.Context, fn func() error) error
}

// IsExit reports whether line asks to leave the loop.
func IsExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), "q")
}

type lineResult struct {
	text string
	err  error
	eof  bool
}

// Run drives the loop. It returns nil on q or end of input, ctx.Err() on
// cancellation, and the routing error that stopped the loop otherwise.
func (l *Loop) Run(ctx context.Context) error {
	if l.Router == nil {
		return errors.New("console: router is required")
	}
	if l.Renderer == nil {
		l.Renderer = renderer.Plain()
	}
	if l.Logger == nil {
		l.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	lines := l.readLines(ctx)
	for seq := 1; ; seq++ {
		fmt.Fprint(l.Out, "\n"+Prompt)

		var res lineResult
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.Out)
			return ctx.Err()
		case res = <-lines:
		}
		if res.err != nil {
			return fmt.Errorf("read question: %w", res.err)
		}
		if res.eof || IsExit(res.text) {
			return nil
		}

		if err := l.process(ctx, seq, res.text); err != nil {
			return err
		}
	}
}

// readLines feeds lines from In one at a time; the next line is read only
// after the previous one has been taken.
func (l *Loop) readLines(ctx context.Context) <-chan lineResult {
	out := make(chan lineResult)
	go func() {
		scanner := bufio.NewScanner(l.In)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case out <- lineResult{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		final := lineResult{eof: true}
		if err := scanner.Err(); err != nil {
			final = lineResult{err: err}
		}
		select {
		case out <- final:
		case <-ctx.Done():
		}
	}()
	return out
}

func (l *Loop) process(ctx context.Context, seq int, input string) error {
	l.publish(pubsub.TurnStarted, pubsub.TurnEvent{Seq: seq, Input: input})
	start := time.Now()

	var turn *llm.Turn
	route := func() error {
		var err error
		turn, err = l.Router.Route(ctx, input)
		return err
	}

	var err error
	if l.Spinner != nil {
		err = l.Spinner(ctx, route)
	} else {
		err = route()
	}
	elapsed := time.Since(start)

	if err != nil {
		var cerr *agent.ClassificationError
		if errors.As(err, &cerr) {
			l.publish(pubsub.TurnRejected, pubsub.TurnEvent{Seq: seq, Decision: cerr.Label, Elapsed: elapsed, Err: err})
			fmt.Fprintln(l.Out, l.Renderer.Error(fmt.Sprintf("Não foi possível classificar a questão (resposta do classificador: %q).", cerr.Label)))
			return nil
		}
		l.publish(pubsub.TurnFailed, pubsub.TurnEvent{Seq: seq, Elapsed: elapsed, Err: err})
		l.Logger.Error("routing failed", "error", err)
		return err
	}

	fmt.Fprintln(l.Out)
	fmt.Fprintln(l.Out, l.Renderer.Heading(AnswerHeading))
	fmt.Fprintln(l.Out, l.Renderer.Answer(turn.Output))
	l.publish(pubsub.TurnAnswered, pubsub.TurnEvent{Seq: seq, Decision: turn.Decision.String(), Elapsed: elapsed})
	return nil
}

func (l *Loop) publish(t pubsub.EventType, ev pubsub.TurnEvent) {
	if l.Events != nil {
		l.Events.Publish(t, ev)
	}
}
