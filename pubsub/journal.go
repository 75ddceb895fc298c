package pubsub

import (
	"context"
	"log/slog"
	"time"
)

// TurnEvent describes one step of a question's lifecycle.
type TurnEvent struct {
	Seq      int
	Input    string
	Decision string
	Elapsed  time.Duration
	Err      error
}

// Journal logs every turn event from sub until the subscription closes. The
// returned channel is closed once the journal has drained.
func Journal(ctx context.Context, sub Subscriber[TurnEvent], log *slog.Logger) <-chan struct{} {
	events := sub.Subscribe(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range events {
			p := ev.Payload
			attrs := []any{"seq", p.Seq}
			switch ev.Type {
			case TurnStarted:
				log.Debug("turn started", append(attrs, "input", p.Input)...)
			case TurnAnswered:
				log.Info("turn answered", append(attrs, "decision", p.Decision, "elapsed", p.Elapsed)...)
			case TurnRejected:
				log.Warn("turn rejected", append(attrs, "decision", p.Decision, "error", p.Err)...)
			case TurnFailed:
				log.Error("turn failed", append(attrs, "elapsed", p.Elapsed, "error", p.Err)...)
			}
		}
	}()

	return done
}
