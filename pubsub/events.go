package pubsub

import "context"

// Turn lifecycle events published by the conversational loop.
const (
	TurnStarted  EventType = "turn_started"
	TurnAnswered EventType = "turn_answered"
	TurnRejected EventType = "turn_rejected"
	TurnFailed   EventType = "turn_failed"
)

type (
	EventType string

	Event[T any] struct {
		Type    EventType
		Payload T
	}

	Publisher[T any] interface {
		Publish(EventType, T)
	}

	Subscriber[T any] interface {
		// Subscribe returns a channel closed when ctx ends.
		Subscribe(context.Context) <-chan Event[T]
	}
)
