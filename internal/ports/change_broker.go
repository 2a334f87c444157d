package ports

import (
	"context"
	"time"
)

// ChangeEvent announces that a collection was rewritten.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Count      int       `json:"count"`
	At         time.Time `json:"at"`
}

// Contract for broadcasting collection changes to every open reader.
type ChangeBroker interface {
	Subscribe() <-chan ChangeEvent
	Unsubscribe(ch <-chan ChangeEvent)
	// Publish must not block on slow subscribers.
	Publish(ctx context.Context, evt ChangeEvent)
}
