package dom

import "context"

// EventChange fires when the user commits an edit.
const EventChange = "change"

// Event is delivered to listeners.
type Event struct {
	Type   string
	Target *Element
}

// Listener handles an event.
type Listener func(ctx context.Context, ev Event)
