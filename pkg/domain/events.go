package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSynchronize    EventType = "synchronize"
	EventChangeApplied  EventType = "change_applied"
	EventChangeRejected EventType = "change_rejected"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SheetKey  string    `json:"sheet_key"`
}

// SyncEvent is emitted after every synchronize.
type SyncEvent struct {
	EventBase
	Binders int            `json:"binders"`
	Diff    *UserValueDiff `json:"diff,omitempty"`
}

// ChangeEvent is emitted once per change handled by an update batch.
type ChangeEvent struct {
	EventBase
	Change Change `json:"change"`
	Err    error  `json:"-"`
}

// LifecycleHooks defines callbacks for renderer observability.
type LifecycleHooks struct {
	OnSynchronize    func(context.Context, *SyncEvent)
	OnChangeApplied  func(context.Context, *ChangeEvent)
	OnChangeRejected func(context.Context, *ChangeEvent)
}

// NewEventBase stamps an event of the given type.
func NewEventBase(t EventType, sheetKey string) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t, SheetKey: sheetKey}
}
