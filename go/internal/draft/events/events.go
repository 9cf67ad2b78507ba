// Package events defines the typed stream every draft room sees and the
// envelope used to carry it through the outbox, NATS and websockets.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names an event on the draft stream.
type Type string

const (
	TypeState            Type = "state"
	TypeUserConnected    Type = "user_connected"
	TypeUserDisconnected Type = "user_disconnected"
	TypeDraftStarted     Type = "draft_started"
	TypeDraftPaused      Type = "draft_paused"
	TypeDraftResumed     Type = "draft_resumed"
	TypeOrderUpdated     Type = "order_updated"
	TypeConfigUpdated    Type = "configuration_updated"
	TypePickMade         Type = "pick_made"
	TypeAutoPick         Type = "auto_pick"
	TypeSkip             Type = "skip"
	TypeCatchUpAvailable Type = "catch_up_available"
	TypeCatchUpMade      Type = "catch_up_made"
	TypeClockTick        Type = "clock_tick"
	TypeCompleted        Type = "completed"
	TypeChatMessage      Type = "chat_message"
	TypeQueueUpdated     Type = "queue_updated"
	TypeError            Type = "error"
)

var knownTypes = map[Type]bool{
	TypeState: true, TypeUserConnected: true, TypeUserDisconnected: true,
	TypeDraftStarted: true, TypeDraftPaused: true, TypeDraftResumed: true,
	TypeOrderUpdated: true, TypeConfigUpdated: true,
	TypePickMade: true, TypeAutoPick: true, TypeSkip: true,
	TypeCatchUpAvailable: true, TypeCatchUpMade: true, TypeClockTick: true,
	TypeCompleted: true, TypeChatMessage: true, TypeQueueUpdated: true,
	TypeError: true,
}

// Known reports whether t is part of the stream catalog.
func (t Type) Known() bool { return knownTypes[t] }

// Envelope wraps a payload with routing metadata.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New marshals payload into a fresh envelope.
func New(draftID uuid.UUID, typ Type, payload any, at time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return Envelope{
		ID:        uuid.New(),
		DraftID:   draftID,
		Type:      typ,
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}

// MustNew is New for payloads that are plain structs and cannot fail to marshal.
func MustNew(draftID uuid.UUID, typ Type, payload any, at time.Time) Envelope {
	env, err := New(draftID, typ, payload, at)
	if err != nil {
		panic(err)
	}
	return env
}

// Validate checks the envelope before it is written to the outbox.
func (e Envelope) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("event id is required")
	}
	if e.DraftID == uuid.Nil {
		return fmt.Errorf("draft id is required")
	}
	if !e.Type.Known() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if len(e.Data) == 0 || !json.Valid(e.Data) {
		return fmt.Errorf("payload must be valid JSON")
	}
	return nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}
