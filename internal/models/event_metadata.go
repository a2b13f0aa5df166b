package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Метаданные событий аудита. Каждому типу события соответствует своя
// структура с полем kind, чтобы журнал оставался машиночитаемым.

type ViewedMetadata struct {
	Kind string `json:"kind"`
}

type AcceptedMetadata struct {
	Kind  string    `json:"kind"`
	Actor uuid.UUID `json:"actor"`
}

type DeclinedMetadata struct {
	Kind   string     `json:"kind"`
	Actor  *uuid.UUID `json:"actor,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

type ExpiredMetadata struct {
	Kind      string `json:"kind"`
	ExpiredAt string `json:"expired_at"`
}

type ReminderMetadata struct {
	Kind      string `json:"kind"`
	ExpiresAt string `json:"expires_at"`
}

// MarshalEventMetadata сериализует метаданные, проставляя kind по типу события.
func MarshalEventMetadata(meta interface{}) json.RawMessage {
	switch m := meta.(type) {
	case ViewedMetadata:
		m.Kind = EventViewed
		meta = m
	case AcceptedMetadata:
		m.Kind = EventAccepted
		meta = m
	case DeclinedMetadata:
		m.Kind = EventDeclined
		meta = m
	case ExpiredMetadata:
		m.Kind = EventExpired
		meta = m
	case ReminderMetadata:
		m.Kind = EventReminderSent
		meta = m
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
