package models

import (
	"encoding/json"
	"fmt"
)

// Client-to-server socket events.
const (
	EventAuthenticate = "authenticate"
	EventSendMessage  = "send_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
)

// Server-to-client socket events.
const (
	EventAuthenticated     = "authenticated"
	EventAuthError         = "auth_error"
	EventMessageReceived   = "message_received"
	EventMessageSent       = "message_sent"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventUserOnline        = "user_online"
	EventUserOffline       = "user_offline"
	EventError             = "error"
)

// SocketEvent is the wire envelope of the real-time channel. Each event
// name selects one payload variant; unrecognized names and malformed
// payloads are rejected rather than silently ignored.
type SocketEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewSocketEvent(name string, payload any) SocketEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload variants are plain structs; marshalling them cannot
		// fail at runtime, so treat it as a programming error.
		panic(fmt.Sprintf("marshal %s payload: %v", name, err))
	}
	return SocketEvent{Name: name, Data: data}
}

func (e SocketEvent) DecodePayload(out any) error {
	if len(e.Data) == 0 {
		return Validationf("missing payload for %q event", e.Name)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return Validationf("malformed payload for %q event", e.Name)
	}
	return nil
}

type AuthenticatePayload struct {
	Token string `json:"token" validate:"required"`
}

type SendMessagePayload struct {
	ChatID      string `json:"chat_id" validate:"required"`
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text"`
	ClientKey   string `json:"client_key" validate:"omitempty,uuid4"`
}

type TypingPayload struct {
	ChatID string `json:"chat_id" validate:"required"`
}

type AuthenticatedPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// MessageEventPayload carries a stored message plus its chat for both
// message_received and message_sent.
type MessageEventPayload struct {
	Message
	ChatID string `json:"chat_id"`
}

type TypingEventPayload struct {
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id"`
}

type PresenceEventPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}
