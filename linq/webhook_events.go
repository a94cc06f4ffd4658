package linq

import (
	"encoding/json"
	"fmt"
	"time"
)

// WebhookVersion is the webhook payload version this package understands.
const WebhookVersion = "2026-02-03"

// EventType identifies the kind of a webhook event.
type EventType string

// Supported webhook event types.
const (
	EventMessageSent                EventType = "message.sent"
	EventMessageReceived            EventType = "message.received"
	EventMessageRead                EventType = "message.read"
	EventMessageDelivered           EventType = "message.delivered"
	EventMessageFailed              EventType = "message.failed"
	EventReactionAdded              EventType = "reaction.added"
	EventReactionRemoved            EventType = "reaction.removed"
	EventParticipantAdded           EventType = "participant.added"
	EventParticipantRemoved         EventType = "participant.removed"
	EventChatGroupNameUpdated       EventType = "chat.group_name_updated"
	EventChatGroupIconUpdated       EventType = "chat.group_icon_updated"
	EventChatGroupNameUpdateFailed  EventType = "chat.group_name_update_failed"
	EventChatGroupIconUpdateFailed  EventType = "chat.group_icon_update_failed"
	EventChatCreated                EventType = "chat.created"
	EventChatTypingIndicatorStarted EventType = "chat.typing_indicator.started"
	EventChatTypingIndicatorStopped EventType = "chat.typing_indicator.stopped"
)

// eventRegistry lists every supported event type with the constructor of
// its data payload. Parsing, validation and DecodeData all read from it.
var eventRegistry = []struct {
	Type    EventType
	newData func() any
}{
	{EventMessageSent, func() any { return new(MessageEventData) }},
	{EventMessageReceived, func() any { return new(MessageEventData) }},
	{EventMessageRead, func() any { return new(MessageEventData) }},
	{EventMessageDelivered, func() any { return new(MessageEventData) }},
	{EventMessageFailed, func() any { return new(MessageFailedData) }},
	{EventReactionAdded, func() any { return new(ReactionEventData) }},
	{EventReactionRemoved, func() any { return new(ReactionEventData) }},
	{EventParticipantAdded, func() any { return new(ParticipantEventData) }},
	{EventParticipantRemoved, func() any { return new(ParticipantEventData) }},
	{EventChatGroupNameUpdated, func() any { return new(ChatGroupUpdateData) }},
	{EventChatGroupIconUpdated, func() any { return new(ChatGroupUpdateData) }},
	{EventChatGroupNameUpdateFailed, func() any { return new(ChatGroupUpdateFailedData) }},
	{EventChatGroupIconUpdateFailed, func() any { return new(ChatGroupUpdateFailedData) }},
	{EventChatCreated, func() any { return new(ChatCreatedData) }},
	{EventChatTypingIndicatorStarted, func() any { return new(TypingIndicatorData) }},
	{EventChatTypingIndicatorStopped, func() any { return new(TypingIndicatorData) }},
}

var eventDataConstructors = func() map[EventType]func() any {
	m := make(map[EventType]func() any, len(eventRegistry))
	for _, e := range eventRegistry {
		m[e.Type] = e.newData
	}
	return m
}()

// SupportedWebhookEventTypes returns the event types ParseWebhookEvent accepts.
func SupportedWebhookEventTypes() []EventType {
	out := make([]EventType, len(eventRegistry))
	for i, e := range eventRegistry {
		out[i] = e.Type
	}
	return out
}

// Supported reports whether t is a known event type.
func (t EventType) Supported() bool {
	_, ok := eventDataConstructors[t]
	return ok
}

// WebhookEvent is a validated webhook delivery. Data holds the raw
// event-specific payload; DecodeData turns it into the typed struct.
type WebhookEvent struct {
	APIVersion     string          `json:"api_version"`
	WebhookVersion string          `json:"webhook_version"`
	EventType      EventType       `json:"event_type"`
	EventID        string          `json:"event_id"`
	CreatedAt      string          `json:"created_at"`
	TraceID        string          `json:"trace_id"`
	PartnerID      string          `json:"partner_id"`
	Data           json.RawMessage `json:"data"`
}

// Created parses CreatedAt as an RFC 3339 timestamp.
func (e *WebhookEvent) Created() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.CreatedAt)
}

// DecodeData unmarshals Data into the payload type registered for the
// event type, returned as a pointer (for example *MessageEventData).
func (e *WebhookEvent) DecodeData() (any, error) {
	newData, ok := eventDataConstructors[e.EventType]
	if !ok {
		return nil, fmt.Errorf("linq: no payload type for event %q", e.EventType)
	}
	v := newData()
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return nil, fmt.Errorf("linq: decode %s data: %w", e.EventType, err)
	}
	return v, nil
}

// MessageEventData is the payload of message.sent, message.received,
// message.read and message.delivered.
type MessageEventData struct {
	ChatID  string  `json:"chat_id"`
	Message Message `json:"message"`
}

// MessageFailedData is the payload of message.failed.
type MessageFailedData struct {
	ChatID       string   `json:"chat_id"`
	MessageID    string   `json:"message_id"`
	Message      *Message `json:"message,omitempty"`
	ErrorCode    int      `json:"error_code,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// ReactionEventData is the payload of reaction.added and reaction.removed.
type ReactionEventData struct {
	ChatID       string `json:"chat_id"`
	MessageID    string `json:"message_id"`
	ReactionType string `json:"reaction_type"`
	Handle       string `json:"handle"`
	IsFromMe     bool   `json:"is_from_me"`
}

// ParticipantEventData is the payload of participant.added and participant.removed.
type ParticipantEventData struct {
	ChatID string `json:"chat_id"`
	Handle string `json:"handle"`
}

// ChatGroupUpdateData is the payload of the group name and icon update events.
type ChatGroupUpdateData struct {
	ChatID      string `json:"chat_id"`
	DisplayName string `json:"display_name,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	UpdatedBy   string `json:"updated_by,omitempty"`
}

// ChatGroupUpdateFailedData is the payload of the failed group update events.
type ChatGroupUpdateFailedData struct {
	ChatID       string `json:"chat_id"`
	ErrorCode    int    `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ChatCreatedData is the payload of chat.created.
type ChatCreatedData struct {
	Chat Chat `json:"chat"`
}

// TypingIndicatorData is the payload of the typing indicator events.
type TypingIndicatorData struct {
	ChatID string `json:"chat_id"`
	Handle string `json:"handle"`
}
