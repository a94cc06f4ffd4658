package linq

import (
	"context"
	"net/http"
	"time"
)

// Message part types.
const (
	PartTypeText  = "text"
	PartTypeMedia = "media"
)

// MessagePart is one piece of a message body: text, or media by URL or
// attachment ID.
type MessagePart struct {
	Type         string `json:"type"`
	Value        string `json:"value,omitempty"`
	URL          string `json:"url,omitempty"`
	AttachmentID string `json:"attachment_id,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
}

// TextPart is a convenience constructor for a text message part.
func TextPart(value string) MessagePart {
	return MessagePart{Type: PartTypeText, Value: value}
}

// MessageContent is the body of an outgoing message.
type MessageContent struct {
	Parts            []MessagePart `json:"parts"`
	ReplyToMessageID string        `json:"reply_to_message_id,omitempty"`
	Effect           string        `json:"effect,omitempty"`
}

// Message is a message sent or received in a chat.
type Message struct {
	ID               string        `json:"id"`
	ChatID           string        `json:"chat_id"`
	From             string        `json:"from,omitempty"`
	IsFromMe         bool          `json:"is_from_me"`
	Service          string        `json:"service,omitempty"`
	Parts            []MessagePart `json:"parts,omitempty"`
	ReplyToMessageID string        `json:"reply_to_message_id,omitempty"`
	Status           string        `json:"status,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	SentAt           *time.Time    `json:"sent_at,omitempty"`
	DeliveredAt      *time.Time    `json:"delivered_at,omitempty"`
	ReadAt           *time.Time    `json:"read_at,omitempty"`
}

// SendMessageRequest sends a message to an existing chat.
type SendMessageRequest struct {
	Message MessageContent `json:"message"`
}

// SendMessageResponse is returned when a message has been queued for delivery.
type SendMessageResponse struct {
	ChatID  string  `json:"chat_id,omitempty"`
	Message Message `json:"message"`
}

// VoiceMemoRequest sends an audio file, hosted at VoiceMemoURL, as a voice memo.
type VoiceMemoRequest struct {
	From         string `json:"from"`
	VoiceMemoURL string `json:"voice_memo_url"`
}

// DeleteMessageRequest identifies the chat a deleted message belongs to.
type DeleteMessageRequest struct {
	ChatID string `json:"chat_id"`
}

// Reaction operations and types.
const (
	ReactionAdd    = "add"
	ReactionRemove = "remove"

	ReactionLove      = "love"
	ReactionLike      = "like"
	ReactionDislike   = "dislike"
	ReactionLaugh     = "laugh"
	ReactionEmphasize = "emphasize"
	ReactionQuestion  = "question"
)

// ReactionRequest adds or removes a tapback on a message.
type ReactionRequest struct {
	Operation string `json:"operation"`
	Type      string `json:"type"`
}

// ListMessagesParams pages through the messages of a chat.
type ListMessagesParams struct {
	Limit  int
	Cursor string
}

// WithCursor returns a copy of p positioned at cursor.
func (p *ListMessagesParams) WithCursor(cursor string) *ListMessagesParams {
	next := ListMessagesParams{}
	if p != nil {
		next = *p
	}
	next.Cursor = cursor
	return &next
}

func (p *ListMessagesParams) query() Query {
	if p == nil {
		return nil
	}
	return Query{}.
		Set("limit", positive(p.Limit)).
		Set("cursor", nonEmpty(p.Cursor))
}

// ThreadParams pages through the replies of a message thread. Order is
// "asc" or "desc".
type ThreadParams struct {
	Limit  int
	Cursor string
	Order  string
}

// WithCursor returns a copy of p positioned at cursor.
func (p *ThreadParams) WithCursor(cursor string) *ThreadParams {
	next := ThreadParams{}
	if p != nil {
		next = *p
	}
	next.Cursor = cursor
	return &next
}

func (p *ThreadParams) query() Query {
	if p == nil {
		return nil
	}
	return Query{}.
		Set("limit", positive(p.Limit)).
		Set("cursor", nonEmpty(p.Cursor)).
		Set("order", nonEmpty(p.Order))
}

// MessagePage is one page of messages.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func (p *MessagePage) items() []Message {
	if p == nil {
		return nil
	}
	return p.Messages
}

func (p *MessagePage) cursor() string {
	if p == nil {
		return ""
	}
	return p.NextCursor
}

// MessagesService handles communication with the message related methods.
type MessagesService struct {
	client *Client
}

// SendToChat sends a message to an existing chat.
func (s *MessagesService) SendToChat(ctx context.Context, chatID string, body *SendMessageRequest, opts ...RequestOption) (*SendMessageResponse, error) {
	return do[SendMessageResponse](ctx, s.client, &Request{
		Method:     http.MethodPost,
		Path:       "/v3/chats/{chatId}/messages",
		PathParams: map[string]any{"chatId": chatID},
		Body:       body,
	}, opts)
}

// ListByChat fetches one page of a chat's messages.
func (s *MessagesService) ListByChat(ctx context.Context, chatID string, params *ListMessagesParams, opts ...RequestOption) (*MessagePage, error) {
	return do[MessagePage](ctx, s.client, &Request{
		Method:     http.MethodGet,
		Path:       "/v3/chats/{chatId}/messages",
		PathParams: map[string]any{"chatId": chatID},
		Query:      params.query(),
	}, opts)
}

// ListAllByChat iterates over every message of a chat.
func (s *MessagesService) ListAllByChat(chatID string, params *ListMessagesParams, opts ...RequestOption) *CursorIterator[*ListMessagesParams, *MessagePage, Message] {
	initial := &ListMessagesParams{}
	if params != nil {
		*initial = *params
	}
	return NewCursorIterator(
		initial,
		func(ctx context.Context, p *ListMessagesParams) (*MessagePage, error) {
			return s.ListByChat(ctx, chatID, p, opts...)
		},
		(*MessagePage).items,
		(*MessagePage).cursor,
	)
}

// GetThread fetches one page of the replies to a message.
func (s *MessagesService) GetThread(ctx context.Context, messageID string, params *ThreadParams, opts ...RequestOption) (*MessagePage, error) {
	return do[MessagePage](ctx, s.client, &Request{
		Method:     http.MethodGet,
		Path:       "/v3/messages/{messageId}/thread",
		PathParams: map[string]any{"messageId": messageID},
		Query:      params.query(),
	}, opts)
}

// ListAllThreadMessages iterates over every reply in a message thread.
func (s *MessagesService) ListAllThreadMessages(messageID string, params *ThreadParams, opts ...RequestOption) *CursorIterator[*ThreadParams, *MessagePage, Message] {
	initial := &ThreadParams{}
	if params != nil {
		*initial = *params
	}
	return NewCursorIterator(
		initial,
		func(ctx context.Context, p *ThreadParams) (*MessagePage, error) {
			return s.GetThread(ctx, messageID, p, opts...)
		},
		(*MessagePage).items,
		(*MessagePage).cursor,
	)
}

// SendVoiceMemoToChat sends a voice memo to an existing chat.
func (s *MessagesService) SendVoiceMemoToChat(ctx context.Context, chatID string, body *VoiceMemoRequest, opts ...RequestOption) (*SendMessageResponse, error) {
	return do[SendMessageResponse](ctx, s.client, &Request{
		Method:     http.MethodPost,
		Path:       "/v3/chats/{chatId}/voicememo",
		PathParams: map[string]any{"chatId": chatID},
		Body:       body,
	}, opts)
}

// Get fetches a single message by its ID.
func (s *MessagesService) Get(ctx context.Context, messageID string, opts ...RequestOption) (*Message, error) {
	return do[Message](ctx, s.client, &Request{
		Method:     http.MethodGet,
		Path:       "/v3/messages/{messageId}",
		PathParams: map[string]any{"messageId": messageID},
	}, opts)
}

// Delete removes a message from a chat.
func (s *MessagesService) Delete(ctx context.Context, messageID string, body *DeleteMessageRequest, opts ...RequestOption) error {
	_, err := s.client.Execute(ctx, &Request{
		Method:     http.MethodDelete,
		Path:       "/v3/messages/{messageId}",
		PathParams: map[string]any{"messageId": messageID},
		Body:       body,
	}, opts...)
	return err
}

// SendReaction adds or removes a tapback on a message.
func (s *MessagesService) SendReaction(ctx context.Context, messageID string, body *ReactionRequest, opts ...RequestOption) (*ActionResponse, error) {
	return do[ActionResponse](ctx, s.client, &Request{
		Method:     http.MethodPost,
		Path:       "/v3/messages/{messageId}/reactions",
		PathParams: map[string]any{"messageId": messageID},
		Body:       body,
	}, opts)
}

// positive and nonEmpty turn zero values into nil so Query leaves them out.
func positive(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
