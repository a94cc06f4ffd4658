package linq

import (
	"context"
	"net/http"
	"time"
)

// Chat is a conversation between a partner phone number and one or more handles.
type Chat struct {
	ID           string        `json:"id"`
	DisplayName  string        `json:"display_name,omitempty"`
	IsGroup      bool          `json:"is_group"`
	Service      string        `json:"service,omitempty"`
	Handles      []ChatHandle  `json:"handles,omitempty"`
	LastMessage  *Message      `json:"last_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Participants []Participant `json:"participants,omitempty"`
}

// ChatHandle is a phone number or email address taking part in a chat.
type ChatHandle struct {
	Handle  string `json:"handle"`
	Service string `json:"service,omitempty"`
	IsMe    bool   `json:"is_me,omitempty"`
}

// Participant is a member of a group chat.
type Participant struct {
	Handle   string     `json:"handle"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// CreateChatRequest opens a chat and sends its first message.
type CreateChatRequest struct {
	From    string         `json:"from"`
	To      []string       `json:"to"`
	Message MessageContent `json:"message"`
}

// CreateChatResponse is returned by ChatsService.Create.
type CreateChatResponse struct {
	Chat    Chat     `json:"chat"`
	Message *Message `json:"message,omitempty"`
}

// UpdateChatRequest changes the mutable properties of a chat.
type UpdateChatRequest struct {
	DisplayName string `json:"display_name,omitempty"`
}

// ParticipantRequest names the handle to add to or remove from a group chat.
type ParticipantRequest struct {
	Handle string `json:"handle"`
}

// ActionResponse acknowledges an accepted asynchronous operation.
type ActionResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ListChatsParams filters ChatsService.List. From is required by the API.
type ListChatsParams struct {
	From   string
	Limit  int
	Cursor string
}

// WithCursor returns a copy of p positioned at cursor.
func (p *ListChatsParams) WithCursor(cursor string) *ListChatsParams {
	next := ListChatsParams{}
	if p != nil {
		next = *p
	}
	next.Cursor = cursor
	return &next
}

func (p *ListChatsParams) query() Query {
	if p == nil {
		return nil
	}
	return Query{}.
		Set("from", nonEmpty(p.From)).
		Set("limit", positive(p.Limit)).
		Set("cursor", nonEmpty(p.Cursor))
}

// ChatPage is one page of chats.
type ChatPage struct {
	Chats      []Chat `json:"chats"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// items and cursor accept the nil page a 204 reply decodes to.
func (p *ChatPage) items() []Chat {
	if p == nil {
		return nil
	}
	return p.Chats
}

func (p *ChatPage) cursor() string {
	if p == nil {
		return ""
	}
	return p.NextCursor
}

// ChatsService handles communication with the chat related methods.
type ChatsService struct {
	client *Client
}

// Create starts a new chat from a partner number and sends the first message.
func (s *ChatsService) Create(ctx context.Context, body *CreateChatRequest, opts ...RequestOption) (*CreateChatResponse, error) {
	return do[CreateChatResponse](ctx, s.client, &Request{
		Method: http.MethodPost,
		Path:   "/v3/chats",
		Body:   body,
	}, opts)
}

// List fetches one page of chats.
func (s *ChatsService) List(ctx context.Context, params *ListChatsParams, opts ...RequestOption) (*ChatPage, error) {
	return do[ChatPage](ctx, s.client, &Request{
		Method: http.MethodGet,
		Path:   "/v3/chats",
		Query:  params.query(),
	}, opts)
}

// ListAll iterates over every chat, following next_cursor across pages.
func (s *ChatsService) ListAll(params *ListChatsParams, opts ...RequestOption) *CursorIterator[*ListChatsParams, *ChatPage, Chat] {
	initial := &ListChatsParams{}
	if params != nil {
		*initial = *params
	}
	return NewCursorIterator(
		initial,
		func(ctx context.Context, p *ListChatsParams) (*ChatPage, error) {
			return s.List(ctx, p, opts...)
		},
		(*ChatPage).items,
		(*ChatPage).cursor,
	)
}

// Get fetches a single chat by its ID.
func (s *ChatsService) Get(ctx context.Context, chatID string, opts ...RequestOption) (*Chat, error) {
	return do[Chat](ctx, s.client, &Request{
		Method:     http.MethodGet,
		Path:       "/v3/chats/{chatId}",
		PathParams: map[string]any{"chatId": chatID},
	}, opts)
}

// Update renames a chat.
func (s *ChatsService) Update(ctx context.Context, chatID string, body *UpdateChatRequest, opts ...RequestOption) (*Chat, error) {
	return do[Chat](ctx, s.client, &Request{
		Method:     http.MethodPut,
		Path:       "/v3/chats/{chatId}",
		PathParams: map[string]any{"chatId": chatID},
		Body:       body,
	}, opts)
}

// AddParticipant adds a handle to a group chat.
func (s *ChatsService) AddParticipant(ctx context.Context, chatID string, body *ParticipantRequest, opts ...RequestOption) (*ActionResponse, error) {
	return do[ActionResponse](ctx, s.client, &Request{
		Method:     http.MethodPost,
		Path:       "/v3/chats/{chatId}/participants",
		PathParams: map[string]any{"chatId": chatID},
		Body:       body,
	}, opts)
}

// RemoveParticipant removes a handle from a group chat.
func (s *ChatsService) RemoveParticipant(ctx context.Context, chatID string, body *ParticipantRequest, opts ...RequestOption) (*ActionResponse, error) {
	return do[ActionResponse](ctx, s.client, &Request{
		Method:     http.MethodDelete,
		Path:       "/v3/chats/{chatId}/participants",
		PathParams: map[string]any{"chatId": chatID},
		Body:       body,
	}, opts)
}

// StartTyping shows the typing indicator in a chat.
func (s *ChatsService) StartTyping(ctx context.Context, chatID string, opts ...RequestOption) error {
	return s.noContent(ctx, http.MethodPost, "/v3/chats/{chatId}/typing", chatID, opts)
}

// StopTyping hides the typing indicator in a chat.
func (s *ChatsService) StopTyping(ctx context.Context, chatID string, opts ...RequestOption) error {
	return s.noContent(ctx, http.MethodDelete, "/v3/chats/{chatId}/typing", chatID, opts)
}

// MarkAsRead marks every message of a chat as read.
func (s *ChatsService) MarkAsRead(ctx context.Context, chatID string, opts ...RequestOption) error {
	return s.noContent(ctx, http.MethodPost, "/v3/chats/{chatId}/read", chatID, opts)
}

// ShareContactCard sends the partner's contact card to a chat.
func (s *ChatsService) ShareContactCard(ctx context.Context, chatID string, opts ...RequestOption) error {
	return s.noContent(ctx, http.MethodPost, "/v3/chats/{chatId}/share_contact_card", chatID, opts)
}

func (s *ChatsService) noContent(ctx context.Context, method, path, chatID string, opts []RequestOption) error {
	_, err := s.client.Execute(ctx, &Request{
		Method:     method,
		Path:       path,
		PathParams: map[string]any{"chatId": chatID},
	}, opts...)
	return err
}
