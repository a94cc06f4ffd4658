package linq

import (
	"context"
	"net/http"
	"time"
)

// WebhookSubscription delivers the listed event types to TargetURL.
type WebhookSubscription struct {
	ID               string      `json:"id"`
	TargetURL        string      `json:"target_url"`
	SubscribedEvents []EventType `json:"subscribed_events"`
	IsActive         bool        `json:"is_active"`

	// SigningSecret is only returned when the subscription is created.
	SigningSecret string `json:"signing_secret,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CreateSubscriptionRequest registers a new webhook endpoint.
type CreateSubscriptionRequest struct {
	TargetURL        string      `json:"target_url"`
	SubscribedEvents []EventType `json:"subscribed_events"`
}

// UpdateSubscriptionRequest changes a subscription. Nil fields are left unchanged.
type UpdateSubscriptionRequest struct {
	IsActive         *bool       `json:"is_active,omitempty"`
	TargetURL        string      `json:"target_url,omitempty"`
	SubscribedEvents []EventType `json:"subscribed_events,omitempty"`
}

// SubscriptionList is the response of WebhooksService.ListSubscriptions.
type SubscriptionList struct {
	Subscriptions []WebhookSubscription `json:"subscriptions"`
}

// WebhookEventTypeList is the response of WebhooksService.ListEvents.
type WebhookEventTypeList struct {
	Events []EventType `json:"events"`
}

// WebhooksService handles communication with the webhook subscription methods.
type WebhooksService struct {
	client *Client
}

// ListEvents fetches the event types a subscription can listen to.
func (s *WebhooksService) ListEvents(ctx context.Context, opts ...RequestOption) (*WebhookEventTypeList, error) {
	return do[WebhookEventTypeList](ctx, s.client, &Request{
		Method: http.MethodGet,
		Path:   "/v3/webhook-events",
	}, opts)
}

// CreateSubscription registers a webhook endpoint. Keep the returned
// SigningSecret: it is needed to verify deliveries.
func (s *WebhooksService) CreateSubscription(ctx context.Context, body *CreateSubscriptionRequest, opts ...RequestOption) (*WebhookSubscription, error) {
	return do[WebhookSubscription](ctx, s.client, &Request{
		Method: http.MethodPost,
		Path:   "/v3/webhook-subscriptions",
		Body:   body,
	}, opts)
}

// ListSubscriptions fetches every webhook subscription of the partner.
func (s *WebhooksService) ListSubscriptions(ctx context.Context, opts ...RequestOption) (*SubscriptionList, error) {
	return do[SubscriptionList](ctx, s.client, &Request{
		Method: http.MethodGet,
		Path:   "/v3/webhook-subscriptions",
	}, opts)
}

// GetSubscription fetches a subscription by its ID.
func (s *WebhooksService) GetSubscription(ctx context.Context, subscriptionID string, opts ...RequestOption) (*WebhookSubscription, error) {
	return do[WebhookSubscription](ctx, s.client, &Request{
		Method:     http.MethodGet,
		Path:       "/v3/webhook-subscriptions/{subscriptionId}",
		PathParams: map[string]any{"subscriptionId": subscriptionID},
	}, opts)
}

// UpdateSubscription changes a subscription, typically to pause or resume it.
func (s *WebhooksService) UpdateSubscription(ctx context.Context, subscriptionID string, body *UpdateSubscriptionRequest, opts ...RequestOption) (*WebhookSubscription, error) {
	return do[WebhookSubscription](ctx, s.client, &Request{
		Method:     http.MethodPut,
		Path:       "/v3/webhook-subscriptions/{subscriptionId}",
		PathParams: map[string]any{"subscriptionId": subscriptionID},
		Body:       body,
	}, opts)
}

// DeleteSubscription removes a subscription.
func (s *WebhooksService) DeleteSubscription(ctx context.Context, subscriptionID string, opts ...RequestOption) error {
	_, err := s.client.Execute(ctx, &Request{
		Method:     http.MethodDelete,
		Path:       "/v3/webhook-subscriptions/{subscriptionId}",
		PathParams: map[string]any{"subscriptionId": subscriptionID},
	}, opts...)
	return err
}
