package linq

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrWebhookNotObject          = errors.New("payload is not a JSON object")
	ErrUnsupportedWebhookVersion = errors.New("unsupported webhook version")
	ErrUnsupportedEventType      = errors.New("unsupported webhook event type")
	ErrWebhookEventTypeMismatch  = errors.New("webhook event type mismatch")
	ErrWebhookMissingData        = errors.New("webhook payload is missing the data field")
	ErrWebhookMalformedEnvelope  = errors.New("webhook envelope has fields of the wrong type")
)

// WebhookValidationError reports a webhook payload that cannot be accepted.
// Err is one of the ErrWebhook* / ErrUnsupported* sentinels.
type WebhookValidationError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *WebhookValidationError) Error() string {
	if e.Reason == "" {
		return "linq invalid webhook: " + e.Err.Error()
	}
	return fmt.Sprintf("linq invalid webhook: %v: %s", e.Err, e.Reason)
}

// Unwrap implements errors.Unwrap.
func (e *WebhookValidationError) Unwrap() error {
	return e.Err
}

type parseOptions struct {
	expected EventType
}

// ParseOption customizes ParseWebhookEvent.
type ParseOption func(*parseOptions)

// WithExpectedEventType makes ParseWebhookEvent reject any other event type.
func WithExpectedEventType(t EventType) ParseOption {
	return func(o *parseOptions) {
		o.expected = t
	}
}

// ParseWebhookEvent validates a raw webhook body and returns the event.
// The payload must be a JSON object with the supported webhook_version, a
// registered event_type and a data field. Signature checks are separate; see
// VerifyWebhookSignature.
func ParseWebhookEvent(payload []byte, opts ...ParseOption) (*WebhookEvent, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		return nil, &WebhookValidationError{Reason: reason, Err: ErrWebhookNotObject}
	}

	version, _ := jsonString(fields["webhook_version"])
	if version != WebhookVersion {
		return nil, &WebhookValidationError{
			Reason: fmt.Sprintf("got %s, want %q", rawOrUndefined(fields["webhook_version"]), WebhookVersion),
			Err:    ErrUnsupportedWebhookVersion,
		}
	}

	eventType, ok := jsonString(fields["event_type"])
	if !ok || !EventType(eventType).Supported() {
		return nil, &WebhookValidationError{
			Reason: "got " + rawOrUndefined(fields["event_type"]),
			Err:    ErrUnsupportedEventType,
		}
	}

	if o.expected != "" && EventType(eventType) != o.expected {
		return nil, &WebhookValidationError{
			Reason: fmt.Sprintf("expected %s, got %s", o.expected, eventType),
			Err:    ErrWebhookEventTypeMismatch,
		}
	}

	if _, ok := fields["data"]; !ok {
		return nil, &WebhookValidationError{Err: ErrWebhookMissingData}
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, &WebhookValidationError{Reason: err.Error(), Err: ErrWebhookMalformedEnvelope}
	}
	return &event, nil
}

// IsWebhookEvent reports whether ParseWebhookEvent would accept payload.
func IsWebhookEvent(payload []byte) bool {
	_, err := ParseWebhookEvent(payload)
	return err == nil
}

func rawOrUndefined(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "undefined"
	}
	return string(raw)
}
