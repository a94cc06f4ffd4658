package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arvarik/linq-go/linq"
)

func newWebhookVerifyCommand(a *app) *cobra.Command {
	var timestamp, signature, file string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature of a captured webhook body",
		Long: `verify checks a webhook body (from --file, or stdin) against the
X-Webhook-Timestamp and X-Webhook-Signature values it was delivered with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			ok, err := linq.VerifyWebhookSignature(linq.VerifyWebhookInput{
				SigningSecret: a.cfg.Webhook.SigningSecret,
				Payload:       body,
				Timestamp:     timestamp,
				Signature:     signature,
				Tolerance:     a.cfg.Webhook.Tolerance,
			})
			if err != nil {
				return err
			}
			if !ok {
				return linq.ErrInvalidWebhookSignature
			}

			event, err := linq.ParseWebhookEvent(body)
			if err != nil {
				return fmt.Errorf("signature is valid but the payload is not: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid %s event %s\n", event.EventType, event.EventID)
			return nil
		},
	}
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "X-Webhook-Timestamp header value")
	cmd.Flags().StringVar(&signature, "signature", "", "X-Webhook-Signature header value")
	cmd.Flags().StringVar(&file, "file", "", "File holding the raw body (default stdin)")
	_ = cmd.MarkFlagRequired("timestamp")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(file)
}

func newWebhookSendTestCommand(a *app) *cobra.Command {
	var eventType, chatID string
	cmd := &cobra.Command{
		Use:   "send-test URL",
		Short: "Send a signed sample event to a webhook endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := a.cfg.Webhook.SigningSecret
			if secret == "" {
				return linq.ErrMissingSigningSecret
			}
			et := linq.EventType(eventType)
			if !et.Supported() {
				return fmt.Errorf("unsupported event type %q", eventType)
			}

			now := time.Now()
			payload, err := sampleEvent(et, chatID, now)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, args[0], bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(linq.HeaderWebhookEvent, string(et))
			req.Header.Set(linq.HeaderWebhookSubscriptionID, "test-subscription")
			req.Header.Set(linq.HeaderWebhookTimestamp, strconv.FormatInt(now.Unix(), 10))
			req.Header.Set(linq.HeaderWebhookSignature, linq.SignWebhookPayload(secret, now.Unix(), payload))

			resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			fmt.Fprintf(cmd.OutOrStdout(), "%s delivered: %s\n", et, resp.Status)
			if resp.StatusCode >= 300 {
				return errors.New("endpoint did not accept the delivery")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&eventType, "event-type", string(linq.EventMessageReceived), "Event type to send")
	cmd.Flags().StringVar(&chatID, "chat-id", "", "Chat ID for the sample payload (random when empty)")
	return cmd
}

// sampleEvent builds a current-version webhook payload for et.
func sampleEvent(et linq.EventType, chatID string, now time.Time) ([]byte, error) {
	if chatID == "" {
		chatID = uuid.NewString()
	}
	created := now.UTC().Format(time.RFC3339Nano)

	var data any
	switch et {
	case linq.EventMessageSent, linq.EventMessageReceived, linq.EventMessageRead, linq.EventMessageDelivered:
		data = linq.MessageEventData{
			ChatID: chatID,
			Message: linq.Message{
				ID:        uuid.NewString(),
				ChatID:    chatID,
				From:      "+13334445555",
				IsFromMe:  et == linq.EventMessageSent,
				Parts:     []linq.MessagePart{linq.TextPart("This is a test event")},
				CreatedAt: now.UTC(),
			},
		}
	case linq.EventChatCreated:
		data = linq.ChatCreatedData{Chat: linq.Chat{ID: chatID, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}}
	default:
		data = map[string]any{"chat_id": chatID}
	}

	return json.Marshal(map[string]any{
		"api_version":     "v3",
		"webhook_version": linq.WebhookVersion,
		"event_type":      et,
		"event_id":        uuid.NewString(),
		"created_at":      created,
		"trace_id":        uuid.NewString(),
		"partner_id":      "test-partner",
		"data":            data,
	})
}
