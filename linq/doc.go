// Package linq provides a Go client for the Linq Partner API (v3).
//
// The client handles bearer authentication, per-attempt timeouts, retries
// with capped exponential backoff, cursor-based pagination, and webhook
// signature verification via HMAC-SHA256.
//
// # Quick Start
//
//	client, err := linq.NewClient(
//	    linq.WithAPIKey("your_partner_api_key"),
//	    linq.WithMaxRetries(2),
//	)
//
//	chat, err := client.Chats.Get(ctx, "550e8400-e29b-41d4-a716-446655440000")
//
// # Retries
//
// Calls are not retried by default. With WithMaxRetries(n) a failing call is
// attempted at most n+1 times. Network failures and timeouts are always
// retried; API errors only for 408, 429, 500, 502, 503 and 504 unless
// WithRetryableStatuses says otherwise. Per-call overrides are passed as
// RequestOption values:
//
//	client.Chats.Get(ctx, id, linq.WithRequestMaxRetries(0), linq.WithRequestTimeout(5*time.Second))
//
// # Pagination
//
// List methods return one page. ListAll-style methods return a
// CursorIterator that follows next_cursor until the last page:
//
//	it := client.Chats.ListAll(&linq.ListChatsParams{From: "+12223334444"})
//	for it.Next(ctx) {
//	    chat := it.Item() /* process chat */
//	}
//	if err := it.Err(); err != nil { /* handle error */ }
//
// # Webhooks
//
// Use a WebhookVerifier to authenticate and decode deliveries:
//
//	v := &linq.WebhookVerifier{Secret: "webhook_signing_secret"}
//	event, err := v.ParseRequest(r)
//
// VerifyWebhookSignature and ParseWebhookEvent are available separately
// for hosts that read the request themselves.
package linq
