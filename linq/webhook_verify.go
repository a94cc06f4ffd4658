package linq

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Headers sent with every webhook delivery.
const (
	HeaderWebhookEvent          = "X-Webhook-Event"
	HeaderWebhookSubscriptionID = "X-Webhook-Subscription-Id"
	HeaderWebhookTimestamp      = "X-Webhook-Timestamp"
	HeaderWebhookSignature      = "X-Webhook-Signature"
)

// DefaultWebhookTolerance is the accepted distance between a delivery's
// timestamp and the local clock.
const DefaultWebhookTolerance = 300 * time.Second

// maxWebhookBodySize bounds the body read by ParseRequest.
const maxWebhookBodySize = 1 << 20

var (
	ErrMissingSigningSecret    = errors.New("webhook signing secret is required")
	ErrMissingSignature        = errors.New("webhook signature is required")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
)

// VerifyWebhookInput holds everything needed to check one delivery.
type VerifyWebhookInput struct {
	SigningSecret string

	// Payload is the request body exactly as received.
	Payload []byte

	// Timestamp is the X-Webhook-Timestamp value in Unix seconds. Fractional
	// values are truncated towards negative infinity.
	Timestamp string

	// Signature is the hex encoded X-Webhook-Signature value.
	Signature string

	// Tolerance defaults to DefaultWebhookTolerance when zero.
	Tolerance time.Duration

	// Now defaults to the wall clock when zero.
	Now time.Time
}

// VerifyWebhookSignature reports whether Signature is the HMAC-SHA256 of
// "<timestamp>.<payload>" under SigningSecret and the timestamp lies within
// Tolerance of Now.
//
// An untrusted or malformed signature yields false, never an error. Errors
// are reserved for a missing secret or signature, which point to a caller bug.
func VerifyWebhookSignature(in VerifyWebhookInput) (bool, error) {
	if in.SigningSecret == "" {
		return false, ErrMissingSigningSecret
	}
	if in.Signature == "" {
		return false, ErrMissingSignature
	}

	ts, ok := parseWebhookTimestamp(in.Timestamp)
	if !ok {
		return false, nil
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	tolerance := in.Tolerance
	if tolerance == 0 {
		tolerance = DefaultWebhookTolerance
	}

	if !withinTolerance(now.Unix(), ts, tolerance) {
		return false, nil
	}

	expected, err := hex.DecodeString(SignWebhookPayload(in.SigningSecret, ts, in.Payload))
	if err != nil {
		return false, nil
	}
	received, err := hex.DecodeString(in.Signature)
	if err != nil {
		return false, nil
	}
	return constantTimeEqual(expected, received), nil
}

// SignWebhookPayload returns the lowercase hex HMAC-SHA256 signature of a
// payload sent at timestamp ts, as found in X-Webhook-Signature.
func SignWebhookPayload(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// withinTolerance reports whether |now - ts| <= tolerance, in whole seconds.
// The distance is computed in uint64 so extreme timestamps cannot wrap.
func withinTolerance(now, ts int64, tolerance time.Duration) bool {
	if tolerance < 0 {
		return false
	}
	var dist uint64
	if now >= ts {
		dist = uint64(now) - uint64(ts)
	} else {
		dist = uint64(ts) - uint64(now)
	}
	return dist <= uint64(tolerance/time.Second)
}

// parseWebhookTimestamp accepts integer or decimal seconds and floors them.
func parseWebhookTimestamp(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Floor(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// constantTimeEqual compares a and b in time proportional to the longer
// input. A length difference is folded into the result.
func constantTimeEqual(a, b []byte) bool {
	n := max(len(a), len(b))
	mismatch := len(a) ^ len(b)
	for i := 0; i < n; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		mismatch |= int(x ^ y)
	}
	return mismatch == 0
}

// WebhookVerifier checks and parses webhook deliveries in an HTTP handler.
type WebhookVerifier struct {
	Secret    string
	Tolerance time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// ParseRequest reads, authenticates and parses an incoming webhook request.
// Ensure your HTTP handler does NOT consume r.Body before calling it.
func (v *WebhookVerifier) ParseRequest(r *http.Request, opts ...ParseOption) (*WebhookEvent, error) {
	if r.Method != http.MethodPost {
		return nil, errors.New("webhook must be a POST request")
	}

	signature := r.Header.Get(HeaderWebhookSignature)
	if signature == "" {
		return nil, fmt.Errorf("missing %s header: %w", HeaderWebhookSignature, ErrMissingSignature)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook body: %w", err)
	}
	if len(body) > maxWebhookBodySize {
		return nil, fmt.Errorf("webhook body exceeds %d bytes", maxWebhookBodySize)
	}

	in := VerifyWebhookInput{
		SigningSecret: v.Secret,
		Payload:       body,
		Timestamp:     r.Header.Get(HeaderWebhookTimestamp),
		Signature:     signature,
		Tolerance:     v.Tolerance,
	}
	if v.Now != nil {
		in.Now = v.Now()
	}

	ok, err := VerifyWebhookSignature(in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidWebhookSignature
	}

	return ParseWebhookEvent(body, opts...)
}
