// Package webhook delivers signed share notifications for exported patient
// documents. Delivery is best-effort: an unconfigured sender or an open
// circuit skips the notification instead of failing the export.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// EventDocumentExported is the only event type sent today.
const EventDocumentExported = "document.exported"

// Event is the JSON body POSTed to the share endpoint.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	PatientID  string    `json:"patient_id"`
	Kind       string    `json:"kind"`
	FileName   string    `json:"file_name"`
	URI        string    `json:"uri"`
	Timestamp  time.Time `json:"timestamp"`
}

// Outcome labels a Send result for logs and metrics.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// ---------------------------------------------------------------------------
// Signature helpers
// ---------------------------------------------------------------------------

// SignPayload computes an HMAC-SHA256 signature of the payload using the given secret,
// returning the hex-encoded result.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature returns true when the hex-encoded signature matches the HMAC-SHA256
// of payload under the given secret.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ---------------------------------------------------------------------------
// Sender
// ---------------------------------------------------------------------------

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient overrides the default HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) { s.httpClient = c }
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open before a trial request is let through.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(s *Sender) {
		s.tripAfter = failures
		s.openFor = openFor
	}
}

// Sender posts signed events to a single share endpoint.
type Sender struct {
	url        string
	secret     string
	httpClient *http.Client
	tripAfter  uint32
	openFor    time.Duration
	breaker    *gobreaker.CircuitBreaker[int]
	log        zerolog.Logger
}

// NewSender returns a Sender for rawURL. An empty rawURL yields a sender
// whose Send always skips.
func NewSender(rawURL, secret string, log zerolog.Logger, opts ...Option) (*Sender, error) {
	if rawURL != "" {
		if err := validateWebhookURL(rawURL); err != nil {
			return nil, err
		}
	}
	s := &Sender{
		url:        rawURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tripAfter:  5,
		openFor:    time.Minute,
		log:        log.With().Str("component", "share").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	s.breaker = gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:    "share-webhook",
		Timeout: s.openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("share circuit changed state")
		},
	})
	return s, nil
}

// validateWebhookURL checks that the URL uses http or https and has a host.
func validateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid share url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("share url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("share url %q has no host", rawURL)
	}
	return nil
}

// Enabled reports whether a share endpoint is configured.
func (s *Sender) Enabled() bool {
	return s != nil && s.url != ""
}

// Send delivers ev. It returns OutcomeSkipped with a nil error when sharing
// is not configured or the circuit is open, and OutcomeFailed with the cause
// when the endpoint rejects or cannot be reached.
func (s *Sender) Send(ctx context.Context, ev Event) (Outcome, error) {
	if !s.Enabled() {
		return OutcomeSkipped, nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("encode share event: %w", err)
	}

	status, err := s.breaker.Execute(func() (int, error) {
		return s.post(ctx, ev, payload)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.log.Warn().Str("document_id", ev.DocumentID).Msg("share circuit open, skipping notification")
		return OutcomeSkipped, nil
	case err != nil:
		s.log.Error().Err(err).Str("document_id", ev.DocumentID).Int("status", status).Msg("share notification failed")
		return OutcomeFailed, err
	}
	s.log.Info().Str("document_id", ev.DocumentID).Int("status", status).Msg("share notification delivered")
	return OutcomeDelivered, nil
}

func (s *Sender) post(ctx context.Context, ev Event, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", "sha256="+SignPayload(payload, s.secret))
	req.Header.Set("X-Webhook-ID", ev.ID)
	req.Header.Set("X-Webhook-Timestamp", ev.Timestamp.UTC().Format(time.RFC3339))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("share endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// State exposes the circuit state, e.g. for health output.
func (s *Sender) State() string {
	if !s.Enabled() {
		return "disabled"
	}
	return s.breaker.State().String()
}
