package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func newContext(method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func expectStatus(t *testing.T, err error, want int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != want {
		t.Errorf("expected %d, got %d", want, httpErr.Code)
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_GeneratesNew(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", nil)

	handler := func(c echo.Context) error {
		if rid, _ := c.Get("request_id").(string); rid == "" {
			t.Error("expected request_id to be generated")
		}
		return c.String(http.StatusOK, "ok")
	}
	if err := RequestID()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", nil)
	c.Request().Header.Set(RequestIDHeader, "my-custom-id")

	RequestID()(okHandler)(c)

	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", nil)
	c.Request().Header.Set(RequestIDHeader, strings.Repeat("x", 200))

	RequestID()(okHandler)(c)

	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("expected a fresh uuid, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Logger / Recovery
// ---------------------------------------------------------------------------

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name    string
		handler echo.HandlerFunc
		level   string
		status  float64
	}{
		{"ok", okHandler, "info", 200},
		{"not found", func(echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "patient not found") }, "warn", 404},
		{"plain error", func(echo.Context) error { return errors.New("disk unavailable") }, "error", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c, _ := newContext(http.MethodGet, "/api/v1/patients", nil)
			c.Set("request_id", "req-1")

			Logger(zerolog.New(&buf))(tt.handler)(c)

			var line map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if line["level"] != tt.level || line["status"] != tt.status || line["request_id"] != "req-1" {
				t.Errorf("unexpected log line: %v", line)
			}
		})
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newContext(http.MethodGet, "/panic", nil)

	err := Recovery(zerolog.New(&buf))(func(echo.Context) error { panic("test panic") })(c)

	expectStatus(t, err, http.StatusInternalServerError)
	if !strings.Contains(buf.String(), "test panic") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/ok", nil)
	if err := Recovery(zerolog.Nop())(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// SecurityHeaders
// ---------------------------------------------------------------------------

func TestSecurityHeaders(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", nil)
	SecurityHeaders()(okHandler)(c)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "style-src 'unsafe-inline'") || !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("unexpected CSP %q", csp)
	}
}

// ---------------------------------------------------------------------------
// RequestTimeout
// ---------------------------------------------------------------------------

func TestRequestTimeout_Exceeded(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/slow", nil)
	slow := func(c echo.Context) error {
		time.Sleep(30 * time.Millisecond)
		return nil
	}

	expectStatus(t, RequestTimeout(10*time.Millisecond)(slow)(c), http.StatusGatewayTimeout)
}

func TestRequestTimeout_DeadlineErrorFromHandler(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/slow", nil)
	waits := func(c echo.Context) error {
		<-c.Request().Context().Done()
		return fmt.Errorf("load patients: %w", c.Request().Context().Err())
	}

	expectStatus(t, RequestTimeout(10*time.Millisecond)(waits)(c), http.StatusGatewayTimeout)
}

func TestRequestTimeout_LateWriteIsTheOnlyResponse(t *testing.T) {
	e := echo.New()
	e.Use(RequestTimeout(20 * time.Millisecond))
	e.GET("/slow", func(c echo.Context) error {
		time.Sleep(60 * time.Millisecond)
		return c.String(http.StatusOK, "late")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	// The handler already committed its response; nothing else may write.
	if rec.Code != http.StatusOK || rec.Body.String() != "late" {
		t.Errorf("expected the handler's own response, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", nil)
	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected deadline on request context")
		}
		return nil
	}
	if err := RequestTimeout(time.Second)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", nil)
	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("expected no deadline")
		}
		return nil
	}
	RequestTimeout(0)(handler)(c)
}

// ---------------------------------------------------------------------------
// BodyLimit
// ---------------------------------------------------------------------------

func TestParseLimit(t *testing.T) {
	tests := map[string]int64{
		"":      1 << 20,
		"1M":    1 << 20,
		"512K":  512 << 10,
		"512KB": 512 << 10,
		"2g":    2 << 30,
		"100":   100,
		"1.5M":  1 << 20,
		"-5K":   1 << 20,
	}
	for in, want := range tests {
		if got := parseLimit(in); got != want {
			t.Errorf("parseLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestBodyLimit_DeclaredLengthRejected(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/v1/patients", strings.NewReader(strings.Repeat("a", 20)))
	expectStatus(t, BodyLimit("10")(okHandler)(c), http.StatusRequestEntityTooLarge)
}

func TestBodyLimit_StreamingBodyCutOff(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/v1/patients", io.MultiReader(strings.NewReader(strings.Repeat("a", 20))))
	c.Request().ContentLength = -1

	handler := func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	}
	expectStatus(t, BodyLimit("10")(handler)(c), http.StatusRequestEntityTooLarge)
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/v1/patients", strings.NewReader(`{"name":"A"}`))
	handler := func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil || string(body) != `{"name":"A"}` {
			t.Errorf("unexpected body %q %v", body, err)
		}
		return nil
	}
	if err := BodyLimit("1K")(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// RateLimit
// ---------------------------------------------------------------------------

func withUser(c echo.Context, uid string) {
	ctx := context.WithValue(c.Request().Context(), auth.UserIDKey, uid)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})(okHandler)

	for i := 0; i < 2; i++ {
		c, _ := newContext(http.MethodGet, "/", nil)
		if err := mw(c); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}
	c, rec := newContext(http.MethodGet, "/", nil)
	expectStatus(t, mw(c), http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimit_SeparateUsers(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})(okHandler)

	for _, uid := range []string{"alice", "bob"} {
		c, _ := newContext(http.MethodGet, "/", nil)
		withUser(c, uid)
		if err := mw(c); err != nil {
			t.Errorf("%s: unexpected error: %v", uid, err)
		}
	}
}

func TestLimiterStore_EvictsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)
	s := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	s.now = func() time.Time { return now }
	s.lastSweep = now

	s.get("ip:10.0.0.1")
	s.get("ip:10.0.0.2")
	now = now.Add(30 * time.Second)
	s.get("ip:10.0.0.2")

	now = now.Add(45 * time.Second)
	s.get("ip:10.0.0.3")

	if got := s.size(); got != 2 {
		t.Fatalf("expected 2 buckets after sweep, got %d", got)
	}
	s.mu.RLock()
	_, stale := s.entries["ip:10.0.0.1"]
	s.mu.RUnlock()
	if stale {
		t.Error("expected idle bucket to be evicted")
	}
}

func TestLimiterStore_ReusesBucket(t *testing.T) {
	s := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	if s.get("user:alice") != s.get("user:alice") {
		t.Error("expected the same limiter for repeated keys")
	}
	if s.config.IdleTTL != DefaultRateLimitIdleTTL {
		t.Errorf("expected default idle ttl, got %v", s.config.IdleTTL)
	}
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

func TestAudit_RecordsPatientAccess(t *testing.T) {
	var got []AuditEntry
	rec := AuditRecorderFunc(func(e AuditEntry) error {
		got = append(got, e)
		return nil
	})

	c, _ := newContext(http.MethodGet, "/api/v1/patients/p-42/document", nil)
	c.SetPath("/api/v1/patients/:id/document")
	c.SetParamNames("id")
	c.SetParamValues("p-42")
	c.Set("request_id", "req-123")
	withUser(c, "reception-1")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e := got[0]
	if e.PatientID != "p-42" || e.UserID != "reception-1" || e.Resource != "patients" || e.Action != "read" || e.RequestID != "req-123" || e.StatusCode != 200 {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	called := false
	rec := AuditRecorderFunc(func(AuditEntry) error { called = true; return nil })
	c, _ := newContext(http.MethodGet, "/health", nil)

	Audit(zerolog.Nop(), rec)(okHandler)(c)
	if called {
		t.Error("expected /health not to be audited")
	}
}

func TestAudit_RecorderFailureDoesNotFailRequest(t *testing.T) {
	var buf bytes.Buffer
	rec := AuditRecorderFunc(func(AuditEntry) error { return errors.New("audit sink down") })
	c, _ := newContext(http.MethodPost, "/api/v1/appointments", nil)

	if err := Audit(zerolog.New(&buf), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "audit sink down") {
		t.Error("expected recorder failure to be logged")
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestMetrics_RecordsByRoute(t *testing.T) {
	m := metrics.NewCollector("test")
	c, _ := newContext(http.MethodGet, "/api/v1/patients/p1", nil)
	c.SetPath("/api/v1/patients/:id")

	if err := Metrics(m)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/v1/patients/:id", "200")); got != 1 {
		t.Errorf("expected 1 request recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.InFlightGauge); got != 0 {
		t.Errorf("expected in-flight gauge back at 0, got %v", got)
	}
}

func TestMetrics_NilCollector(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", nil)
	if err := Metrics(nil)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
