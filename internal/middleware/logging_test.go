package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careerconsult/internal/model"
)

func parseLogEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

// TestLoggingMiddleware_LogsRequestFields はリクエストログに必要なフィールドが含まれることを検証する。
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := NewRequestIDMiddleware()(NewLoggingMiddleware(logger)(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/identity-requests/1/approval", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	entry := parseLogEntry(t, &buf)
	if entry["method"] != "POST" {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["path"] != "/api/admin/identity-requests/1/approval" {
		t.Errorf("path = %v", entry["path"])
	}
	if status, _ := entry["status"].(float64); status != 200 {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected 'duration_ms' field in log entry")
	}
	if entry["request_id"] != w.Header().Get(RequestIDHeader) {
		t.Errorf("request_id = %v, header = %q", entry["request_id"], w.Header().Get(RequestIDHeader))
	}
	if _, ok := entry["account_id"]; ok {
		t.Error("expected no 'account_id' for unauthenticated request")
	}
}

// TestLoggingMiddleware_IncludesAccountFromSessionMiddleware は内側のセッションミドルウェアが
// 検証したアカウントがログに含まれることを検証する。
func TestLoggingMiddleware_IncludesAccountFromSessionMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	sess := &model.Session{SessionID: "s1", AccountID: 42, Kind: model.AccountKindAdmin, LoginStatus: model.LoginStatusFinish}
	sessionMW := NewSessionMiddleware(loaderReturning(sess), SessionRequirement{
		Kind:   model.AccountKindAdmin,
		Status: model.LoginStatusFinish,
		TTL:    time.Hour,
	})
	handler := NewLoggingMiddleware(logger)(sessionMW(okHandler()))

	handler.ServeHTTP(httptest.NewRecorder(), requestWithSessionCookie("s1"))

	entry := parseLogEntry(t, &buf)
	if id, _ := entry["account_id"].(float64); id != 42 {
		t.Errorf("account_id = %v, want 42", entry["account_id"])
	}
	if entry["account_kind"] != "admin" {
		t.Errorf("account_kind = %v, want admin", entry["account_kind"])
	}
}

// TestLoggingMiddleware_LevelByStatus はステータスコードに応じてログレベルが変わることを検証する。
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusBadRequest, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			entry := parseLogEntry(t, &buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
		})
	}
}

// TestLoggingMiddleware_BodyWriteCapture はWriteHeaderなしのWriteで200が記録されることを検証する。
func TestLoggingMiddleware_BodyWriteCapture(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if status, _ := parseLogEntry(t, &buf)["status"].(float64); status != 200 {
		t.Errorf("status = %v, want 200", status)
	}
}

func TestRequestIDMiddleware_KeepsValidIDAndReplacesInvalid(t *testing.T) {
	given := uuid.New().String()

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"妥当なUUIDを引き継ぐ", given, true},
		{"不正な値は置き換える", "<script>", false},
		{"未指定は採番する", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromCtx string
			handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fromCtx = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("response request id %q is not a uuid", got)
			}
			if fromCtx != got {
				t.Errorf("context id = %q, header id = %q", fromCtx, got)
			}
			if tt.keep && got != given {
				t.Errorf("request id = %q, want %q", got, given)
			}
		})
	}
}

type statusCounter struct {
	statuses []int
}

func (c *statusCounter) RecordApprovalDecision(kind, decision, result string)                   {}
func (c *statusCounter) RecordSettlement(operation, result string)                              {}
func (c *statusCounter) RecordPaymentCall(operation string, success bool, duration time.Duration) {}
func (c *statusCounter) RecordMfaVerification(method string, success bool)                      {}
func (c *statusCounter) RecordHTTPStatus(statusCode int) {
	c.statuses = append(c.statuses, statusCode)
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	counter := &statusCounter{}
	handler := NewMetricsMiddleware(counter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteUnauthorized(w)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(counter.statuses) != 1 || counter.statuses[0] != http.StatusUnauthorized {
		t.Errorf("recorded statuses = %v, want [401]", counter.statuses)
	}
}

func TestRecoveryMiddleware_Returns500(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeUnexpected {
		t.Errorf("code = %d, want %d", body.Code, model.ErrCodeUnexpected)
	}
}

func TestSecurityHeadersMiddleware_SetsHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	NewSecurityHeadersMiddleware()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Cache-Control"} {
		if w.Header().Get(h) == "" {
			t.Errorf("expected %s header", h)
		}
	}
}
