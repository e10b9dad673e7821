package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	body        string
	contentType string
	calls       int

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	h.method = r.Method
	h.path = r.URL.Path
	h.contentType = r.Header.Get("Content-Type")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(h http.Handler) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewHTTPClient(srv.URL)
	return c, srv
}

// --- VerifyOTP ---

func TestHTTPClient_VerifyOTP(t *testing.T) {
	h := &testHandler{
		responseBody: `{
			"success": true,
			"data": {
				"sessionToken": "tok-9f2",
				"credentials": {"username": "casey", "email": "casey@example.com", "role": "backend_developer"},
				"owner": "Jordan",
				"requesterName": "Casey",
				"expiresAt": "2026-03-01T12:30:00Z"
			}
		}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	sess, err := c.VerifyOTP(context.Background(), "482913", "acct-7")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}

	if h.method != http.MethodPost || h.path != "/api/v1/verify-otp" {
		t.Errorf("request = %s %s, want POST /api/v1/verify-otp", h.method, h.path)
	}
	if h.contentType != "application/json" {
		t.Errorf("Content-Type = %q", h.contentType)
	}

	var req map[string]string
	if err := json.Unmarshal([]byte(h.body), &req); err != nil {
		t.Fatalf("decoding captured body: %v", err)
	}
	if req["otp"] != "482913" || req["accountId"] != "acct-7" {
		t.Errorf("request body = %v", req)
	}

	if sess.Token != "tok-9f2" {
		t.Errorf("Token = %q", sess.Token)
	}
	if sess.Owner != "Jordan" || sess.RequesterName != "Casey" {
		t.Errorf("owner/requester = %q/%q", sess.Owner, sess.RequesterName)
	}
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	if !sess.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, want)
	}
}

func TestHTTPClient_VerifyOTP_Rejected(t *testing.T) {
	h := &testHandler{responseBody: `{"success": false, "message": "Invalid OTP"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.VerifyOTP(context.Background(), "000000", "acct-7")
	if err == nil {
		t.Fatal("expected error for rejected OTP")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Message != "Invalid OTP" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

// --- SessionStatus ---

func TestHTTPClient_SessionStatus_Active(t *testing.T) {
	h := &testHandler{responseBody: `{"active": true, "expiresAt": "2026-03-01T13:00:00Z"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	st, err := c.SessionStatus(context.Background(), "tok-9f2")
	if err != nil {
		t.Fatalf("SessionStatus: %v", err)
	}
	if h.path != "/api/v1/session-status" {
		t.Errorf("path = %q", h.path)
	}
	if !strings.Contains(h.body, `"sessionToken":"tok-9f2"`) {
		t.Errorf("body = %q, missing sessionToken", h.body)
	}
	if !st.Active {
		t.Error("Active = false, want true")
	}
	want := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	if st.ExpiresAt == nil || !st.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", st.ExpiresAt, want)
	}
}

func TestHTTPClient_SessionStatus_Inactive(t *testing.T) {
	h := &testHandler{responseBody: `{"active": false, "reason": "Revoked by owner"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	st, err := c.SessionStatus(context.Background(), "tok-9f2")
	if err != nil {
		t.Fatalf("SessionStatus: %v", err)
	}
	if st.Active {
		t.Error("Active = true, want false")
	}
	if st.Reason != "Revoked by owner" {
		t.Errorf("Reason = %q", st.Reason)
	}
	if st.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", st.ExpiresAt)
	}
}

// --- EndSession ---

func TestHTTPClient_EndSession(t *testing.T) {
	h := &testHandler{responseBody: `{"success": true}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	if err := c.EndSession(context.Background(), "tok-9f2", "USER_ENDED"); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if h.path != "/api/v1/end-session" {
		t.Errorf("path = %q", h.path)
	}
	var req map[string]string
	if err := json.Unmarshal([]byte(h.body), &req); err != nil {
		t.Fatalf("decoding captured body: %v", err)
	}
	if req["reason"] != "USER_ENDED" {
		t.Errorf("reason = %q", req["reason"])
	}
}

// --- LogActivity ---

func TestHTTPClient_LogActivity(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.LogActivity(context.Background(), "tok-9f2", ActivityEvent{
		ID:      "wd-ev1",
		Action:  "ANSWER_SUBMITTED",
		Path:    "/interview",
		Details: "Q3",
	})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if resp.Terminated {
		t.Error("Terminated = true, want false")
	}
	if h.path != "/api/v1/activity" {
		t.Errorf("path = %q", h.path)
	}
	var req map[string]any
	if err := json.Unmarshal([]byte(h.body), &req); err != nil {
		t.Fatalf("decoding captured body: %v", err)
	}
	if req["sessionToken"] != "tok-9f2" || req["action"] != "ANSWER_SUBMITTED" || req["path"] != "/interview" {
		t.Errorf("request body = %v", req)
	}
}

func TestHTTPClient_LogActivity_RiskKill(t *testing.T) {
	h := &testHandler{responseBody: `{"terminated": true, "reason": "Risk threshold exceeded"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.LogActivity(context.Background(), "tok-9f2", ActivityEvent{Action: "PASTE"})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if !resp.Terminated || resp.Reason != "Risk threshold exceeded" {
		t.Errorf("resp = %+v", resp)
	}
}

// --- SendFrame ---

func TestHTTPClient_SendFrame(t *testing.T) {
	h := &testHandler{responseBody: `{"success": true}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	if err := c.SendFrame(context.Background(), "tok-9f2", "aGVsbG8="); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if h.path != "/api/v1/screen-share" {
		t.Errorf("path = %q", h.path)
	}
	var req map[string]string
	if err := json.Unmarshal([]byte(h.body), &req); err != nil {
		t.Fatalf("decoding captured body: %v", err)
	}
	if req["frame"] != "aGVsbG8=" {
		t.Errorf("frame = %q", req["frame"])
	}
}

// --- RequestExtension ---

func TestHTTPClient_RequestExtension(t *testing.T) {
	h := &testHandler{responseBody: `{"success": true}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.RequestExtension(context.Background(), "tok-9f2", 15, "Need more time to finish")
	if err != nil {
		t.Fatalf("RequestExtension: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false")
	}
	var req map[string]any
	if err := json.Unmarshal([]byte(h.body), &req); err != nil {
		t.Fatalf("decoding captured body: %v", err)
	}
	if req["additionalMinutes"] != float64(15) {
		t.Errorf("additionalMinutes = %v", req["additionalMinutes"])
	}
	if req["reason"] != "Need more time to finish" {
		t.Errorf("reason = %v", req["reason"])
	}
}

func TestHTTPClient_RequestExtension_Denied(t *testing.T) {
	h := &testHandler{responseBody: `{"success": false, "message": "Owner declined"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.RequestExtension(context.Background(), "tok-9f2", 30, "")
	if err != nil {
		t.Fatalf("RequestExtension: %v", err)
	}
	if resp.Success || resp.Message != "Owner declined" {
		t.Errorf("resp = %+v", resp)
	}
}

// --- error handling ---

func TestHTTPClient_ServerError(t *testing.T) {
	h := &testHandler{statusCode: http.StatusInternalServerError, responseBody: `{"error": "boom"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.SessionStatus(context.Background(), "tok-9f2")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "boom" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url)
	_, err := c.SessionStatus(context.Background(), "tok-9f2")
	if err == nil {
		t.Fatal("expected transport error for closed server")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure should not be an *APIError, got %+v", apiErr)
	}
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	h := &testHandler{responseBody: `{"active": true}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.SessionStatus(ctx, "tok"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
