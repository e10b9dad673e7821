package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vaultoo/warden/internal/session"
)

// DefaultTimeout bounds every remote call so a stalled grantor can never
// block a scheduled tick.
const DefaultTimeout = 10 * time.Second

// HTTPClient implements GrantorClient using the grantor's HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "https://vaultoo.example.com").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) VerifyOTP(ctx context.Context, otp, accountID string) (*session.Session, error) {
	req := map[string]string{"otp": otp, "accountId": accountID}
	var resp struct {
		Success bool             `json:"success"`
		Message string           `json:"message,omitempty"`
		Error   string           `json:"error,omitempty"`
		Data    *session.Session `json:"data,omitempty"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/verify-otp", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		msg := resp.Message
		if msg == "" {
			msg = resp.Error
		}
		if msg == "" {
			msg = "verification rejected"
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return resp.Data, nil
}

func (c *HTTPClient) SessionStatus(ctx context.Context, token string) (*StatusResponse, error) {
	req := map[string]string{"sessionToken": token}
	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/session-status", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) EndSession(ctx context.Context, token, reason string) error {
	req := map[string]string{"sessionToken": token, "reason": reason}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/end-session", req, nil)
}

func (c *HTTPClient) LogActivity(ctx context.Context, token string, ev ActivityEvent) (*ActivityResponse, error) {
	req := struct {
		SessionToken string `json:"sessionToken"`
		ActivityEvent
	}{SessionToken: token, ActivityEvent: ev}

	var resp ActivityResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/activity", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) SendFrame(ctx context.Context, token, frame string) error {
	req := map[string]string{"sessionToken": token, "frame": frame}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/screen-share", req, nil)
}

func (c *HTTPClient) RequestExtension(ctx context.Context, token string, minutes int, reason string) (*ExtensionResponse, error) {
	req := struct {
		SessionToken      string `json:"sessionToken"`
		AdditionalMinutes int    `json:"additionalMinutes"`
		Reason            string `json:"reason"`
	}{SessionToken: token, AdditionalMinutes: minutes, Reason: reason}

	var resp ExtensionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/request-extension", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// APIError is a non-2xx response (or an in-band rejection) from the grantor.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("grantor API error (status %d): %s", e.StatusCode, e.Message)
}
