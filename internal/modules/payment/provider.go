package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProviderClient talks to the BNPL provider's session API. The HTTP timeout
// is short on purpose: the customer's browser is waiting synchronously for
// the redirect URL.
type ProviderClient struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	returnURL     string
	cancelURL     string
	httpc         *http.Client
}

func NewProviderClient(baseURL, apiKey, webhookSecret, returnURL, cancelURL string, timeout time.Duration) *ProviderClient {
	return &ProviderClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		returnURL:     returnURL,
		cancelURL:     cancelURL,
		httpc:         &http.Client{Timeout: timeout},
	}
}

type CreateSessionRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Reference   string  `json:"reference"`
	Description string  `json:"description"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	ReturnURL   string  `json:"return_url"`
	CancelURL   string  `json:"cancel_url"`
}

type ProviderSession struct {
	ID          string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// CreateSession opens a payment session and returns the URL the customer's
// browser is redirected to.
func (c *ProviderClient) CreateSession(ctx context.Context, req CreateSessionRequest) (*ProviderSession, error) {
	if req.ReturnURL == "" {
		req.ReturnURL = c.returnURL
	}
	if req.CancelURL == "" {
		req.CancelURL = c.cancelURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("create session: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create session: provider returned %d: %s", resp.StatusCode, string(raw))
	}

	var session ProviderSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("create session: decode: %w", err)
	}
	if session.ID == "" || session.RedirectURL == "" {
		return nil, fmt.Errorf("create session: incomplete provider response")
	}
	return &session, nil
}

// CancelSession voids a session whose local handoff write failed, so no
// orphaned provider session is left uncancellable.
func (c *ProviderClient) CancelSession(ctx context.Context, sessionID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/sessions/"+sessionID+"/cancel", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cancel session: provider returned %d", resp.StatusCode)
	}
	return nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature the provider sends
// with every callback.
func (c *ProviderClient) VerifyWebhookSignature(payload []byte, signature string) bool {
	expected := signWebhookPayload(payload, c.webhookSecret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

func signWebhookPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
