package hostaway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// tokenSource implements the OAuth2 client-credentials flow against the
// Hostaway accessTokens endpoint. The token is cached until shortly before
// expiry and dropped on Invalidate so a 401 triggers one fresh exchange.
type tokenSource struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(baseURL, clientID, clientSecret string, timeout time.Duration) *tokenSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &tokenSource{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (t *tokenSource) Headers(ctx context.Context) (map[string]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == "" || time.Now().After(t.expiry) {
		if err := t.fetch(ctx); err != nil {
			return nil, err
		}
	}
	return map[string]string{"Authorization": "Bearer " + t.token}, nil
}

func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()
}

func (t *tokenSource) fetch(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     t.clientID,
		"client_secret": t.clientSecret,
		"scope":         "general",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/accessTokens", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, body)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	expiresIn := time.Duration(tokenResp.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}

	t.token = tokenResp.AccessToken
	t.expiry = time.Now().Add(expiresIn - time.Minute)
	return nil
}
