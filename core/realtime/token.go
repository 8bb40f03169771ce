package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ephemeralToken is the response of a session token endpoint. Both the
// {"client_secret":{"value":...}} and {"value":...} shapes are accepted.
type ephemeralToken struct {
	Value        string `json:"value"`
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
}

func (t ephemeralToken) secret() string {
	if t.ClientSecret.Value != "" {
		return t.ClientSecret.Value
	}
	return t.Value
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating token request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching session token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("non-OK HTTP status fetching session token: %s: %s", resp.Status, body)
	}

	var token ephemeralToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("error decoding session token: %w", err)
	}
	if token.secret() == "" {
		return "", fmt.Errorf("session token response has no secret")
	}
	return token.secret(), nil
}
