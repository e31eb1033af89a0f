package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ChatDirectoryVerifier checks membership against a chat-directory REST API.
type ChatDirectoryVerifier struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewChatDirectoryVerifier creates a verifier for the directory at baseURL.
// The token is sent as a bearer credential on every request.
func NewChatDirectoryVerifier(baseURL, token string, timeout time.Duration) *ChatDirectoryVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChatDirectoryVerifier{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
	}
}

type membershipResponse struct {
	Member bool `json:"member"`
}

// VerifyMembership implements MembershipVerifier.
func (v *ChatDirectoryVerifier) VerifyMembership(ctx context.Context, email string) (bool, error) {
	endpoint := fmt.Sprintf("%s/members/%s", v.baseURL, url.PathEscape(email))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", v.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("membership request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("membership check failed: status %d", resp.StatusCode)
	}

	var result membershipResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	return result.Member, nil
}

// Ensure ChatDirectoryVerifier implements MembershipVerifier at compile time.
var _ MembershipVerifier = (*ChatDirectoryVerifier)(nil)
