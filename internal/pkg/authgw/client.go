// Package authgw verifies bearer tokens against the external identity
// service. This service never mints or parses tokens itself; the token is an
// opaque string forwarded upstream.
package authgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrVerificationFailed covers every way a token can fail to verify:
// upstream rejection, a falsy validity flag, or a network error. Callers
// treat them all as 401.
var ErrVerificationFailed = errors.New("token verification failed")

const requestTimeout = 30 * time.Second

// UserInfo is the raw identity payload from the /auth/me endpoint. Its shape
// varies between identity providers, so it stays untyped and the user id is
// resolved by ResolveUserID.
type UserInfo map[string]any

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		log:     log,
	}
}

// Verify checks the token with the identity service and, if it is valid,
// fetches the full identity payload.
func (c *Client) Verify(ctx context.Context, token string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("auth verify request failed", zap.Error(err))
		return nil, ErrVerificationFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("auth verify rejected", zap.Int("status", resp.StatusCode))
		return nil, ErrVerificationFailed
	}

	var verifyResult map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&verifyResult); err != nil {
		c.log.Warn("auth verify response unreadable", zap.Error(err))
		return nil, ErrVerificationFailed
	}

	if !isValidFlag(verifyResult["valid"]) {
		c.log.Info("token validation returned false")
		return nil, ErrVerificationFailed
	}

	return c.userInfo(ctx, token)
}

func (c *Client) userInfo(ctx context.Context, token string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build me request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("auth me request failed", zap.Error(err))
		return nil, ErrVerificationFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("auth me rejected", zap.Int("status", resp.StatusCode))
		return nil, ErrVerificationFailed
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		c.log.Warn("auth me response unreadable", zap.Error(err))
		return nil, ErrVerificationFailed
	}
	return info, nil
}

// isValidFlag accepts a native boolean true or the literal string "true".
// Some identity services serialize the flag as a string.
func isValidFlag(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	default:
		return false
	}
}
