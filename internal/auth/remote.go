package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/config"
)

const remoteVerifyPath = "/v1/tokens/verify"

// RemoteVerifier delegates token verification to the identity provider's
// HTTP API, authenticating with the provider secret key.
type RemoteVerifier struct {
	endpoint  string
	secretKey string
	client    *http.Client
}

var _ Verifier = (*RemoteVerifier)(nil)

type remoteVerifyRequest struct {
	Token string `json:"token"`
}

type remoteVerifyResponse struct {
	Subject   string `json:"sub"`
	SessionID string `json:"sid"`
	Email     string `json:"email"`
}

func NewRemoteVerifier(baseURL, secretKey string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteVerifier{
		endpoint:  strings.TrimRight(baseURL, "/") + remoteVerifyPath,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	body, err := json.Marshal(remoteVerifyRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.secretKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: provider returned status %d", ErrInvalidToken, resp.StatusCode)
	}

	var payload remoteVerifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	if strings.TrimSpace(payload.Subject) == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		Subject:   payload.Subject,
		SessionID: payload.SessionID,
		Email:     payload.Email,
	}, nil
}

// NewVerifier builds the verifier selected by cfg.Provider.
func NewVerifier(cfg config.AuthConfig) (Verifier, error) {
	switch cfg.Provider {
	case "", config.ProviderJWT:
		return NewJWTManager(cfg.SecretKey, time.Hour, cfg.Issuer), nil
	case config.ProviderRemote:
		if cfg.ProviderURL == "" {
			return nil, fmt.Errorf("remote identity provider requires a provider URL")
		}
		return NewRemoteVerifier(cfg.ProviderURL, cfg.SecretKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.Provider)
	}
}
