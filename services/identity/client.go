// Package identity is the HTTP client for the hosted identity provider. The
// provider owns credentials and sessions; this service only mirrors accounts
// and must delete the provider-side record whenever a local user is removed.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 15 * time.Second
	// DefaultMaxRetries is the number of retry attempts for 5xx responses
	DefaultMaxRetries = 2
	// DefaultInitialBackoff is the initial retry backoff
	DefaultInitialBackoff = 500 * time.Millisecond
)

// ErrUserNotFound is returned when the provider has no record for the id.
// Callers deleting a user treat it as already-deleted.
var ErrUserNotFound = errors.New("identity: user not found")

// Client handles all identity provider API interactions
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// Config holds configuration for the identity client
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a new identity provider client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	return &Client{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		maxRetries: config.MaxRetries,
		backoff:    DefaultInitialBackoff,
	}
}

// Account is the provider-side representation of a user
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CreateAccountRequest is the payload for provisioning a new account
type CreateAccountRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// VerifySession asks the provider to validate a session token it issued and
// returns the account the session belongs to
func (c *Client) VerifySession(ctx context.Context, sessionToken string) (*Account, error) {
	body, err := json.Marshal(map[string]string{"token": sessionToken})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/sessions/verify", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnauthorized:
		return nil, ErrUserNotFound
	default:
		return nil, c.apiError(resp)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateUser provisions an account with the identity provider and returns it
func (c *Client) CreateUser(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/users", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.apiError(resp)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateUser updates the provider-side account metadata
func (c *Client) UpdateUser(ctx context.Context, identityID string, req CreateAccountRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPatch, "/v1/users/"+identityID, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		return c.apiError(resp)
	}
}

// DeleteUser deletes the provider-side account. A 404 from the provider is
// surfaced as ErrUserNotFound so a second delete of the same account is safe.
func (c *Client) DeleteUser(ctx context.Context, identityID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/v1/users/"+identityID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		return c.apiError(resp)
	}
}

// ReleaseAccount removes an account that was provisioned for a local write
// which then failed. The error is logged instead of returned; the caller is
// already reporting the original failure, and an account that lingers blocks
// its email address until an operator removes it.
func (c *Client) ReleaseAccount(ctx context.Context, identityID string) {
	err := c.DeleteUser(ctx, identityID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Printf("identity: failed to release orphaned account %s: %v", identityID, err)
	}
}

// do executes a request, retrying 5xx responses with exponential backoff
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("identity: provider returned %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("identity: provider returned %d: %s", resp.StatusCode, string(data))
}
