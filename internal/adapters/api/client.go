// Package api is the HTTP client for the doctor account API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// TokenHeader carries the session credential on every authenticated call.
const TokenHeader = "dToken"

// DefaultTimeout bounds a single call when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an unexpected response body is kept for errors.
const maxErrorBody = 512

// RejectedError is a business rejection: the server answered with success:false.
// Its text is the server's message, ready to show to the doctor.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "request was rejected"
	}
	return e.Message
}

// StatusError is a transport-level failure: a non-JSON body or an unexpected status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// IsRejected reports whether err is a business rejection from the server.
func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}

// Address is the practice address in a profile.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// Profile is the signed-in doctor's profile.
type Profile struct {
	ID         string  `json:"_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Speciality string  `json:"speciality"`
	Degree     string  `json:"degree"`
	Experience string  `json:"experience"`
	About      string  `json:"about"`
	Fees       int     `json:"fees"`
	Available  bool    `json:"available"`
	Address    Address `json:"address"`
}

// Event is one entry of the account's security log.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	Severity    string    `json:"severity"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ipAddress"`
	UserAgent   string    `json:"userAgent"`
}

// response is the superset of fields any endpoint may return.
type response struct {
	Success     *bool    `json:"success"`
	Message     string   `json:"message"`
	Token       string   `json:"token"`
	ProfileData *Profile `json:"profileData"`
	Events      []Event  `json:"events"`
}

// Client calls the account API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
// A nil httpClient gets a default one with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/doctor/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &StatusError{StatusCode: http.StatusOK, Body: "login response carried no token"}
	}
	return resp.Token, nil
}

// GetProfile loads the profile of the doctor the token belongs to.
func (c *Client) GetProfile(ctx context.Context, token string) (Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/doctor/profile", token, nil)
	if err != nil {
		return Profile{}, err
	}
	if resp.ProfileData == nil {
		return Profile{}, &StatusError{StatusCode: http.StatusOK, Body: "profile response carried no profileData"}
	}
	return *resp.ProfileData, nil
}

// ChangeEmail submits a new login email. It returns the server's success message.
func (c *Client) ChangeEmail(ctx context.Context, token, newEmail, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/doctor/change-email", token, map[string]string{
		"newEmail": newEmail,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ChangePassword replaces the password. It returns the server's success message.
func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/doctor/change-password", token, map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DeleteAccount permanently deletes the account. It returns the server's success message.
func (c *Client) DeleteAccount(ctx context.Context, token, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/doctor/delete-account", token, map[string]string{
		"password": password,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Activity returns the newest security log entries, at most limit of them.
// A limit of zero lets the server pick.
func (c *Client) Activity(ctx context.Context, token string, limit int) ([]Event, error) {
	path := "/api/doctor/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// do performs one call and sorts the outcome into success, rejection or transport failure.
// POST: a nil error means the server answered success:true
func (c *Client) do(ctx context.Context, method, path, token string, body any) (response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("failed to read response: %w", err)
	}

	var resp response
	decodeErr := json.Unmarshal(raw, &resp)

	switch {
	case httpResp.StatusCode == http.StatusOK || httpResp.StatusCode == http.StatusUnauthorized:
		if decodeErr != nil || resp.Success == nil {
			return response{}, &StatusError{StatusCode: httpResp.StatusCode, Body: truncate(raw)}
		}
		if !*resp.Success {
			return response{}, &RejectedError{StatusCode: httpResp.StatusCode, Message: resp.Message}
		}
		return resp, nil
	default:
		return response{}, &StatusError{StatusCode: httpResp.StatusCode, Body: truncate(raw)}
	}
}

func truncate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut]
	}
	return s
}
