package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"
)

// Client is the thin HTTP glue around the publishing API. Authentication is
// session-based: Login establishes cookies on the client's jar and every
// later call rides on them. The client does not retry; that policy belongs
// to the caller.
type Client struct {
	http     *http.Client
	baseURL  string
	username string
	password string
	logger   *zlog.Zerolog
}

type loginResponse struct {
	Authenticated bool   `json:"authenticated"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type publishResponse struct {
	Status string `json:"status"`
	Media  struct {
		ID string `json:"id"`
	} `json:"media"`
	Message string `json:"message"`
}

func NewClient(baseURL, username, password string, timeout time.Duration, logger *zlog.Zerolog) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		logger:   logger,
	}, nil
}

// Login authenticates with username and password and stores the session
// cookies on the client.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/accounts/login/", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %v: %w", err, ErrLoginFailed)
	}
	defer resp.Body.Close()

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode login response: %v: %w", err, ErrLoginFailed)
	}

	if resp.StatusCode != http.StatusOK || !body.Authenticated {
		return fmt.Errorf("login rejected (%s): %s: %w", resp.Status, body.Message, ErrLoginFailed)
	}

	c.logger.Info().Str("username", c.username).Msg("Instagram session established")
	return nil
}

// Publish uploads the image bytes with the caption and returns the created
// media ID.
func (c *Client) Publish(ctx context.Context, imageData []byte, caption string) (string, error) {
	var payload bytes.Buffer
	mw := multipart.NewWriter(&payload)

	part, err := mw.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return "", fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := mw.WriteField("caption", caption); err != nil {
		return "", fmt.Errorf("failed to write caption field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/media/upload/", &payload)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %v: %w", err, ErrPublishFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("upload rejected (%s): %w", resp.Status, ErrSessionExpired)
	}

	var body publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %v: %w", err, ErrPublishFailed)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return "", fmt.Errorf("upload rejected (%s): %s: %w", resp.Status, body.Message, ErrPublishFailed)
	}

	c.logger.Info().Str("media_id", body.Media.ID).Int("size", len(imageData)).Msg("Image published")
	return body.Media.ID, nil
}

// ValidateSession makes a cheap authenticated call so startup can fail fast
// on a dead session instead of on the first post.
func (c *Client) ValidateSession(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/accounts/current_user/", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
