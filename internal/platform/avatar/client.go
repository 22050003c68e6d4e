// Package avatar talks to the third-party user directory and thumbnail APIs.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UzukeeIA/ROBUXFREE/internal/common"
)

const (
	thumbnailSize   = "150x150"
	thumbnailFormat = "Png"
	maxBodyBytes    = 1 << 20
)

// Client resolves usernames and thumbnails against the upstream APIs.
// Every failure is reported as common.ErrUpstream or common.ErrNotFound.
type Client struct {
	usersBaseURL      string
	thumbnailsBaseURL string
	httpClient        *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func NewClient(usersBaseURL, thumbnailsBaseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	users, err := normalizeBaseURL(usersBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid users api url: %w", err)
	}
	thumbs, err := normalizeBaseURL(thumbnailsBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnails api url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		usersBaseURL:      users,
		thumbnailsBaseURL: thumbs,
		httpClient:        &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type usernamesRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

type usernamesResponse struct {
	Data []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type thumbnailsResponse struct {
	Data []struct {
		TargetID int64  `json:"targetId"`
		State    string `json:"state"`
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

// ResolveID maps a username to the upstream numeric user id.
func (c *Client) ResolveID(ctx context.Context, username string) (int64, error) {
	var out usernamesResponse
	body := usernamesRequest{Usernames: []string{username}, ExcludeBannedUsers: false}
	if err := c.do(ctx, http.MethodPost, c.usersBaseURL+"/v1/usernames/users", body, &out); err != nil {
		return 0, err
	}
	if len(out.Data) == 0 {
		return 0, fmt.Errorf("%w: no user named %s", common.ErrNotFound, username)
	}
	if out.Data[0].ID <= 0 {
		return 0, fmt.Errorf("%w: lookup for %q returned no id", common.ErrUpstream, username)
	}
	return out.Data[0].ID, nil
}

// ResolveThumbnail returns the headshot image URL of the upstream user id.
func (c *Client) ResolveThumbnail(ctx context.Context, id int64) (string, error) {
	q := url.Values{}
	q.Set("userIds", strconv.FormatInt(id, 10))
	q.Set("size", thumbnailSize)
	q.Set("format", thumbnailFormat)
	q.Set("isCircular", "false")

	var out thumbnailsResponse
	if err := c.do(ctx, http.MethodGet, c.thumbnailsBaseURL+"/v1/users/avatar-headshot?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	for _, item := range out.Data {
		if strings.TrimSpace(item.ImageURL) != "" {
			return item.ImageURL, nil
		}
	}
	return "", fmt.Errorf("%w: no thumbnail for user %d", common.ErrNotFound, id)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", common.ErrUpstream, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %s %s returned status %d", common.ErrUpstream, method, endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response from %s: %v", common.ErrUpstream, endpoint, err)
	}
	return nil
}

func normalizeBaseURL(base string) (string, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return "", err
	}
	return strings.TrimRight(trimmed, "/"), nil
}
