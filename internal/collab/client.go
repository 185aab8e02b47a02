package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"safetycore/internal/core"
	"safetycore/pkg/domain"
)

// Client talks to the backend collaborator over HTTP. All responses carry
// authoritative entity payloads; callers merge them through the patch path.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets a bearer token attached to every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient constructs a collaborator client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BulkFetch retrieves the full incident/task/location/user collections.
func (c *Client) BulkFetch(ctx context.Context) (core.SnapshotPayload, error) {
	var payload core.SnapshotPayload
	if err := c.do(ctx, http.MethodGet, "/api/v1/snapshot", nil, &payload); err != nil {
		return core.SnapshotPayload{}, err
	}
	return payload, nil
}

// CreateIncident submits a new incident and returns the authoritative record.
func (c *Client) CreateIncident(ctx context.Context, in domain.Incident) (domain.Incident, error) {
	var out domain.Incident
	if err := c.do(ctx, http.MethodPost, "/api/v1/incidents", in, &out); err != nil {
		return domain.Incident{}, err
	}
	return out, nil
}

// CreateTask submits a new task, typically carrying a temporary client-side
// identifier, and returns the authoritative record.
func (c *Client) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", t, &out); err != nil {
		return domain.Task{}, err
	}
	return out, nil
}

// StatusUpdate is the wire shape of a task status change request. Reason and
// Date are required when Status is delayed.
type StatusUpdate struct {
	Status domain.TaskStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
	Date   *time.Time        `json:"date,omitempty"`
}

// UpdateTaskStatus requests a status transition and returns the authoritative task.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, update StatusUpdate) (domain.Task, error) {
	var out domain.Task
	path := "/api/v1/tasks/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPost, path, update, &out); err != nil {
		return domain.Task{}, err
	}
	return out, nil
}

// AppendComment appends a comment to a task and returns the authoritative task.
func (c *Client) AppendComment(ctx context.Context, id string, comment domain.Comment) (domain.Task, error) {
	var out domain.Task
	path := "/api/v1/tasks/" + url.PathEscape(id) + "/comments"
	if err := c.do(ctx, http.MethodPost, path, comment, &out); err != nil {
		return domain.Task{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
