// API service for making HTTP requests to a running jukebox server
package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// APIService provides methods for making HTTP requests to the jukebox API.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// Delete performs a DELETE request and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// call performs a request and decodes a successful JSON body into out (when non-nil).
func (a *APIService) call(ctx context.Context, method, path string, in, out any) error {
	var data []byte
	if in != nil {
		var err error
		if data, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := a.do(ctx, method, path, data)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s %s: status %d: %s", shared.ErrAPIRequest, method, path, resp.StatusCode, errorMessage(resp))
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func errorMessage(resp *APIResponse) string {
	if m, ok := resp.JSONData.(map[string]any); ok {
		if msg, ok := m["error"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(resp.Body))
}

// Status is the decoded body of GET /api/status.
type Status struct {
	Status     models.PlaybackStatus `json:"status"`
	RepeatOnce bool                  `json:"repeat_once"`
	Elapsed    float64               `json:"elapsed"`
	Duration   float64               `json:"duration"`
	Reason     string                `json:"reason,omitempty"`
}

// Current is the decoded body of GET /api/current. Index and Track are nil when nothing is selected.
type Current struct {
	Tab   int           `json:"tab"`
	Index *int          `json:"index"`
	Track *models.Track `json:"track"`
}

// Status fetches the playback status.
func (a *APIService) Status(ctx context.Context) (Status, error) {
	var s Status
	err := a.call(ctx, http.MethodGet, "/api/status", nil, &s)
	return s, err
}

// Current fetches the current track index.
func (a *APIService) Current(ctx context.Context) (Current, error) {
	var c Current
	err := a.call(ctx, http.MethodGet, "/api/current", nil, &c)
	return c, err
}

// Tabs fetches the open tabs.
func (a *APIService) Tabs(ctx context.Context) (facade.TabsView, error) {
	var t facade.TabsView
	err := a.call(ctx, http.MethodGet, "/api/tabs", nil, &t)
	return t, err
}

// Command sends a transport command and returns the resulting status.
func (a *APIService) Command(ctx context.Context, cmd facade.Command) (models.PlaybackStatus, error) {
	var out struct {
		Status models.PlaybackStatus `json:"status"`
	}
	err := a.call(ctx, http.MethodPost, "/api/command", cmd, &out)
	return out.Status, err
}

// Save asks the server to persist its tabs.
func (a *APIService) Save(ctx context.Context) error {
	return a.call(ctx, http.MethodPost, "/api/save", nil, nil)
}

// Event is one message from the event stream. Data is the raw JSON payload.
type Event struct {
	ID   string
	Name string
	Data json.RawMessage
}

// Watch follows GET /api/events, calling fn for every event until ctx ends, the server closes the stream,
// or fn returns an error.
func (a *APIService) Watch(ctx context.Context, fn func(Event) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: event stream: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var ev Event
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev.Name == "" {
				continue
			}
			if err := fn(ev); err != nil {
				return err
			}
			ev = Event{}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id: "):
			ev.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: event stream: %v", shared.ErrAPIRequest, err)
	}
	return nil
}
