// Package client provides an HTTP client for the mygo-chat server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/haneoka/mygo-cli/internal/metrics"
)

// Client is an HTTP JSON client for the mygo-chat server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	collector  *metrics.Collector
}

// New creates a new server client.
// If baseURL is empty, uses MYGO_SERVER_URL env var or defaults to localhost:8080.
// A non-positive timeout falls back to 5m; debate turns can take a while on
// slow models.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("MYGO_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetCollector attaches a metrics collector that records per-request timings.
func (c *Client) SetCollector(collector *metrics.Collector) {
	c.collector = collector
}

// record reports one request outcome to the collector, if attached.
func (c *Client) record(op string, start time.Time, err error) {
	if c.collector != nil {
		c.collector.RecordRequest(op, time.Since(start), err != nil)
	}
}

// postJSON sends a POST request with a JSON body and decodes the response into result.
func (c *Client) postJSON(ctx context.Context, path string, payload, result any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// getJSON sends a GET request with query parameters and decodes the response into result.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// =============================================================================
// TYPES (matching the server wire contract)
// =============================================================================

// ChatRequest is the payload for a single chat turn.
type ChatRequest struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	Philosopher string `json:"philosopher"`
}

// ChatResponse is the server's reply to a chat turn.
type ChatResponse struct {
	Response     string `json:"response"`
	Philosopher  string `json:"philosopher"`
	EmotionLevel string `json:"emotion_level"`
	CriticalHit  bool   `json:"critical_hit"`
}

// DebateStatus enumerates the lifecycle states of a server-side debate.
type DebateStatus string

// Debate lifecycle states. Completed and Failed are terminal.
const (
	DebatePending   DebateStatus = "pending"
	DebateRunning   DebateStatus = "running"
	DebateCompleted DebateStatus = "completed"
	DebateFailed    DebateStatus = "failed"
)

// Terminal reports whether no further state transitions can occur.
func (s DebateStatus) Terminal() bool {
	return s == DebateCompleted || s == DebateFailed
}

// DebateStartRequest is the payload for starting a debate.
// Async requests the server to run the debate in the background and return
// an id immediately; the client then tracks progress via DebateStatus.
type DebateStartRequest struct {
	Topic           string            `json:"topic"`
	ProStance       string            `json:"pro_stance"`
	ConStance       string            `json:"con_stance"`
	ProPhilosophers []string          `json:"pro_philosophers"`
	ConPhilosophers []string          `json:"con_philosophers"`
	ForcedStances   map[string]string `json:"forced_stances,omitempty"`
	Async           bool              `json:"async,omitempty"`
}

// DebateRecord is one utterance within a debate.
type DebateRecord struct {
	SpeakerName string `json:"speaker_name"`
	Content     string `json:"content"`
	Phase       string `json:"phase"`
}

// DebateSnapshot is the full state of a debate as reported by the server.
// Every status response carries the complete record list; the server is
// authoritative and snapshots replace any previously seen state wholesale.
type DebateSnapshot struct {
	ID           string         `json:"id,omitempty"`
	Status       DebateStatus   `json:"status"`
	Topic        string         `json:"topic,omitempty"`
	CurrentPhase string         `json:"current_phase,omitempty"`
	Records      []DebateRecord `json:"records,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// PhilosopherInfo is the server's view of a persona, including prompt quotes.
type PhilosopherInfo struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Quotes      []string `json:"quotes"`
}

// HealthStatus is the response of the health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Chat sends one user message within a session and returns the persona's reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	start := time.Now()
	err := c.postJSON(ctx, "/api/chat", req, &resp)
	c.record(metrics.OpChat, start, err)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartDebate submits a debate configuration. With Async set the returned
// snapshot normally has status "pending" and carries the debate id.
func (c *Client) StartDebate(ctx context.Context, req DebateStartRequest) (*DebateSnapshot, error) {
	var resp DebateSnapshot
	start := time.Now()
	err := c.postJSON(ctx, "/api/debate/start", req, &resp)
	c.record(metrics.OpDebateStart, start, err)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DebateStatus fetches the current snapshot of a running debate.
func (c *Client) DebateStatus(ctx context.Context, id string) (*DebateSnapshot, error) {
	var resp DebateSnapshot
	query := url.Values{"id": {id}}
	start := time.Now()
	err := c.getJSON(ctx, "/api/debate/status", query, &resp)
	c.record(metrics.OpDebatePoll, start, err)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Philosophers lists the personas known to the server.
func (c *Client) Philosophers(ctx context.Context) ([]PhilosopherInfo, error) {
	var resp []PhilosopherInfo
	start := time.Now()
	err := c.getJSON(ctx, "/api/philosophers", nil, &resp)
	c.record(metrics.OpPhilosophers, start, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Health checks server availability.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	start := time.Now()
	err := c.getJSON(ctx, "/api/health", nil, &resp)
	c.record(metrics.OpHealth, start, err)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
