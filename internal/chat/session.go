// Package chat manages a one-on-one conversation between the user and a
// single persona. A session owns one linear transcript and allows at most
// one request in flight at a time.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haneoka/mygo-cli/internal/client"
	"github.com/haneoka/mygo-cli/internal/personas"
)

// Backend sends a single chat turn to the server.
type Backend interface {
	Chat(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error)
}

// Sentinel errors for SendMessage preconditions.
var (
	// ErrEmptyMessage indicates the message was empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy indicates a previous request has not yet resolved. The caller
	// is expected to disable input while busy; there is no internal queue.
	ErrBusy = errors.New("a request is already in flight")
)

// fallbackReply keeps the transcript coherent when the server is unreachable.
const fallbackReply = "抱歉，系统暂时出了点问题...迷子でもいい，但现在真的连不上了。"

// Role distinguishes who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session transcript. Messages are immutable once
// appended; transcript order is conversation order.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Timestamp   time.Time
	Philosopher string // persona display name, assistant messages only
	CriticalHit bool   // server flagged the reply as a sharp-tongued hit
}

// Session is a single chat conversation. The session id is generated once and
// reused for every request so the server can correlate turns.
type Session struct {
	id      string
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	messages []Message
	busy     bool
}

// NewSession creates an empty session backed by the given server client.
func NewSession(backend Backend, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:      uuid.New().String(),
		backend: backend,
		logger:  logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Busy reports whether a request is currently in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Messages returns a copy of the transcript in conversation order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear resets the transcript. The session id is kept. Idempotent.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// SendMessage sends one user message to the persona and appends both sides of
// the exchange to the transcript.
//
// The user message is appended before the round-trip resolves so the
// transcript reflects the send immediately. On a transport or server failure
// a fixed fallback reply is appended instead of a persona reply, the session
// stays usable, and the error is returned so the caller can surface it.
// Either way the transcript grows by exactly two messages and the busy flag
// is cleared.
func (s *Session) SendMessage(ctx context.Context, text string, key personas.Key) (*client.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.messages = append(s.messages, Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	resp, err := s.backend.Chat(ctx, client.ChatRequest{
		SessionID:   s.id,
		Message:     text,
		Philosopher: string(key),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil {
		s.logger.Error("chat request failed", "session_id", s.id, "philosopher", key, "error", err)
		s.messages = append(s.messages, Message{
			ID:        uuid.New().String(),
			Role:      RoleAssistant,
			Content:   fallbackReply,
			Timestamp: time.Now(),
		})
		return nil, fmt.Errorf("chat request: %w", err)
	}

	s.messages = append(s.messages, Message{
		ID:          uuid.New().String(),
		Role:        RoleAssistant,
		Content:     resp.Response,
		Timestamp:   time.Now(),
		Philosopher: resp.Philosopher,
		CriticalHit: resp.CriticalHit,
	})
	return resp, nil
}
