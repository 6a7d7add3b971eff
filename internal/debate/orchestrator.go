// Package debate drives a server-executed debate to completion. The server
// runs the debate asynchronously; the orchestrator submits the configuration,
// then tracks progress by polling status snapshots until a terminal state.
package debate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haneoka/mygo-cli/internal/client"
)

// DefaultPollInterval is the delay between status polls.
const DefaultPollInterval = 2 * time.Second

// Backend is the subset of the server client the orchestrator needs.
type Backend interface {
	StartDebate(ctx context.Context, req client.DebateStartRequest) (*client.DebateSnapshot, error)
	DebateStatus(ctx context.Context, id string) (*client.DebateSnapshot, error)
}

// Orchestrator owns one debate's lifecycle: submission, polling and
// termination. Polls are strictly sequential; a new poll is never issued
// while one is in flight, and polling stops permanently on the first
// terminal snapshot or on a poll transport failure (the last snapshot is
// kept, stale but displayable).
type Orchestrator struct {
	backend  Backend
	logger   *slog.Logger
	interval time.Duration

	mu       sync.Mutex
	snapshot *client.DebateSnapshot
	polling  bool
	inflight bool
	// gen is bumped by Start and StopPolling. A poll result carrying an older
	// generation lost a race with cancellation or a restart and is dropped.
	gen uint64
}

// NewOrchestrator creates an orchestrator with no debate in progress.
// An interval of 0 selects DefaultPollInterval.
func NewOrchestrator(backend Backend, interval time.Duration, logger *slog.Logger) *Orchestrator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		backend:  backend,
		logger:   logger,
		interval: interval,
	}
}

// Interval returns the configured inter-poll delay.
func (o *Orchestrator) Interval() time.Duration {
	return o.interval
}

// Snapshot returns a copy of the last stored snapshot, or nil before the
// first submission.
func (o *Orchestrator) Snapshot() *client.DebateSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snapshot == nil {
		return nil
	}
	snap := *o.snapshot
	return &snap
}

// Status returns the current debate status, or "" when no debate has been
// submitted since the last reset.
func (o *Orchestrator) Status() client.DebateStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snapshot == nil {
		return ""
	}
	return o.snapshot.Status
}

// Polling reports whether further polls are scheduled.
func (o *Orchestrator) Polling() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.polling
}

// Start discards any prior debate and submits cfg for asynchronous execution.
//
// On acceptance the returned snapshot (normally "pending" with an id) is
// stored and polling is armed. If submission fails before an id is issued, a
// synthetic failed snapshot is stored, polling is not armed, and the error is
// returned.
func (o *Orchestrator) Start(ctx context.Context, cfg Config) (*client.DebateSnapshot, error) {
	o.mu.Lock()
	o.gen++
	o.snapshot = nil
	o.polling = false
	o.mu.Unlock()

	snap, err := o.backend.StartDebate(ctx, cfg.request())

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		o.logger.Error("debate submission failed", "topic", cfg.Topic, "error", err)
		o.snapshot = &client.DebateSnapshot{
			Status: client.DebateFailed,
			Topic:  cfg.Topic,
			Error:  "启动讨论失败: " + err.Error(),
		}
		failed := *o.snapshot
		return &failed, fmt.Errorf("start debate: %w", err)
	}

	o.snapshot = snap
	o.polling = snap.ID != "" && !snap.Status.Terminal()
	o.logger.Info("debate submitted", "debate_id", snap.ID, "status", snap.Status)

	accepted := *snap
	return &accepted, nil
}

// PollOnce fetches the current snapshot and replaces the stored one
// wholesale. It returns whether further polls should be scheduled.
//
// The fetched snapshot is authoritative: records, phase and status are taken
// as-is, never merged. A transport failure disarms polling and is returned;
// the previous snapshot stays visible. A response that raced StopPolling or
// a new Start is dropped without being applied.
func (o *Orchestrator) PollOnce(ctx context.Context) (bool, error) {
	o.mu.Lock()
	if !o.polling || o.inflight || o.snapshot == nil {
		polling := o.polling && !o.inflight
		o.mu.Unlock()
		return polling, nil
	}
	gen := o.gen
	id := o.snapshot.ID
	o.inflight = true
	o.mu.Unlock()

	snap, err := o.backend.DebateStatus(ctx, id)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight = false

	if gen != o.gen {
		o.logger.Debug("dropping late poll response", "debate_id", id)
		return false, nil
	}

	if err != nil {
		o.polling = false
		o.logger.Error("debate poll failed", "debate_id", id, "error", err)
		return false, fmt.Errorf("poll debate status: %w", err)
	}

	o.snapshot = snap
	if snap.Status.Terminal() {
		o.polling = false
		o.logger.Info("debate finished", "debate_id", id, "status", snap.Status, "records", len(snap.Records))
	}
	return o.polling, nil
}

// StopPolling cancels any future polls. It is idempotent, safe to call at any
// time, and does not alter the stored snapshot. An already-dispatched poll is
// not interrupted, but its response will be dropped.
func (o *Orchestrator) StopPolling() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.polling = false
}

// Watch polls sequentially until the debate reaches a terminal state, a poll
// fails, or ctx is cancelled. The first poll is issued immediately; each
// subsequent poll is scheduled only after the previous one resolves. onUpdate,
// if non-nil, is invoked with a copy of the snapshot after every applied poll.
func (o *Orchestrator) Watch(ctx context.Context, onUpdate func(client.DebateSnapshot)) error {
	for {
		cont, err := o.PollOnce(ctx)
		if err != nil {
			return err
		}
		if onUpdate != nil {
			if snap := o.Snapshot(); snap != nil {
				onUpdate(*snap)
			}
		}
		if !cont {
			return nil
		}

		timer := time.NewTimer(o.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.StopPolling()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
