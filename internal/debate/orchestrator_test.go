package debate_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haneoka/mygo-cli/internal/client"
	"github.com/haneoka/mygo-cli/internal/debate"
	"github.com/haneoka/mygo-cli/internal/personas"
)

// testLogger creates a logger that writes to stderr for test visibility.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeBackend scripts the submission response and a queue of poll responses.
type fakeBackend struct {
	mu sync.Mutex

	startSnap *client.DebateSnapshot
	startErr  error
	startReqs []client.DebateStartRequest

	polls    []pollResult
	pollIdx  int
	pollGate chan struct{} // when set, DebateStatus blocks until closed
}

type pollResult struct {
	snap *client.DebateSnapshot
	err  error
}

func (f *fakeBackend) StartDebate(ctx context.Context, req client.DebateStartRequest) (*client.DebateSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startReqs = append(f.startReqs, req)
	if f.startErr != nil {
		return nil, f.startErr
	}
	snap := *f.startSnap
	return &snap, nil
}

func (f *fakeBackend) DebateStatus(ctx context.Context, id string) (*client.DebateSnapshot, error) {
	f.mu.Lock()
	gate := f.pollGate
	var res pollResult
	if f.pollIdx < len(f.polls) {
		res = f.polls[f.pollIdx]
		f.pollIdx++
	} else {
		res = pollResult{err: errors.New("unexpected poll")}
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if res.err != nil {
		return nil, res.err
	}
	snap := *res.snap
	return &snap, nil
}

func (f *fakeBackend) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollIdx
}

func testConfig() debate.Config {
	return debate.Config{
		Topic:     "T",
		ProStance: "A",
		ConStance: "B",
		Pro:       []personas.Key{personas.Tomori},
		Con:       []personas.Key{personas.Taki},
	}
}

func TestDebateLifecycle(t *testing.T) {
	records := []client.DebateRecord{
		{SpeakerName: "高松灯", Content: "……", Phase: "opening"},
		{SpeakerName: "椎名立希", Content: "哼。", Phase: "opening"},
		{SpeakerName: "高松灯", Content: "诗。", Phase: "free_debate"},
		{SpeakerName: "椎名立希", Content: "完了。", Phase: "closing"},
	}

	backend := &fakeBackend{
		startSnap: &client.DebateSnapshot{ID: "d1", Status: client.DebatePending, Topic: "T"},
		polls: []pollResult{
			{snap: &client.DebateSnapshot{
				ID: "d1", Status: client.DebateRunning, CurrentPhase: "opening",
				Records: records[:1],
			}},
			{snap: &client.DebateSnapshot{
				ID: "d1", Status: client.DebateCompleted, Records: records,
			}},
		},
	}

	orch := debate.NewOrchestrator(backend, time.Millisecond, testLogger())
	require.Equal(t, client.DebateStatus(""), orch.Status(), "no state before submission")

	snap, err := orch.Start(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "d1", snap.ID)
	assert.Equal(t, client.DebatePending, snap.Status)
	assert.True(t, orch.Polling())

	require.Len(t, backend.startReqs, 1)
	assert.True(t, backend.startReqs[0].Async)

	var statuses []client.DebateStatus
	err = orch.Watch(context.Background(), func(s client.DebateSnapshot) {
		statuses = append(statuses, s.Status)
	})
	require.NoError(t, err)

	assert.Equal(t, []client.DebateStatus{client.DebateRunning, client.DebateCompleted}, statuses,
		"snapshots applied in poll order")
	assert.Equal(t, 2, backend.pollCount(), "polling stops at the first terminal snapshot")
	assert.False(t, orch.Polling())

	final := orch.Snapshot()
	require.NotNil(t, final)
	assert.Equal(t, client.DebateCompleted, final.Status)
	assert.Len(t, final.Records, 4, "terminal snapshot replaces earlier state wholesale")
}

func TestStartSubmissionFailure(t *testing.T) {
	backend := &fakeBackend{startErr: errors.New("connection refused")}
	orch := debate.NewOrchestrator(backend, time.Millisecond, testLogger())

	snap, err := orch.Start(context.Background(), testConfig())
	require.Error(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, client.DebateFailed, snap.Status)
	assert.NotEmpty(t, snap.Error, "synthetic failure carries an explanation")
	assert.False(t, orch.Polling(), "no identifier, no polling")

	cont, err := orch.PollOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, cont)
	assert.Zero(t, backend.pollCount(), "no status request is ever issued")
}

func TestPollTransportFailureStopsPolling(t *testing.T) {
	backend := &fakeBackend{
		startSnap: &client.DebateSnapshot{ID: "d1", Status: client.DebatePending},
		polls:     []pollResult{{err: errors.New("timeout")}},
	}
	orch := debate.NewOrchestrator(backend, time.Millisecond, testLogger())

	_, err := orch.Start(context.Background(), testConfig())
	require.NoError(t, err)

	cont, err := orch.PollOnce(context.Background())
	require.Error(t, err, "a failed poll is not retried")
	assert.False(t, cont)
	assert.False(t, orch.Polling())

	// The last known snapshot stays visible, stale but displayable.
	snap := orch.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, client.DebatePending, snap.Status)

	cont, err = orch.PollOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, cont)
	assert.Equal(t, 1, backend.pollCount(), "no further polls after a transport failure")
}

func TestStopPollingDropsLateResponse(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{
		startSnap: &client.DebateSnapshot{ID: "d1", Status: client.DebatePending},
		polls: []pollResult{
			{snap: &client.DebateSnapshot{ID: "d1", Status: client.DebateRunning}},
		},
		pollGate: gate,
	}
	orch := debate.NewOrchestrator(backend, time.Millisecond, testLogger())

	_, err := orch.Start(context.Background(), testConfig())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cont, err := orch.PollOnce(context.Background())
		assert.NoError(t, err)
		assert.False(t, cont, "a response racing cancellation must not reschedule")
	}()

	// Wait for the poll to be dispatched, then cancel while it is in flight.
	require.Eventually(t, func() bool { return backend.pollCount() == 1 },
		time.Second, time.Millisecond)
	orch.StopPolling()
	close(gate)
	<-done

	snap := orch.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, client.DebatePending, snap.Status, "late response is dropped, not applied")
}

func TestStopPollingIdempotent(t *testing.T) {
	backend := &fakeBackend{
		startSnap: &client.DebateSnapshot{ID: "d1", Status: client.DebatePending},
	}
	orch := debate.NewOrchestrator(backend, time.Millisecond, testLogger())

	orch.StopPolling() // before any debate exists

	_, err := orch.Start(context.Background(), testConfig())
	require.NoError(t, err)

	orch.StopPolling()
	orch.StopPolling()
	assert.False(t, orch.Polling())

	cont, err := orch.PollOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, cont)
	assert.Zero(t, backend.pollCount())

	snap := orch.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, client.DebatePending, snap.Status, "stop does not alter the stored snapshot")
}

func TestRestartAfterTerminal(t *testing.T) {
	backend := &fakeBackend{
		startSnap: &client.DebateSnapshot{ID: "d1", Status: client.DebatePending},
		polls: []pollResult{
			{snap: &client.DebateSnapshot{ID: "d1", Status: client.DebateFailed, Error: "model error"}},
		},
	}
	orch := debate.NewOrchestrator(backend, time.Millisecond, testLogger())

	_, err := orch.Start(context.Background(), testConfig())
	require.NoError(t, err)
	err = orch.Watch(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, client.DebateFailed, orch.Status())

	// A new start discards the terminal state entirely.
	backend.mu.Lock()
	backend.startSnap = &client.DebateSnapshot{ID: "d2", Status: client.DebatePending}
	backend.mu.Unlock()

	snap, err := orch.Start(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "d2", snap.ID)
	assert.Equal(t, client.DebatePending, snap.Status)
	assert.True(t, orch.Polling())
}

func TestWatchContextCancellation(t *testing.T) {
	backend := &fakeBackend{
		startSnap: &client.DebateSnapshot{ID: "d1", Status: client.DebatePending},
		polls: []pollResult{
			{snap: &client.DebateSnapshot{ID: "d1", Status: client.DebateRunning}},
			{snap: &client.DebateSnapshot{ID: "d1", Status: client.DebateRunning}},
		},
	}
	orch := debate.NewOrchestrator(backend, time.Hour, testLogger())

	_, err := orch.Start(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	watchErr := make(chan error, 1)
	go func() { watchErr <- orch.Watch(ctx, nil) }()

	require.Eventually(t, func() bool { return backend.pollCount() == 1 },
		time.Second, time.Millisecond)
	cancel()

	require.ErrorIs(t, <-watchErr, context.Canceled)
	assert.False(t, orch.Polling())
	assert.Equal(t, 1, backend.pollCount(), "no poll issued after cancellation")
}
