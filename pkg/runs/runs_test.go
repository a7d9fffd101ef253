package runs_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/webmonitor/pkg/channels/gochannel"
	"github.com/dukex/webmonitor/pkg/eventbus"
	"github.com/dukex/webmonitor/pkg/events"
	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/runs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu       sync.Mutex
	delay    time.Duration
	panicOn  string
	inFlight int
	maxSeen  int
	runs     []string
}

func (r *fakeRunner) RunWithID(_ context.Context, runID string, source models.RunSource, urls []string) models.BatchResult {
	r.mu.Lock()
	r.inFlight++
	r.maxSeen = max(r.maxSeen, r.inFlight)
	r.runs = append(r.runs, runID)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if r.panicOn != "" && len(urls) > 0 && urls[0] == r.panicOn {
		panic("browser crashed")
	}

	time.Sleep(r.delay)

	outcomes := make([]models.CaptureOutcome, 0, len(urls))
	for _, url := range urls {
		outcomes = append(outcomes, models.CaptureOutcome{URL: url, Success: true})
	}

	return models.BatchResult{
		RunID:      runID,
		Source:     source,
		Outcomes:   outcomes,
		Successful: len(urls),
		Total:      len(urls),
	}
}

func newBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(slog.Default(), pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestDispatchRunsBatchInBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newBus(t)
	runner := &fakeRunner{}
	worker := runs.NewWorker(slog.Default(), runner, bus)

	completed := make(chan *events.RunCompleted, 1)
	require.NoError(t, bus.Handle(events.RunCompletedEvent, func(_ context.Context, event any) error {
		completed <- event.(*events.RunCompleted)

		return nil
	}))
	require.NoError(t, worker.Start(ctx))

	_, ok := worker.LastResult()
	assert.False(t, ok)

	dispatcher := runs.NewDispatcher(slog.Default(), bus)

	runID, err := dispatcher.Dispatch(ctx, models.RunSourceManual, []string{"https://example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	select {
	case event := <-completed:
		assert.Equal(t, runID, event.RunID)
		assert.Equal(t, 1, event.Result.Total)
		require.Len(t, event.Result.Outcomes, 1)
		assert.Equal(t, "https://example.com", event.Result.Outcomes[0].URL)
	case <-time.After(2 * time.Second):
		t.Fatal("run was not completed")
	}

	result, ok := worker.LastResult()
	require.True(t, ok)
	assert.Equal(t, runID, result.RunID)
	assert.Equal(t, models.RunSourceManual, result.Source)
}

func TestDispatchCopiesURLs(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{}

	urls := []string{"https://a.com"}

	_, err := runs.NewDispatcher(slog.Default(), publisher).Dispatch(ctx, models.RunSourceSchedule, urls)
	require.NoError(t, err)

	urls[0] = "https://mutated.com"

	require.Len(t, publisher.events, 1)
	request := publisher.events[0].(events.RunRequested)
	assert.Equal(t, []string{"https://a.com"}, request.URLs)
	assert.Equal(t, models.RunSourceSchedule, request.Source)
}

func TestDispatchPublishError(t *testing.T) {
	publisher := &capturingPublisher{err: errors.New("broker unavailable")}

	runID, err := runs.NewDispatcher(slog.Default(), publisher).
		Dispatch(context.Background(), models.RunSourceManual, []string{"https://a.com"})

	require.Error(t, err)
	assert.Empty(t, runID)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestWorkerSerializesBatches(t *testing.T) {
	bus := newBus(t)
	runner := &fakeRunner{delay: 20 * time.Millisecond}
	worker := runs.NewWorker(slog.Default(), runner, bus)

	var wg sync.WaitGroup

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			worker.Execute(context.Background(), id, models.RunSourceManual, []string{"https://a.com"})
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, runner.maxSeen)
	assert.Len(t, runner.runs, 3)
	assert.Empty(t, worker.Running())
}

func TestWorkerRecoversPanics(t *testing.T) {
	bus := newBus(t)
	runner := &fakeRunner{panicOn: "https://boom.com"}
	worker := runs.NewWorker(slog.Default(), runner, bus)

	var result models.BatchResult

	assert.NotPanics(t, func() {
		result = worker.Execute(context.Background(), "run-1", models.RunSourceSchedule, []string{"https://boom.com"})
	})

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.Successful)

	// The worker keeps serving after a panic.
	result = worker.Execute(context.Background(), "run-2", models.RunSourceSchedule, []string{"https://a.com"})
	assert.Equal(t, 1, result.Successful)
}

func TestWorkerRecordsAndPublishesPanickedRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newBus(t)
	runner := &fakeRunner{panicOn: "https://boom.com"}
	worker := runs.NewWorker(slog.Default(), runner, bus)

	completed := make(chan *events.RunCompleted, 2)
	require.NoError(t, bus.Handle(events.RunCompletedEvent, func(_ context.Context, event any) error {
		completed <- event.(*events.RunCompleted)

		return nil
	}))
	require.NoError(t, worker.Start(ctx))

	worker.Execute(ctx, "run-ok", models.RunSourceManual, []string{"https://a.com"})
	worker.Execute(ctx, "run-boom", models.RunSourceSchedule, []string{"https://boom.com", "https://b.com"})

	last, ok := worker.LastResult()
	require.True(t, ok)
	assert.Equal(t, "run-boom", last.RunID)
	assert.Equal(t, 2, last.Total)
	assert.Equal(t, 0, last.Successful)
	require.Len(t, last.Outcomes, 2)

	for _, outcome := range last.Outcomes {
		assert.False(t, outcome.Success)
		assert.Contains(t, outcome.Error, "browser crashed")
	}

	var published []string

	for len(published) < 2 {
		select {
		case event := <-completed:
			published = append(published, event.RunID)
		case <-time.After(2 * time.Second):
			t.Fatalf("got completions %v, want run-ok and run-boom", published)
		}
	}

	assert.ElementsMatch(t, []string{"run-ok", "run-boom"}, published)
}

type capturingPublisher struct {
	err    error
	events []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	if p.err != nil {
		return p.err
	}

	p.events = append(p.events, event)

	return nil
}
