package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stepflow-io/stepflow/internal/engine"
	"github.com/stepflow-io/stepflow/internal/taskqueue"
	"github.com/stepflow-io/stepflow/pkg/api"
)

// mapResolver is a fixed name-to-engine table.
type mapResolver map[string]api.Engine

func (m mapResolver) Lookup(name string) (api.Engine, bool) {
	eng, ok := m[name]
	return eng, ok
}

func echoEngine(t *testing.T, name string) api.Engine {
	t.Helper()
	return engine.New(engine.Config{
		Name: name,
		Steps: []api.Primitive{
			api.NewFuncStep("echo", func(ctx context.Context, input api.StepInput, state *api.SessionState) (api.Content, error) {
				return input.EffectiveMessage(), nil
			}),
		},
	})
}

func waitTerminal(t *testing.T, eng api.Engine, runID string) *api.RunResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if run, ok := eng.GetRun(runID); ok && run.Status.Terminal() {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %q did not terminate", runID)
	return nil
}

func TestWorkerProcessesStartRun(t *testing.T) {
	eng := echoEngine(t, "echo-wf")
	q := taskqueue.NewInMemoryQueue(8)
	w := New(mapResolver{"echo-wf": eng}, q)
	ctx := context.Background()

	if err := w.EnqueueStartRun(ctx, "echo-wf", api.Text("hello"), nil); err != nil {
		t.Fatalf("EnqueueStartRun failed: %v", err)
	}

	processed, err := w.ProcessOne(ctx)
	if err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}
	if !processed {
		t.Fatalf("expected a task to be processed")
	}

	history, err := eng.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one run, got %d", len(history))
	}
	final := waitTerminal(t, eng, history[0].RunID)
	if final.Status != api.RunCompleted || final.Content.Text() != "hello" {
		t.Fatalf("unexpected run outcome: %+v", final)
	}
}

func TestWorkerUnknownWorkflow(t *testing.T) {
	q := taskqueue.NewInMemoryQueue(8)
	w := New(mapResolver{}, q)
	ctx := context.Background()

	if err := w.EnqueueStartRun(ctx, "ghost", api.Text("x"), nil); err != nil {
		t.Fatalf("EnqueueStartRun failed: %v", err)
	}

	processed, err := w.ProcessOne(ctx)
	if !processed {
		t.Fatalf("the bad task still counts as processed")
	}
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected unknown-workflow error, got %v", err)
	}
}

func TestWorkerProcessesCancelRun(t *testing.T) {
	release := make(chan struct{})
	slow := engine.New(engine.Config{
		Name: "slow-wf",
		Steps: []api.Primitive{
			api.NewFuncStep("wait", func(ctx context.Context, input api.StepInput, state *api.SessionState) (api.Content, error) {
				<-release
				return api.Text("late"), nil
			}),
		},
	})
	q := taskqueue.NewInMemoryQueue(8)
	w := New(mapResolver{"slow-wf": slow}, q)
	ctx := context.Background()

	resp, err := slow.StartRun(ctx, api.Text("x"), nil)
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	if err := w.EnqueueCancelRun(ctx, "slow-wf", resp.RunID); err != nil {
		t.Fatalf("EnqueueCancelRun failed: %v", err)
	}
	if _, err := w.ProcessOne(ctx); err != nil {
		t.Fatalf("ProcessOne failed: %v", err)
	}
	close(release)

	final := waitTerminal(t, slow, resp.RunID)
	if final.Status != api.RunCancelled {
		t.Fatalf("expected CANCELLED, got %s", final.Status)
	}
}

func TestWorkerProcessOneRespectsContext(t *testing.T) {
	q := taskqueue.NewInMemoryQueue(1)
	w := New(mapResolver{}, q)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	processed, err := w.ProcessOne(ctx)
	if processed {
		t.Fatalf("nothing should be processed on an empty queue")
	}
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
