package taskqueue

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/stepflow-io/stepflow/pkg/api"
)

func newTestSQLiteQueue(t *testing.T) *SQLiteQueue {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	q, err := NewSQLiteQueue(db)
	require.NoError(t, err)
	return q
}

func TestSQLiteQueueRoundTrip(t *testing.T) {
	q := newTestSQLiteQueue(t)
	ctx := context.Background()

	in := Task{
		ID:       "t1",
		Type:     TaskTypeStartRun,
		Workflow: "content-pipeline",
		Message:  api.Text("write about ai"),
		Options:  &api.RunOptions{AdditionalData: map[string]any{"priority": "high"}},
	}
	require.NoError(t, q.Enqueue(ctx, in))
	require.Equal(t, 1, q.Len())

	out, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "t1", out.ID)
	require.Equal(t, TaskTypeStartRun, out.Type)
	require.Equal(t, "content-pipeline", out.Workflow)
	require.Equal(t, "write about ai", out.Message.Text())
	require.NotNil(t, out.Options)
	require.Equal(t, "high", out.Options.AdditionalData["priority"])
	require.Equal(t, 0, q.Len())
}

func TestSQLiteQueueFIFO(t *testing.T) {
	q := newTestSQLiteQueue(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, Task{ID: id, Type: TaskTypeCancelRun, Workflow: "wf", RunID: "r"}))
	}
	for _, want := range []string{"a", "b", "c"} {
		task, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.Equal(t, want, task.ID)
	}
}

func TestSQLiteQueueHonorsNotBefore(t *testing.T) {
	q := newTestSQLiteQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Task{
		ID:        "later",
		Type:      TaskTypeStartRun,
		Workflow:  "wf",
		NotBefore: time.Now().Add(60 * time.Millisecond),
	}))
	require.NoError(t, q.Enqueue(ctx, Task{ID: "now", Type: TaskTypeStartRun, Workflow: "wf"}))

	// The eligible task wins even though it was enqueued second.
	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "now", first.ID)

	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "later", second.ID)
}

func TestSQLiteQueueDequeueRespectsContext(t *testing.T) {
	q := newTestSQLiteQueue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
