package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/api"
)

// sampleRecord builds a representative session record with state and
// two runs.
func sampleRecord(sessionID, workflowID string) *SessionRecord {
	return &SessionRecord{
		SessionID:    sessionID,
		WorkflowID:   workflowID,
		WorkflowName: "content-pipeline",
		SessionState: map[string]any{"topic": "ai", "count": float64(2)},
		Runs: []RunRecord{
			{
				RunID:        "run-1",
				WorkflowID:   workflowID,
				WorkflowName: "content-pipeline",
				Status:       "COMPLETED",
				Content:      api.Text("final draft"),
				StepResponses: []api.StepOutput{
					api.StepSucceeded("research", api.Text("findings")),
					api.StepSucceeded("write", api.Text("final draft")),
				},
				CreatedAt: 1700000000,
				UpdatedAt: 1700000100,
			},
			{
				RunID:      "run-2",
				WorkflowID: workflowID,
				Status:     "FAILED",
				Error:      "step \"write\" exploded",
				CreatedAt:  1700000200,
				UpdatedAt:  1700000300,
			},
		},
		CreatedAt: 1700000000,
		UpdatedAt: 1700000300,
	}
}

// runSessionStoreTests exercises the SessionStore contract against any
// backend. Each backend test hands in a freshly initialized store.
func runSessionStoreTests(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("ReadMissing", func(t *testing.T) {
		_, err := store.Read(ctx, "missing")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("UpsertAndRead", func(t *testing.T) {
		rec := sampleRecord("conf-sess-1", "wf-1")
		require.NoError(t, store.Upsert(ctx, rec))

		got, err := store.Read(ctx, "conf-sess-1")
		require.NoError(t, err)
		require.Equal(t, rec.SessionID, got.SessionID)
		require.Equal(t, rec.WorkflowID, got.WorkflowID)
		require.Equal(t, rec.SessionState, got.SessionState)
		require.Len(t, got.Runs, 2)
		require.Equal(t, "COMPLETED", got.Runs[0].Status)
		require.Equal(t, "final draft", got.Runs[0].Content.Text())
		require.Len(t, got.Runs[0].StepResponses, 2)
		require.Equal(t, "findings", got.Runs[0].StepResponses[0].Content.Text())
		require.Equal(t, `step "write" exploded`, got.Runs[1].Error)
	})

	t.Run("UpsertReplaces", func(t *testing.T) {
		rec := sampleRecord("conf-sess-1", "wf-1")
		rec.SessionState = map[string]any{"topic": "cooking"}
		rec.Runs = rec.Runs[:1]
		require.NoError(t, store.Upsert(ctx, rec))

		got, err := store.Read(ctx, "conf-sess-1")
		require.NoError(t, err)
		require.Equal(t, map[string]any{"topic": "cooking"}, got.SessionState)
		require.Len(t, got.Runs, 1)
	})

	t.Run("ReturnedRecordsDoNotAlias", func(t *testing.T) {
		rec := sampleRecord("conf-sess-alias", "wf-1")
		require.NoError(t, store.Upsert(ctx, rec))

		// Mutating the caller's record after Upsert must not leak in.
		rec.SessionState["topic"] = "mutated"

		got, err := store.Read(ctx, "conf-sess-alias")
		require.NoError(t, err)
		require.Equal(t, "ai", got.SessionState["topic"])

		// Mutating a read result must not affect later reads.
		got.SessionState["topic"] = "also mutated"
		again, err := store.Read(ctx, "conf-sess-alias")
		require.NoError(t, err)
		require.Equal(t, "ai", again.SessionState["topic"])
	})

	t.Run("ListFiltersByWorkflow", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, store.Upsert(ctx, sampleRecord(fmt.Sprintf("conf-list-a-%d", i), "wf-list-a")))
		}
		require.NoError(t, store.Upsert(ctx, sampleRecord("conf-list-b-0", "wf-list-b")))

		all, err := store.List(ctx, SessionFilter{WorkflowID: "wf-list-a"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		for _, rec := range all {
			require.Equal(t, "wf-list-a", rec.WorkflowID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		rec := sampleRecord("conf-sess-del", "wf-1")
		require.NoError(t, store.Upsert(ctx, rec))
		require.NoError(t, store.Delete(ctx, "conf-sess-del"))

		_, err := store.Read(ctx, "conf-sess-del")
		require.ErrorIs(t, err, ErrSessionNotFound)

		// Deleting again is harmless.
		require.NoError(t, store.Delete(ctx, "conf-sess-del"))
	})
}
