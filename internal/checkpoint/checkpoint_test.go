package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/graph"
)

func strp(s string) *string { return &s }

func TestLoad_SingleModifiedRow(t *testing.T) {
	rows := []graph.CheckpointRow{
		{ID: 1, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeModified, OldContent: strp("old"), NewContent: strp("new")},
	}

	cs, ids, err := Load(rows)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	key := graph.FileKey{ProjectID: 1, FilePath: "main.go"}
	change, ok := cs.Changes[key]
	require.True(t, ok)
	assert.Equal(t, graph.ChangeModified, change.Kind)
	assert.Equal(t, "old", change.OldContent)
	assert.Equal(t, "new", change.NewContent)
}

func TestLoad_DeletedThenAddedBecomesModified(t *testing.T) {
	rows := []graph.CheckpointRow{
		{ID: 1, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeDeleted, OldContent: strp("v1")},
		{ID: 2, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeAdded, NewContent: strp("v2")},
	}

	cs, ids, err := Load(rows)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	key := graph.FileKey{ProjectID: 1, FilePath: "main.go"}
	change, ok := cs.Changes[key]
	require.True(t, ok)
	assert.Equal(t, graph.ChangeModified, change.Kind)
	assert.Equal(t, "v1", change.OldContent)
	assert.Equal(t, "v2", change.NewContent)
}

func TestLoad_AddedThenDeletedIsNoOpButRowsProcessed(t *testing.T) {
	rows := []graph.CheckpointRow{
		{ID: 1, ProjectID: 1, FilePath: "new.go", ChangeKind: graph.ChangeAdded, NewContent: strp("v1")},
		{ID: 2, ProjectID: 1, FilePath: "new.go", ChangeKind: graph.ChangeDeleted, OldContent: strp("v1")},
	}

	cs, ids, err := Load(rows)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	key := graph.FileKey{ProjectID: 1, FilePath: "new.go"}
	_, ok := cs.Changes[key]
	assert.False(t, ok, "added-then-deleted must not appear as a logical change")
}

func TestLoad_EarliestOldLatestNewSurvive(t *testing.T) {
	rows := []graph.CheckpointRow{
		{ID: 1, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeModified, OldContent: strp("v0"), NewContent: strp("v1")},
		{ID: 2, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeModified, OldContent: strp("v1"), NewContent: strp("v2")},
		{ID: 3, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeModified, OldContent: strp("v2"), NewContent: strp("v3")},
	}

	cs, _, err := Load(rows)
	require.NoError(t, err)

	key := graph.FileKey{ProjectID: 1, FilePath: "main.go"}
	change := cs.Changes[key]
	assert.Equal(t, "v0", change.OldContent)
	assert.Equal(t, "v3", change.NewContent)
}

func TestLoad_RevertProducesIdenticalOldAndNew(t *testing.T) {
	rows := []graph.CheckpointRow{
		{ID: 1, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeModified, OldContent: strp("A"), NewContent: strp("B")},
		{ID: 2, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeModified, OldContent: strp("B"), NewContent: strp("A")},
	}

	cs, _, err := Load(rows)
	require.NoError(t, err)

	key := graph.FileKey{ProjectID: 1, FilePath: "main.go"}
	change := cs.Changes[key]
	assert.Equal(t, change.OldContent, change.NewContent, "a revert must coalesce to an identity change")
}

func TestLoad_RejectsModifiedRowMissingOldContent(t *testing.T) {
	rows := []graph.CheckpointRow{
		{ID: 1, ProjectID: 1, FilePath: "main.go", ChangeKind: graph.ChangeModified, NewContent: strp("v1")},
	}

	_, _, err := Load(rows)
	require.Error(t, err)
}

func TestLoad_DeletedFile(t *testing.T) {
	rows := []graph.CheckpointRow{
		{ID: 1, ProjectID: 1, FilePath: "gone.go", ChangeKind: graph.ChangeDeleted, OldContent: strp("body")},
	}

	cs, ids, err := Load(rows)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	key := graph.FileKey{ProjectID: 1, FilePath: "gone.go"}
	change := cs.Changes[key]
	assert.Equal(t, graph.ChangeDeleted, change.Kind)
	assert.Equal(t, "body", change.OldContent)
}
