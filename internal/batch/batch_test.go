package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/graph"
)

func jobLines(project int64, n int, fromAdded bool) Job {
	return Job{ProjectID: project, FromAdded: fromAdded, Snippet: graph.SnippetJob{StartLine: 1, EndLine: n}}
}

func TestPlan_RespectsBudget(t *testing.T) {
	jobs := []Job{jobLines(1, 3000, false), jobLines(1, 3000, false), jobLines(1, 3000, false)}
	batches := Plan(jobs, 5000)

	require.Len(t, batches, 3)
	assert.LessOrEqual(t, batches[0].lineCount(), 5000)
	assert.LessOrEqual(t, batches[1].lineCount(), 5000)

	total := 0
	for _, b := range batches {
		total += len(b.Jobs)
	}
	assert.Equal(t, 3, total)
}

func TestPlan_OversizedJobGetsOwnBatch(t *testing.T) {
	jobs := []Job{jobLines(1, 100, false), jobLines(1, 9000, false), jobLines(1, 100, false)}
	batches := Plan(jobs, 5000)

	require.Len(t, batches, 3)
	assert.Equal(t, 9000, batches[1].lineCount())
	assert.Len(t, batches[1].Jobs, 1)
}

func TestPlan_ModifiedBeforeAddedWithinProject(t *testing.T) {
	added := jobLines(1, 10, true)
	added.Snippet.FilePath = "new.go"
	modified := jobLines(1, 10, false)
	modified.Snippet.FilePath = "existing.go"

	batches := Plan([]Job{added, modified}, 5000)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Jobs, 2)
	assert.Equal(t, "existing.go", batches[0].Jobs[0].FilePath)
	assert.Equal(t, "new.go", batches[0].Jobs[1].FilePath)
}

func TestPlan_ProjectsDoNotShareBatches(t *testing.T) {
	jobs := []Job{jobLines(1, 100, false), jobLines(2, 100, false)}
	batches := Plan(jobs, 5000)

	require.Len(t, batches, 2)
	assert.NotEqual(t, batches[0].ProjectID, batches[1].ProjectID)
}
