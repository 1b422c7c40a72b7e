package reconcile

import (
	"testing"

	"codenerd/internal/graph"
)

func TestReconcileFile_CleanShift_S1(t *testing.T) {
	old := "a\nb\nCONN\nd\n"
	new_ := "a\na2\nb\nCONN\nd\n"

	conns := []graph.Connection{
		{ID: 1, FileID: 1, Direction: graph.DirectionOutgoing, StartLine: 3, EndLine: 3, CodeSnippet: "CONN", Description: "X"},
	}

	in := FileInput{FileID: 1, ProjectID: 1, FilePath: "f.go", OldContent: old, NewContent: new_, Connections: conns}
	result, err := ReconcileFile(in, 3)
	if err != nil {
		t.Fatalf("ReconcileFile: %v", err)
	}
	if len(result.Delete) != 0 {
		t.Fatalf("expected no deletes, got %v", result.Delete)
	}
	if len(result.SnippetJobs) != 0 {
		t.Fatalf("expected no splitter calls, got %v", result.SnippetJobs)
	}
	if len(result.SurviveShift) != 1 {
		t.Fatalf("expected one survive-shift update, got %d", len(result.SurviveShift))
	}
	u := result.SurviveShift[0]
	if u.StartLine != 4 || u.EndLine != 4 {
		t.Errorf("expected shifted range 4..4, got %d..%d", u.StartLine, u.EndLine)
	}
	if u.CodeSnippet != "CONN" {
		t.Errorf("expected unchanged snippet, got %q", u.CodeSnippet)
	}
}

func TestReconcileFile_ContainedReplacement_S2(t *testing.T) {
	oldLines := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		oldLines = append(oldLines, "l"+itoa(i))
	}
	old := joinAll(oldLines)

	newLines := append([]string(nil), oldLines[:14]...)
	newLines = append(newLines, "r1", "r2", "r3")
	newLines = append(newLines, oldLines[15:]...)
	new_ := joinAll(newLines)

	conns := []graph.Connection{
		{ID: 1, FileID: 1, Direction: graph.DirectionOutgoing, StartLine: 10, EndLine: 20, CodeSnippet: joinAll(oldLines[9:20]), Description: "validates user"},
	}

	in := FileInput{FileID: 1, ProjectID: 1, FilePath: "f.go", OldContent: old, NewContent: new_, Connections: conns}
	result, err := ReconcileFile(in, 3)
	if err != nil {
		t.Fatalf("ReconcileFile: %v", err)
	}
	if len(result.Delete) != 1 || result.Delete[0] != 1 {
		t.Fatalf("expected connection 1 deleted, got %v", result.Delete)
	}
	if len(result.SnippetJobs) != 1 {
		t.Fatalf("expected exactly one SnippetJob, got %d", len(result.SnippetJobs))
	}
	job := result.SnippetJobs[0]
	if job.StartLine != 10 || job.EndLine != 22 {
		t.Errorf("expected new range [10,22], got [%d,%d]", job.StartLine, job.EndLine)
	}
	if job.PriorDescription != "validates user" {
		t.Errorf("expected prior_description carried through, got %q", job.PriorDescription)
	}
}

func TestReconcileFile_DeletionWithoutSurvivor(t *testing.T) {
	old := "CONN\n"
	new_ := ""

	conns := []graph.Connection{
		{ID: 1, FileID: 1, Direction: graph.DirectionOutgoing, StartLine: 1, EndLine: 1, CodeSnippet: "CONN"},
	}
	in := FileInput{FileID: 1, ProjectID: 1, FilePath: "f.go", OldContent: old, NewContent: new_, Connections: conns}
	result, err := ReconcileFile(in, 3)
	if err != nil {
		t.Fatalf("ReconcileFile: %v", err)
	}
	if len(result.Delete) != 1 {
		t.Fatalf("expected connection deleted, got %v", result.Delete)
	}
	if len(result.SnippetJobs) != 0 {
		t.Fatalf("expected no SnippetJob when no surviving line exists, got %v", result.SnippetJobs)
	}
}

func TestReconcileFile_AddedLinesOutsideConnectionsGetOwnJob(t *testing.T) {
	old := "a\nCONN\nb\n"
	new_ := "a\nCONN\nb\nnew1\nnew2\n"

	conns := []graph.Connection{
		{ID: 1, FileID: 1, Direction: graph.DirectionOutgoing, StartLine: 2, EndLine: 2, CodeSnippet: "CONN"},
	}
	in := FileInput{FileID: 1, ProjectID: 1, FilePath: "f.go", OldContent: old, NewContent: new_, Connections: conns}
	result, err := ReconcileFile(in, 3)
	if err != nil {
		t.Fatalf("ReconcileFile: %v", err)
	}
	if len(result.Delete) != 0 {
		t.Fatalf("expected connection to survive, got deletes %v", result.Delete)
	}
	if len(result.SnippetJobs) != 1 {
		t.Fatalf("expected one SnippetJob for the new trailing lines, got %d", len(result.SnippetJobs))
	}
	job := result.SnippetJobs[0]
	if job.StartLine != 4 || job.EndLine != 5 {
		t.Errorf("expected new job over lines 4..5, got %d..%d", job.StartLine, job.EndLine)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func joinAll(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out + "\n"
}
