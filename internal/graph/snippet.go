package graph

// SnippetJob is a unit of work for the Splitter: a contiguous range of
// code in one file that needs to be (re-)analyzed into Connection
// records.
type SnippetJob struct {
	FileID   int64
	Project  int64
	FilePath string
	Language string

	StartLine int
	EndLine   int
	Code      string

	// PriorDescription is set only when this job originates from a
	// contained-replacement (Case 3) reconciliation, giving the
	// Splitter context about what the surrounding connection used to
	// describe.
	PriorDescription string
}

// LineCount returns the number of lines this job spans, used by the
// Batch Planner to enforce the per-batch line budget.
func (j SnippetJob) LineCount() int {
	if j.EndLine < j.StartLine {
		return 0
	}
	return j.EndLine - j.StartLine + 1
}

// DerivedConnection is a Connection produced by the Splitter for a
// given SnippetJob, prior to being persisted (it has no ID yet).
type DerivedConnection struct {
	SourceIndex    int
	Direction      Direction
	StartLine      int
	EndLine        int
	CodeSnippet    string
	Description    string
	TechnologyName string
}
