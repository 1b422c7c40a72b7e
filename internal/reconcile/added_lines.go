package reconcile

import (
	"sort"

	"codenerd/internal/diff"
	"codenerd/internal/graph"
)

// intervalSet tracks the new-side line ranges already claimed by a
// per-connection SnippetJob, so the added-lines pass below does not
// re-emit lines another job already covers.
type intervalSet struct {
	ranges []span
}

func newIntervalSet() *intervalSet { return &intervalSet{} }

func (s *intervalSet) add(lo, hi int) {
	if lo > hi {
		return
	}
	s.ranges = append(s.ranges, span{lo: lo, hi: hi})
}

func (s *intervalSet) contains(line int) bool {
	for _, r := range s.ranges {
		if line >= r.lo && line <= r.hi {
			return true
		}
	}
	return false
}

// unclaimedAddedLineJobs emits one SnippetJob per maximal run of added
// lines that no connection's reconciliation already claimed, each
// extended by adjacency (§4.4: "New added lines outside any existing
// connection ... each spanning a maximal run of consecutive added
// lines, extended by ADJACENCY to include nearby added lines.").
func unclaimedAddedLineJobs(in FileInput, d *diff.Diff, newLines []string, claimed *intervalSet, adjacency int) Result {
	var lines []int
	for line := range d.Added {
		if !claimed.contains(line) {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return Result{}
	}
	sort.Ints(lines)

	var result Result
	i := 0
	for i < len(lines) {
		lo, hi := lines[i], lines[i]
		j := i + 1
		for j < len(lines) && lines[j] == hi+1 {
			hi = lines[j]
			j++
		}
		lo, hi = extendForAdded(d, lo, hi, adjacency)
		result.SnippetJobs = append(result.SnippetJobs, graph.SnippetJob{
			FileID: in.FileID, Project: in.ProjectID, FilePath: in.FilePath, Language: in.Language,
			StartLine: lo, EndLine: hi, Code: joinLines(newLines, lo, hi),
		})
		i = j
	}
	return result
}
