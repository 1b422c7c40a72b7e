// Package batch implements the Batch Planner (C5): a deterministic,
// synchronous packer that groups SnippetJobs into Splitter batches
// respecting a per-batch line budget. Packing itself is not a
// suspension point (§5) — no goroutines, no I/O.
package batch

import "codenerd/internal/graph"

// Job pairs a SnippetJob with the project it belongs to and whether it
// originated from a modified file (vs. an added file), needed for the
// modified-before-added ordering rule (§4.5).
type Job struct {
	ProjectID int64
	Snippet   graph.SnippetJob
	FromAdded bool
}

// Batch is an ordered group of SnippetJobs whose combined line count
// respects the budget, except when a single job exceeds it alone.
type Batch struct {
	ProjectID int64
	Jobs      []graph.SnippetJob
}

func (b Batch) lineCount() int {
	n := 0
	for _, j := range b.Jobs {
		n += j.LineCount()
	}
	return n
}

// Plan packs jobs into per-project batches, each no larger than budget
// lines except for a single oversized job, which gets its own batch.
// Within a project, modified-file jobs are ordered before added-file
// jobs; across projects, batches are independent and project order in
// the input is preserved.
func Plan(jobs []Job, budget int) []Batch {
	byProject := make(map[int64][]Job)
	var projectOrder []int64
	for _, j := range jobs {
		if _, seen := byProject[j.ProjectID]; !seen {
			projectOrder = append(projectOrder, j.ProjectID)
		}
		byProject[j.ProjectID] = append(byProject[j.ProjectID], j)
	}

	var batches []Batch
	for _, projectID := range projectOrder {
		ordered := orderModifiedBeforeAdded(byProject[projectID])
		batches = append(batches, packProject(projectID, ordered, budget)...)
	}
	return batches
}

// orderModifiedBeforeAdded stably partitions a project's jobs so every
// modified-file job precedes every added-file job, preserving relative
// order within each group.
func orderModifiedBeforeAdded(jobs []Job) []Job {
	ordered := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if !j.FromAdded {
			ordered = append(ordered, j)
		}
	}
	for _, j := range jobs {
		if j.FromAdded {
			ordered = append(ordered, j)
		}
	}
	return ordered
}

// packProject greedily fills batches in input order: a job joins the
// current batch if it fits under budget, otherwise starts a new batch.
// A job whose own line count exceeds budget always gets its own batch.
func packProject(projectID int64, jobs []Job, budget int) []Batch {
	var batches []Batch
	var current Batch
	current.ProjectID = projectID

	flush := func() {
		if len(current.Jobs) > 0 {
			batches = append(batches, current)
			current = Batch{ProjectID: projectID}
		}
	}

	for _, j := range jobs {
		n := j.Snippet.LineCount()
		if n > budget {
			flush()
			batches = append(batches, Batch{ProjectID: projectID, Jobs: []graph.SnippetJob{j.Snippet}})
			continue
		}
		if current.lineCount()+n > budget {
			flush()
		}
		current.Jobs = append(current.Jobs, j.Snippet)
	}
	flush()

	return batches
}
