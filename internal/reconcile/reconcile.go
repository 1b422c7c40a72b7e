// Package reconcile implements the Connection Reconciler (C4): given a
// file's Diff and the connections anchored in it, classify each
// connection into one of four overlap cases and produce the three
// output buckets the Run Coordinator later applies — survive-shift
// updates, deletes, and SnippetJobs for the Splitter.
package reconcile

import (
	"sort"
	"strings"

	"codenerd/internal/diff"
	"codenerd/internal/errs"
	"codenerd/internal/graph"
)

// FileInput bundles everything ReconcileFile needs for one modified file.
type FileInput struct {
	FileID      int64
	ProjectID   int64
	FilePath    string
	Language    string
	OldContent  string
	NewContent  string
	Connections []graph.Connection
}

// ShiftUpdate is a survive-shift connection whose line range (and
// possibly refreshed code_snippet) must be written back.
type ShiftUpdate struct {
	ConnectionID int64
	StartLine    int
	EndLine      int
	CodeSnippet  string
}

// Result is one file's owned accumulator: nothing here is written
// concurrently by another worker (§5).
type Result struct {
	SurviveShift []ShiftUpdate
	Delete       []int64
	SnippetJobs  []graph.SnippetJob
}

func (r *Result) merge(other Result) {
	r.SurviveShift = append(r.SurviveShift, other.SurviveShift...)
	r.Delete = append(r.Delete, other.Delete...)
	r.SnippetJobs = append(r.SnippetJobs, other.SnippetJobs...)
}

// ReconcileFile applies in's Diff to every connection anchored in the
// file, in ascending connection-ID order (§5), and returns the combined
// Result. It is pure with respect to the store: callers persist the
// returned buckets themselves, inside the Coordinator's final commit.
func ReconcileFile(in FileInput, adjacency int) (Result, error) {
	d, err := diff.Compute(in.FileID, in.OldContent, in.NewContent)
	if err != nil {
		return Result{}, err
	}

	newLines := splitLines(in.NewContent)
	oldLineCount := len(splitLines(in.OldContent))

	conns := append([]graph.Connection(nil), in.Connections...)
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })

	var result Result
	claimed := newIntervalSet()

	for _, c := range conns {
		out, span, err := classify(in, d, c, newLines, oldLineCount, adjacency)
		if err != nil {
			return Result{}, err
		}
		for _, u := range out.SurviveShift {
			if err := validateShiftSnippet(in.FileID, u, newLines); err != nil {
				return Result{}, err
			}
		}
		result.merge(out)
		if span != nil {
			claimed.add(span.lo, span.hi)
		}
	}

	result.merge(unclaimedAddedLineJobs(in, d, newLines, claimed, adjacency))

	return result, nil
}

// span is the new-side line range a connection's fate consumed, used to
// keep the "added lines outside any existing connection" pass from
// re-emitting lines already folded into a per-connection SnippetJob.
type span struct{ lo, hi int }

func classify(in FileInput, d *diff.Diff, c graph.Connection, newLines []string, oldLineCount, adjacency int) (Result, *span, error) {
	matches := overlappingRanges(d, c, oldLineCount)

	if len(matches) == 0 {
		return classifyNoOverlap(in, d, c, newLines, oldLineCount, adjacency)
	}

	unionLo, unionHi := matches[0].contributionLo, matches[0].contributionHi
	onlyCase3 := len(matches) == 1 && matches[0].caseNum == 3
	for _, m := range matches[1:] {
		if m.contributionLo < unionLo {
			unionLo = m.contributionLo
		}
		if m.contributionHi > unionHi {
			unionHi = m.contributionHi
		}
	}

	if !onlyCase3 {
		unionLo, unionHi = extendForAdded(d, unionLo, unionHi, adjacency)
	}

	job := graph.SnippetJob{
		FileID:    in.FileID,
		Project:   in.ProjectID,
		FilePath:  in.FilePath,
		Language:  in.Language,
		StartLine: unionLo,
		EndLine:   unionHi,
		Code:      joinLines(newLines, unionLo, unionHi),
	}
	if onlyCase3 {
		job.PriorDescription = c.Description
	}

	return Result{Delete: []int64{c.ID}, SnippetJobs: []graph.SnippetJob{job}}, &span{lo: unionLo, hi: unionHi}, nil
}

// classifyNoOverlap handles the connections with no overlapping replaced
// range: either clean Case 4 shift (possibly promoted to a Case-3-style
// re-analysis if the refreshed snippet differs byte-for-byte), or a
// Case-2-style fallback when an endpoint no longer has a surviving image
// or an added line intrudes on the mapped span.
func classifyNoOverlap(in FileInput, d *diff.Diff, c graph.Connection, newLines []string, oldLineCount, adjacency int) (Result, *span, error) {
	mappedLo, okLo := d.MapLine(c.StartLine)
	mappedHi, okHi := d.MapLine(c.EndLine)

	if okLo && okHi && !addedLineWithin(d, mappedLo, mappedHi) {
		refreshed := joinLines(newLines, mappedLo, mappedHi)
		if refreshed == c.CodeSnippet {
			update := ShiftUpdate{ConnectionID: c.ID, StartLine: mappedLo, EndLine: mappedHi, CodeSnippet: refreshed}
			return Result{SurviveShift: []ShiftUpdate{update}}, &span{lo: mappedLo, hi: mappedHi}, nil
		}
		// Byte-exact comparison failed: promote to a Case-3-style
		// re-analysis, carrying the old description as context.
		job := graph.SnippetJob{
			FileID: in.FileID, Project: in.ProjectID, FilePath: in.FilePath, Language: in.Language,
			StartLine: mappedLo, EndLine: mappedHi, Code: refreshed, PriorDescription: c.Description,
		}
		return Result{Delete: []int64{c.ID}, SnippetJobs: []graph.SnippetJob{job}}, &span{lo: mappedLo, hi: mappedHi}, nil
	}

	lo, loOK := mappedLo, okLo
	if !loOK {
		lo, loOK = nearestSurvivingImage(d, c.StartLine, oldLineCount)
	}
	hi, hiOK := mappedHi, okHi
	if !hiOK {
		hi, hiOK = nearestSurvivingImage(d, c.EndLine, oldLineCount)
	}
	if !loOK && !hiOK {
		// No surviving line anywhere in the file: delete with no
		// re-analysis job, per the boundary case in §8.
		return Result{Delete: []int64{c.ID}}, nil, nil
	}
	if !loOK {
		lo = hi
	}
	if !hiOK {
		hi = lo
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	lo, hi = extendForAdded(d, lo, hi, adjacency)
	job := graph.SnippetJob{
		FileID: in.FileID, Project: in.ProjectID, FilePath: in.FilePath, Language: in.Language,
		StartLine: lo, EndLine: hi, Code: joinLines(newLines, lo, hi),
	}
	return Result{Delete: []int64{c.ID}, SnippetJobs: []graph.SnippetJob{job}}, &span{lo: lo, hi: hi}, nil
}

type rangeMatch struct {
	caseNum                      int
	contributionLo, contributionHi int
}

// overlappingRanges returns every replaced range that overlaps
// connection c's old-line span, tagged with which of Case 1/2/3 it
// represents and the new-side range it contributes, ordered by the
// start of that contributed range.
func overlappingRanges(d *diff.Diff, c graph.Connection, oldLineCount int) []rangeMatch {
	var out []rangeMatch
	cLo, cHi := c.StartLine, c.EndLine

	for _, r := range d.ReplacedRanges {
		if r.OldHi < cLo || r.OldLo > cHi {
			continue
		}
		switch {
		case r.OldLo <= cLo && r.OldHi >= cHi:
			out = append(out, rangeMatch{caseNum: 1, contributionLo: r.NewLo, contributionHi: r.NewHi})
		case cLo < r.OldLo && r.OldHi < cHi:
			lo, _ := nearestSurvivingImage(d, cLo, oldLineCount)
			hi, _ := nearestSurvivingImage(d, cHi, oldLineCount)
			if v, ok := d.MapLine(cLo); ok {
				lo = v
			}
			if v, ok := d.MapLine(cHi); ok {
				hi = v
			}
			out = append(out, rangeMatch{caseNum: 3, contributionLo: lo, contributionHi: hi})
		default:
			lo := nearestMapOrSelf(d, cLo, r.NewLo, oldLineCount, takeMin)
			hi := nearestMapOrSelf(d, cHi, r.NewHi, oldLineCount, takeMax)
			out = append(out, rangeMatch{caseNum: 2, contributionLo: lo, contributionHi: hi})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].contributionLo < out[j].contributionLo })
	return out
}

type combineFn func(a, b int) int

func takeMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func takeMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// nearestMapOrSelf implements the Case-2 formula new_lo = min(n_lo,
// map(c_lo)) / new_hi = max(n_hi, map(c_hi)), falling back to the
// nearest surviving image when the endpoint itself did not survive.
func nearestMapOrSelf(d *diff.Diff, oldLine, rangeBound, oldLineCount int, combine combineFn) int {
	if v, ok := d.MapLine(oldLine); ok {
		return combine(rangeBound, v)
	}
	if v, ok := nearestSurvivingImage(d, oldLine, oldLineCount); ok {
		return combine(rangeBound, v)
	}
	return rangeBound
}

// nearestSurvivingImage searches outward from oldLine for the nearest
// old line with a surviving image under line_map ("search outward on
// ⊥", §4.4 Case 2).
func nearestSurvivingImage(d *diff.Diff, oldLine, maxOld int) (int, bool) {
	if v, ok := d.MapLine(oldLine); ok {
		return v, true
	}
	for radius := 1; radius <= maxOld; radius++ {
		if oldLine-radius >= 1 {
			if v, ok := d.MapLine(oldLine - radius); ok {
				return v, true
			}
		}
		if oldLine+radius <= maxOld {
			if v, ok := d.MapLine(oldLine + radius); ok {
				return v, true
			}
		}
		if oldLine-radius < 1 && oldLine+radius > maxOld {
			break
		}
	}
	return 0, false
}

// addedLineWithin reports whether any added new-side line falls inside
// [lo, hi], the condition that excludes a connection from Case 4 even
// though no replaced range overlaps it.
func addedLineWithin(d *diff.Diff, lo, hi int) bool {
	for line := range d.Added {
		if line >= lo && line <= hi {
			return true
		}
	}
	return false
}

// extendForAdded grows [lo, hi] to include any contiguous run of added
// lines within adjacency lines of either original boundary, per Cases 1/2.
func extendForAdded(d *diff.Diff, lo, hi, adjacency int) (int, int) {
	originalLo, originalHi := lo, hi
	for lo > 1 && d.Added[lo-1] && originalLo-(lo-1) <= adjacency {
		lo--
	}
	for d.Added[hi+1] && (hi+1)-originalHi <= adjacency {
		hi++
	}
	return lo, hi
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string, lo, hi int) string {
	if lo < 1 {
		lo = 1
	}
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo > hi {
		return ""
	}
	return strings.Join(lines[lo-1:hi], "\n")
}

// AddedFileJob builds the single SnippetJob covering an entire newly
// added file (§4.4: "Added files contribute one SnippetJob covering the
// entire new content.").
func AddedFileJob(fileID, projectID int64, filePath, language, content string) graph.SnippetJob {
	lines := splitLines(content)
	return graph.SnippetJob{
		FileID: fileID, Project: projectID, FilePath: filePath, Language: language,
		StartLine: 1, EndLine: len(lines), Code: joinLines(lines, 1, len(lines)),
	}
}

// validateShiftSnippet is a defensive re-check that a survive-shift
// connection's refreshed code_snippet is in fact a contiguous slice of
// the new content, enforcing the ReconcileInvariantViolation named in §7.
func validateShiftSnippet(fileID int64, u ShiftUpdate, newLines []string) error {
	expected := joinLines(newLines, u.StartLine, u.EndLine)
	if expected != u.CodeSnippet {
		return &errs.ReconcileInvariantViolation{
			ConnectionID: u.ConnectionID,
			FileID:       fileID,
			Reason:       "refreshed code_snippet is not the contiguous new-content slice at its line range",
		}
	}
	return nil
}
