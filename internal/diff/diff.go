// Package diff computes the line-level Diff record the Connection
// Reconciler needs: an injective line_map, the sets of added/removed
// lines, and the replaced-range list the overlap classifier matches
// connections against. It is built on top of sergi/go-diff's
// diffmatchpatch, the same line-hashing + Myers-diff approach the rest
// of this codebase uses for line-oriented diffs, but classifies the
// result into equal/delete/insert/replace runs and builds a Diff record
// from them instead of display hunks.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"codenerd/internal/errs"
)

// Diff is the result of comparing a file's old and new content.
//
//   - LineMap maps a 1-indexed old line number to its 1-indexed new line
//     number, or to ok=false if the old line did not survive.
//   - Added is the set of 1-indexed new line numbers introduced by a
//     pure insertion (insert opcodes only — new-side lines of a replace
//     are NOT added here; they are consumed by the overlap classifier
//     via ReplacedRanges, per §4.3).
//   - Removed is the set of 1-indexed old line numbers that did not
//     survive (delete and replace opcodes).
//   - ReplacedRanges is the list of (oldLo, oldHi, newLo, newHi) 1-indexed
//     inclusive ranges emitted by replace opcodes, in ascending oldLo order.
type Diff struct {
	LineMap        map[int]int
	Added          map[int]bool
	Removed        map[int]bool
	ReplacedRanges []ReplacedRange
}

// ReplacedRange is a paired old/new 1-indexed inclusive line interval
// substituted by the diff.
type ReplacedRange struct {
	OldLo, OldHi int
	NewLo, NewHi int
}

// MapLine looks up old line number n in the Diff's line map.
func (d *Diff) MapLine(n int) (int, bool) {
	v, ok := d.LineMap[n]
	return v, ok
}

var engine = diffmatchpatch.New()

// splitLines splits content into 1-indexed lines. A trailing newline
// does not create an empty trailing line, per §4.3.
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

// opTag names an op's kind. A replace has no tag of its own: it is an
// opDelete whose new-side range is non-empty (see mergeReplaces).
type opTag int

const (
	opEqual opTag = iota
	opDelete
	opInsert
)

type op struct {
	tag              opTag
	oldLo, oldHi     int // 0-indexed half-open [oldLo, oldHi)
	newLo, newHi     int // 0-indexed half-open [newLo, newHi)
}

// Compute diffs oldContent against newContent and returns the Diff
// record described above. fileID is used only to annotate a returned
// DiffInvariantViolation.
func Compute(fileID int64, oldContent, newContent string) (*Diff, error) {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	a, b, lineArray := engine.DiffLinesToChars(oldContent, newContent)
	rawDiffs := engine.DiffMain(a, b, false)
	rawDiffs = engine.DiffCharsToLines(rawDiffs, lineArray)

	ops := opsFromDiffs(rawDiffs, oldLines, newLines)
	ops = mergeReplaces(ops)

	d := &Diff{
		LineMap:        make(map[int]int),
		Added:          make(map[int]bool),
		Removed:        make(map[int]bool),
		ReplacedRanges: nil,
	}

	for _, o := range ops {
		switch o.tag {
		case opEqual:
			n := o.oldHi - o.oldLo
			for k := 0; k < n; k++ {
				d.LineMap[o.oldLo+k+1] = o.newLo + k + 1
			}
		case opDelete:
			if o.newHi > o.newLo {
				// paired with an insert run: this is a replace.
				d.ReplacedRanges = append(d.ReplacedRanges, ReplacedRange{
					OldLo: o.oldLo + 1, OldHi: o.oldHi,
					NewLo: o.newLo + 1, NewHi: o.newHi,
				})
				for k := o.oldLo; k < o.oldHi; k++ {
					d.Removed[k+1] = true
				}
				continue
			}
			for k := o.oldLo; k < o.oldHi; k++ {
				d.Removed[k+1] = true
			}
		case opInsert:
			if o.oldHi > o.oldLo {
				// already folded into the paired delete above as a replace.
				continue
			}
			for k := o.newLo; k < o.newHi; k++ {
				d.Added[k+1] = true
			}
		}
	}

	if err := validate(fileID, d, len(oldLines)); err != nil {
		return nil, err
	}
	return d, nil
}

// opsFromDiffs converts the merged line-granularity diffmatchpatch
// output into a sequence of equal/delete/insert ops with old/new 0-indexed
// cursors, splitting diff.Text on "\n" the way the rest of the codebase's
// diff engine does.
func opsFromDiffs(diffs []diffmatchpatch.Diff, oldLines, newLines []string) []op {
	var ops []op
	oldCursor, newCursor := 0, 0

	for _, dd := range diffs {
		lines := strings.Split(dd.Text, "\n")
		if len(lines) > 1 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		n := len(lines)
		if n == 0 {
			continue
		}

		switch dd.Type {
		case diffmatchpatch.DiffEqual:
			ops = append(ops, op{tag: opEqual, oldLo: oldCursor, oldHi: oldCursor + n, newLo: newCursor, newHi: newCursor + n})
			oldCursor += n
			newCursor += n
		case diffmatchpatch.DiffDelete:
			ops = append(ops, op{tag: opDelete, oldLo: oldCursor, oldHi: oldCursor + n, newLo: newCursor, newHi: newCursor})
			oldCursor += n
		case diffmatchpatch.DiffInsert:
			ops = append(ops, op{tag: opInsert, oldLo: oldCursor, oldHi: oldCursor, newLo: newCursor, newHi: newCursor + n})
			newCursor += n
		}
	}
	return ops
}

// mergeReplaces folds an adjacent (delete, insert) or (insert, delete)
// pair into a single delete op carrying both sides' ranges, which
// Compute recognizes as a replace. diffmatchpatch emits deletes and
// inserts for a substituted block as adjacent ops, in either order.
func mergeReplaces(ops []op) []op {
	merged := make([]op, 0, len(ops))
	i := 0
	for i < len(ops) {
		cur := ops[i]
		if i+1 < len(ops) {
			next := ops[i+1]
			if cur.tag == opDelete && next.tag == opInsert {
				merged = append(merged, op{tag: opDelete, oldLo: cur.oldLo, oldHi: cur.oldHi, newLo: next.newLo, newHi: next.newHi})
				i += 2
				continue
			}
			if cur.tag == opInsert && next.tag == opDelete {
				merged = append(merged, op{tag: opDelete, oldLo: next.oldLo, oldHi: next.oldHi, newLo: cur.newLo, newHi: cur.newHi})
				i += 2
				continue
			}
		}
		merged = append(merged, cur)
		i++
	}
	return merged
}

// validate enforces I4 (line_map injective on its non-⊥ image) and I5
// (removed lines map to ⊥; added lines are neither in the line_map image
// nor covered by a replaced range).
func validate(fileID int64, d *Diff, oldLineCount int) error {
	seen := make(map[int]int, len(d.LineMap))
	for old, new := range d.LineMap {
		if prevOld, ok := seen[new]; ok {
			return &errs.DiffInvariantViolation{
				FileID: fileID,
				Reason: fmt.Sprintf("line_map not injective: old lines %d and %d both map to new line %d", prevOld, old, new),
			}
		}
		seen[new] = old
		if d.Removed[old] {
			return &errs.DiffInvariantViolation{
				FileID: fileID,
				Reason: fmt.Sprintf("old line %d is both mapped and removed", old),
			}
		}
	}
	for old := range d.Removed {
		if _, ok := d.LineMap[old]; ok {
			return &errs.DiffInvariantViolation{FileID: fileID, Reason: fmt.Sprintf("removed line %d has a line_map entry", old)}
		}
	}
	for new := range d.Added {
		if _, ok := seen[new]; ok {
			return &errs.DiffInvariantViolation{FileID: fileID, Reason: fmt.Sprintf("new line %d is both added and in line_map image", new)}
		}
	}
	for _, r := range d.ReplacedRanges {
		for new := r.NewLo; new <= r.NewHi; new++ {
			if d.Added[new] {
				return &errs.DiffInvariantViolation{FileID: fileID, Reason: fmt.Sprintf("new line %d is both added and covered by a replaced range", new)}
			}
			if _, ok := seen[new]; ok {
				return &errs.DiffInvariantViolation{FileID: fileID, Reason: fmt.Sprintf("new line %d is both in line_map image and covered by a replaced range", new)}
			}
		}
	}
	return nil
}
