// Package checkpoint implements the Checkpoint Reader (C2): it folds the
// raw, possibly-redundant rows of the checkpoint queue into one logical
// ChangeSet per file, applying the coalescing rule of §3.
package checkpoint

import (
	"codenerd/internal/errs"
	"codenerd/internal/graph"
)

// accumulator tracks the in-progress fold for a single file across
// however many checkpoint rows touched it in this run.
type accumulator struct {
	kind       graph.ChangeKind
	noop       bool
	oldContent string
	haveOld    bool
	newContent string
	haveNew    bool
}

// Load folds rows (assumed already ordered oldest-first, i.e. ascending
// id — the order they were appended to the queue) into a ChangeSet plus
// the full list of row ids to delete once the run commits. Every row is
// included in the delete set, including ones that coalesce to a no-op.
func Load(rows []graph.CheckpointRow) (*graph.ChangeSet, []int64, error) {
	changeSet := graph.NewChangeSet()
	accs := make(map[graph.FileKey]*accumulator)
	var rowIDs []int64

	for _, row := range rows {
		rowIDs = append(rowIDs, row.ID)

		if err := validateRow(row); err != nil {
			return nil, nil, err
		}

		key := graph.FileKey{ProjectID: row.ProjectID, FilePath: row.FilePath}
		acc, ok := accs[key]
		if !ok || acc.noop {
			acc = &accumulator{}
			accs[key] = acc
		}
		fold(acc, row)
	}

	for key, acc := range accs {
		if acc.noop {
			continue
		}
		change := graph.Change{Kind: acc.kind}
		if acc.haveOld {
			change.OldContent = acc.oldContent
		}
		if acc.haveNew {
			change.NewContent = acc.newContent
		}
		changeSet.Changes[key] = change
	}

	return changeSet, rowIDs, nil
}

// fold applies one more checkpoint row to an in-progress accumulator,
// implementing the coalescing rule from §3: the earliest old_content and
// the latest new_content survive; a deleted row followed by a later
// added/modified row becomes modified; an added row followed by a
// deleted row becomes a no-op.
func fold(acc *accumulator, row graph.CheckpointRow) {
	if row.OldContent != nil && !acc.haveOld {
		acc.oldContent = *row.OldContent
		acc.haveOld = true
	}
	if row.NewContent != nil {
		acc.newContent = *row.NewContent
		acc.haveNew = true
	}

	switch {
	case acc.kind == "":
		acc.kind = row.ChangeKind
	case acc.kind == graph.ChangeDeleted && (row.ChangeKind == graph.ChangeAdded || row.ChangeKind == graph.ChangeModified):
		acc.kind = graph.ChangeModified
	case acc.kind == graph.ChangeAdded && row.ChangeKind == graph.ChangeDeleted:
		acc.noop = true
	default:
		acc.kind = row.ChangeKind
	}
}

// validateRow rejects checkpoint rows whose content fields are
// inconsistent with their declared change_kind (§7 InputCorruption).
func validateRow(row graph.CheckpointRow) error {
	switch row.ChangeKind {
	case graph.ChangeAdded:
		if row.NewContent == nil {
			return &errs.InputCorruption{CheckpointRowID: row.ID, Reason: "added row missing new_content"}
		}
	case graph.ChangeModified:
		if row.OldContent == nil || row.NewContent == nil {
			return &errs.InputCorruption{CheckpointRowID: row.ID, Reason: "modified row missing old_content or new_content"}
		}
	case graph.ChangeDeleted:
		if row.OldContent == nil {
			return &errs.InputCorruption{CheckpointRowID: row.ID, Reason: "deleted row missing old_content"}
		}
	default:
		return &errs.InputCorruption{CheckpointRowID: row.ID, Reason: "unknown change_kind: " + string(row.ChangeKind)}
	}
	return nil
}
