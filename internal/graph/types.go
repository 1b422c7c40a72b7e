// Package graph defines the persistent entities of the connection graph:
// Project, File, Connection, ConnectionMapping, and the CheckpointRow /
// ChangeSet types used to reconcile them incrementally. These are plain
// structs with no mutable status flags — the three-way survive/delete/
// re-analyze decision that the Reconciler makes lives in the reconcile
// package's output buckets, not on Connection itself.
package graph

// Direction is which way a Connection's integration point points.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Project is an indexed repository. Created once; never mutated by the
// core engine.
type Project struct {
	ID          int64
	Name        string
	RootPath    string
	Description string
}

// File is a single source file inside a Project, unique by
// (ProjectID, Path).
type File struct {
	ID          int64
	ProjectID   int64
	Path        string
	Language    string
	ContentHash string
}

// Connection is a single inbound or outbound external integration point
// attributed to a line range in one file. ProjectID is denormalized
// from the owning file's project so the Matcher can exclude same-project
// pairs without a join on every comparison (§4.7: a Mapping always links
// connections in two different projects).
//
// Invariants (the store's schema checks only 1 <= StartLine <= EndLine;
// the rest is kept by the reconcile package's snippet re-check and the
// Splitter Driver's code_snippet validation):
//   - 1 <= StartLine <= EndLine, and [StartLine, EndLine] is valid for
//     the current content of FileID (I1).
//   - CodeSnippet equals the exact lines StartLine..EndLine of the
//     current file content (I2).
//   - Description and TechnologyName are produced only by the Splitter,
//     never fabricated by the Reconciler (I3).
type Connection struct {
	ID             int64
	FileID         int64
	ProjectID      int64
	Direction      Direction
	StartLine      int
	EndLine        int
	CodeSnippet    string
	Description    string
	TechnologyName string
}

// ConnectionMapping links one outgoing Connection to one incoming
// Connection, usually in a different project, with a confidence score.
// Weakly owned by both endpoints: deleted automatically when either
// endpoint Connection is deleted.
type ConnectionMapping struct {
	ID                   int64
	OutgoingConnectionID int64
	IncomingConnectionID int64
	Confidence           float64
	TechnologyName       string
	Rationale            string
}

// ChangeKind is the kind of file-level edit recorded in a CheckpointRow.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// CheckpointRow is a single pending file change written by an external
// watcher/editor and consumed (read then deleted) by the Checkpoint
// Reader.
type CheckpointRow struct {
	ID          int64
	ProjectID   int64
	FilePath    string
	ChangeKind  ChangeKind
	OldContent  *string
	NewContent  *string
	CreatedAtNS int64
}

// FileKey identifies a file within the change set independent of its
// store-assigned File.ID (which may not exist yet for an added file).
type FileKey struct {
	ProjectID int64
	FilePath  string
}

// Change is the coalesced, tagged-variant representation of everything
// that happened to one file since the last run. Exactly one of the
// three shapes applies, selected by Kind — no dictionary-of-optional-
// fields, per the spec's redesign note on dynamic change representations.
type Change struct {
	Kind       ChangeKind
	OldContent string // set for Modified and Deleted
	NewContent string // set for Added and Modified
}

// ChangeSet is the in-memory result of coalescing the checkpoint queue:
// the latest logical change per (project, path).
type ChangeSet struct {
	Changes map[FileKey]Change
}

// NewChangeSet returns an empty ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{Changes: make(map[FileKey]Change)}
}
