package coordinator

import (
	"fmt"

	"codenerd/internal/batch"
	"codenerd/internal/graph"
	"codenerd/internal/reconcile"
	"codenerd/internal/store"
)

// changePlan is the Diffing/Reconciling stage's working state: every
// touched file resolved to a reconcile input, an added-file batch job,
// or a pending deletion, plus the file-metadata writes the Committing
// stage must apply once everything downstream has succeeded.
//
// Added files have no file_id yet, since file rows are only created
// during the final commit (§4.8: nothing is written to the store before
// Committing). They are tracked here under a negative placeholder id,
// resolved to a real id inside commit() immediately after the file row
// is inserted.
type changePlan struct {
	reconcileInputs   []reconcile.FileInput
	addedJobs         []batch.Job
	pendingFiles      map[int64]graph.File // placeholder (negative) id -> file to create
	modifiedFiles     map[int64]graph.File // real file id -> refreshed metadata
	deletedFileIDs    []int64
	touchedProjectIDs []int64
	fileIDToProject   map[int64]int64
}

func projectOfFile(p *changePlan, fileID int64) int64 {
	return p.fileIDToProject[fileID]
}

// planChanges resolves every coalesced Change in changeSet against the
// store's current file table, producing the Reconciler's inputs for
// modified files and a ready-to-batch SnippetJob for each added file.
func planChanges(st *store.Store, changeSet *graph.ChangeSet) (*changePlan, error) {
	p := &changePlan{
		pendingFiles:    make(map[int64]graph.File),
		modifiedFiles:   make(map[int64]graph.File),
		fileIDToProject: make(map[int64]int64),
	}
	touched := make(map[int64]bool)
	nextPlaceholder := int64(-1)

	for key, change := range changeSet.Changes {
		touched[key.ProjectID] = true
		language := detectLanguage(key.FilePath)

		switch change.Kind {
		case graph.ChangeAdded:
			placeholder := nextPlaceholder
			nextPlaceholder--
			p.pendingFiles[placeholder] = graph.File{
				ProjectID: key.ProjectID, Path: key.FilePath, Language: language,
				ContentHash: contentHash(change.NewContent),
			}
			p.fileIDToProject[placeholder] = key.ProjectID
			job := reconcile.AddedFileJob(placeholder, key.ProjectID, key.FilePath, language, change.NewContent)
			p.addedJobs = append(p.addedJobs, batch.Job{ProjectID: key.ProjectID, Snippet: job, FromAdded: true})

		case graph.ChangeModified:
			f, ok, err := st.FileByPath(key.ProjectID, key.FilePath)
			if err != nil {
				return nil, fmt.Errorf("plan: lookup file %s: %w", key.FilePath, err)
			}
			if !ok {
				// A "modified" row for a file the store has never seen:
				// nothing to reconcile against, so treat it the way an
				// added file is treated.
				placeholder := nextPlaceholder
				nextPlaceholder--
				p.pendingFiles[placeholder] = graph.File{
					ProjectID: key.ProjectID, Path: key.FilePath, Language: language,
					ContentHash: contentHash(change.NewContent),
				}
				p.fileIDToProject[placeholder] = key.ProjectID
				job := reconcile.AddedFileJob(placeholder, key.ProjectID, key.FilePath, language, change.NewContent)
				p.addedJobs = append(p.addedJobs, batch.Job{ProjectID: key.ProjectID, Snippet: job, FromAdded: true})
				continue
			}

			p.modifiedFiles[f.ID] = graph.File{
				ID: f.ID, ProjectID: key.ProjectID, Path: key.FilePath, Language: language,
				ContentHash: contentHash(change.NewContent),
			}
			p.fileIDToProject[f.ID] = key.ProjectID

			existing, err := st.ConnectionsByFile(f.ID)
			if err != nil {
				return nil, fmt.Errorf("plan: load connections for file %d: %w", f.ID, err)
			}
			p.reconcileInputs = append(p.reconcileInputs, reconcile.FileInput{
				FileID: f.ID, ProjectID: key.ProjectID, FilePath: key.FilePath, Language: language,
				OldContent: change.OldContent, NewContent: change.NewContent, Connections: existing,
			})

		case graph.ChangeDeleted:
			f, ok, err := st.FileByPath(key.ProjectID, key.FilePath)
			if err != nil {
				return nil, fmt.Errorf("plan: lookup file %s: %w", key.FilePath, err)
			}
			if ok {
				p.deletedFileIDs = append(p.deletedFileIDs, f.ID)
			}
		}
	}

	for pid := range touched {
		p.touchedProjectIDs = append(p.touchedProjectIDs, pid)
	}
	return p, nil
}
