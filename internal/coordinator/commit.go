package coordinator

import (
	"fmt"

	"codenerd/internal/batch"
	"codenerd/internal/errs"
	"codenerd/internal/graph"
	"codenerd/internal/match"
	"codenerd/internal/reconcile"
	"codenerd/internal/splitter"
	"codenerd/internal/store"
)

// commit applies every accumulated write inside a single store
// transaction (§4.8): file creation/refresh, survive-shift updates,
// connection deletes, new connections from the Splitter, the Matcher's
// mappings, and finally the checkpoint row deletions. Nothing here is
// visible to another run until Commit succeeds; any failure rolls the
// whole transaction back, leaving the checkpoint queue untouched.
func commit(
	st *store.Store,
	cfg Config,
	plan *changePlan,
	combined reconcile.Result,
	batches []batch.Batch,
	responses []splitter.Response,
	touchedBeforeInsert []graph.Connection,
	rowIDs []int64,
) (RunResult, error) {
	tx, err := st.Begin()
	if err != nil {
		return RunResult{}, &errs.StoreTransient{Op: "begin", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	placeholderToReal := make(map[int64]int64, len(plan.pendingFiles))
	for placeholder, f := range plan.pendingFiles {
		realID, err := tx.UpsertFile(f)
		if err != nil {
			return RunResult{}, &errs.StoreTransient{Op: "upsert added file", Err: err}
		}
		placeholderToReal[placeholder] = realID
	}
	for _, f := range plan.modifiedFiles {
		if _, err := tx.UpsertFile(f); err != nil {
			return RunResult{}, &errs.StoreTransient{Op: "refresh modified file", Err: err}
		}
	}
	for _, fileID := range plan.deletedFileIDs {
		if err := tx.DeleteFile(fileID); err != nil {
			return RunResult{}, &errs.StoreTransient{Op: "delete file", Err: err}
		}
	}

	resolveFileID := func(fileID int64) int64 {
		if fileID < 0 {
			if real, ok := placeholderToReal[fileID]; ok {
				return real
			}
		}
		return fileID
	}

	for _, s := range combined.SurviveShift {
		if err := tx.UpdateConnectionLineRange(s.ConnectionID, s.StartLine, s.EndLine); err != nil {
			return RunResult{}, &errs.StoreTransient{Op: "update connection line range", Err: err}
		}
		if err := tx.UpdateConnectionSnippet(s.ConnectionID, s.CodeSnippet); err != nil {
			return RunResult{}, &errs.StoreTransient{Op: "update connection snippet", Err: err}
		}
	}

	for _, id := range combined.Delete {
		if err := tx.DeleteConnection(id); err != nil {
			return RunResult{}, &errs.StoreTransient{Op: "delete connection", Err: err}
		}
	}

	var newConnections []graph.Connection
	for bi, resp := range responses {
		b := batches[bi]
		for _, dc := range resp.Connections {
			if dc.SourceIndex < 0 || dc.SourceIndex >= len(b.Jobs) {
				return RunResult{}, fmt.Errorf("commit: derived connection source_index %d out of range for batch %d", dc.SourceIndex, bi)
			}
			source := b.Jobs[dc.SourceIndex]
			c := graph.Connection{
				FileID:         resolveFileID(source.FileID),
				ProjectID:      b.ProjectID,
				Direction:      dc.Direction,
				StartLine:      dc.StartLine,
				EndLine:        dc.EndLine,
				CodeSnippet:    dc.CodeSnippet,
				Description:    dc.Description,
				TechnologyName: dc.TechnologyName,
			}
			id, err := tx.InsertConnection(c)
			if err != nil {
				return RunResult{}, &errs.StoreTransient{Op: "insert connection", Err: err}
			}
			c.ID = id
			newConnections = append(newConnections, c)
		}
	}

	allTouched := append(append([]graph.Connection{}, touchedBeforeInsert...), newConnections...)
	mappings := match.Run(allTouched, cfg.MatcherThreshold, match.DefaultRegistry())
	for _, m := range mappings {
		if _, err := tx.InsertMapping(m); err != nil {
			return RunResult{}, &errs.StoreTransient{Op: "insert connection mapping", Err: err}
		}
	}

	if err := tx.DeleteCheckpointRows(rowIDs); err != nil {
		return RunResult{}, &errs.StoreTransient{Op: "delete checkpoint rows", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return RunResult{}, &errs.StoreTransient{Op: "commit", Err: err}
	}
	committed = true

	return RunResult{
		ProjectsTouched:     len(plan.touchedProjectIDs),
		FilesProcessed:      len(plan.pendingFiles) + len(plan.modifiedFiles) + len(plan.deletedFileIDs),
		ConnectionsInserted: len(newConnections),
		ConnectionsDeleted:  len(combined.Delete),
		ConnectionsShifted:  len(combined.SurviveShift),
		MappingsWritten:     len(mappings),
	}, nil
}
