// Package coordinator implements the Run Coordinator (C8): the single
// state machine that drives one invocation of the cross-indexing engine
// from a raw checkpoint queue through to a committed graph update.
//
// State machine (§4.8):
//
//	Idle -> Loading -> Diffing -> Reconciling -> Splitting -> Matching -> Committing -> Idle
//
// any state may transition to Aborting -> Idle on a fatal error.
package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"codenerd/internal/batch"
	"codenerd/internal/checkpoint"
	"codenerd/internal/errs"
	"codenerd/internal/graph"
	"codenerd/internal/logging"
	"codenerd/internal/reconcile"
	"codenerd/internal/splitter"
	"codenerd/internal/store"
)

// State names one node of the Coordinator's state machine, logged at
// every transition for run visibility.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateDiffing     State = "diffing"
	StateReconciling State = "reconciling"
	StateSplitting   State = "splitting"
	StateMatching    State = "matching"
	StateCommitting  State = "committing"
	StateAborting    State = "aborting"
)

// Exit codes for batch-job invocation (§6).
const (
	ExitSuccess            = 0
	ExitNothingToDo        = 2
	ExitSplitterFailure    = 10
	ExitStoreFailure       = 11
	ExitInvariantViolation = 20
)

// Config is the subset of the run configuration the Coordinator needs,
// kept independent of the config package; cmd/nerd copies the fields
// across from the loaded config.Config.
type Config struct {
	AdjacencyThreshold  int
	BatchLineBudget     int
	SplitterRetries     int
	SplitterConcurrency int
	CPUWorkers          int
	MatcherThreshold    float64
}

// RunResult summarizes one completed (or aborted) run.
type RunResult struct {
	FinalState          State
	ProjectsTouched     int
	FilesProcessed      int
	ConnectionsInserted int
	ConnectionsDeleted  int
	ConnectionsShifted  int
	MappingsWritten     int
}

// Run drives one full pass of the engine: Load every project's pending
// checkpoint rows, diff and reconcile touched files, batch and split the
// resulting snippets, match the updated graph, and commit everything in
// a single transaction. It returns the exit code named in §6 alongside
// any error that caused an early abort.
func Run(ctx context.Context, st *store.Store, cfg Config, sp splitter.Splitter) (RunResult, int, error) {
	log := logging.Get(logging.CategoryBoot)
	result := RunResult{FinalState: StateIdle}

	log.Info("state -> %s", StateLoading)
	rows, err := loadAllCheckpointRows(st)
	if err != nil {
		return abort(result, StateLoading, err)
	}
	if len(rows) == 0 {
		log.Info("nothing to do: checkpoint queue empty")
		return result, ExitNothingToDo, nil
	}

	changeSet, rowIDs, err := checkpoint.Load(rows)
	if err != nil {
		return abort(result, StateLoading, err)
	}

	log.Info("state -> %s / %s", StateDiffing, StateReconciling)
	plan, err := planChanges(st, changeSet)
	if err != nil {
		return abort(result, StateReconciling, err)
	}

	reconcileResults, err := reconcile.ReconcileAll(plan.reconcileInputs, cfg.AdjacencyThreshold, cfg.CPUWorkers)
	if err != nil {
		return abort(result, StateReconciling, err)
	}
	var combined reconcile.Result
	for _, r := range reconcileResults {
		combined.SurviveShift = append(combined.SurviveShift, r.SurviveShift...)
		combined.Delete = append(combined.Delete, r.Delete...)
		combined.SnippetJobs = append(combined.SnippetJobs, r.SnippetJobs...)
	}

	jobs := plan.addedJobs
	for _, sj := range combined.SnippetJobs {
		jobs = append(jobs, batch.Job{ProjectID: projectOfFile(plan, sj.FileID), Snippet: sj, FromAdded: false})
	}

	log.Info("state -> %s", StateSplitting)
	batches := batch.Plan(jobs, cfg.BatchLineBudget)
	responses, err := runSplitter(ctx, st, sp, cfg, batches)
	if err != nil {
		return abort(result, StateSplitting, err)
	}

	log.Info("state -> %s", StateMatching)
	touched, err := existingConnectionsForMatch(st, plan.touchedProjectIDs)
	if err != nil {
		return abort(result, StateMatching, err)
	}
	touched = applyDeletesAndShifts(touched, combined)

	log.Info("state -> %s", StateCommitting)
	summary, err := commit(st, cfg, plan, combined, batches, responses, touched, rowIDs)
	if _, transient := err.(*errs.StoreTransient); transient {
		// commit rolled its transaction back, so it can be replayed as a whole.
		log.Warn("commit failed, retrying once: %v", err)
		summary, err = commit(st, cfg, plan, combined, batches, responses, touched, rowIDs)
	}
	if err != nil {
		return abort(result, StateCommitting, err)
	}

	result = summary
	result.FinalState = StateIdle
	log.Info("state -> %s (committed)", StateIdle)
	return result, ExitSuccess, nil
}

func abort(result RunResult, from State, err error) (RunResult, int, error) {
	logging.Get(logging.CategoryBoot).Error("state -> %s (from %s): %v", StateAborting, from, err)
	result.FinalState = StateIdle
	return result, classifyErr(err), err
}

func classifyErr(err error) int {
	switch err.(type) {
	case *errs.SplitterTransient, *errs.SplitterPermanent:
		return ExitSplitterFailure
	case *errs.StoreTransient:
		return ExitStoreFailure
	case *errs.InputCorruption, *errs.DiffInvariantViolation, *errs.ReconcileInvariantViolation:
		return ExitInvariantViolation
	default:
		return ExitStoreFailure
	}
}

func loadAllCheckpointRows(st *store.Store) ([]graph.CheckpointRow, error) {
	projectIDs, err := st.ProjectIDs()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var all []graph.CheckpointRow
	for _, pid := range projectIDs {
		rows, err := st.CheckpointRowsForProject(pid)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint rows for project %d: %w", pid, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

func runSplitter(ctx context.Context, st *store.Store, sp splitter.Splitter, cfg Config, batches []batch.Batch) ([]splitter.Response, error) {
	driver := splitter.NewDriver(sp, cfg.SplitterRetries)
	responses := make([]splitter.Response, len(batches))

	eg, egCtx := errgroup.WithContext(ctx)
	limit := cfg.SplitterConcurrency
	if limit <= 0 {
		limit = 1
	}
	eg.SetLimit(limit)

	for i, b := range batches {
		i, b := i, b
		eg.Go(func() error {
			desc, err := st.ProjectDescription(b.ProjectID)
			if err != nil {
				return &errs.StoreTransient{Op: "project description", Err: err}
			}
			resp, err := driver.Run(egCtx, i, splitter.Request{ProjectDescription: desc, Snippets: b.Jobs})
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

func existingConnectionsForMatch(st *store.Store, projectIDs []int64) ([]graph.Connection, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	conns, err := st.ConnectionsForProjects(projectIDs)
	if err != nil {
		return nil, fmt.Errorf("load connections for matching: %w", err)
	}
	return conns, nil
}

func applyDeletesAndShifts(conns []graph.Connection, combined reconcile.Result) []graph.Connection {
	deleted := make(map[int64]bool, len(combined.Delete))
	for _, id := range combined.Delete {
		deleted[id] = true
	}
	shifts := make(map[int64]reconcile.ShiftUpdate, len(combined.SurviveShift))
	for _, s := range combined.SurviveShift {
		shifts[s.ConnectionID] = s
	}

	out := conns[:0:0]
	for _, c := range conns {
		if deleted[c.ID] {
			continue
		}
		if s, ok := shifts[c.ID]; ok {
			c.StartLine = s.StartLine
			c.EndLine = s.EndLine
			c.CodeSnippet = s.CodeSnippet
		}
		out = append(out, c)
	}
	return out
}

func detectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".java":
		return "java"
	case ".rs":
		return "rust"
	case ".c", ".h":
		return "c"
	default:
		return "text"
	}
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
