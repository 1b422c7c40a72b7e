// Package splitter defines the Splitter Driver's (C6) external-analyzer
// contract: a request/response shape mirroring §6's JSON interface, plus
// the retry and validation logic the driver applies uniformly regardless
// of which concrete Splitter implementation answers the call.
package splitter

import (
	"context"
	"fmt"

	"codenerd/internal/errs"
	"codenerd/internal/graph"
	"codenerd/internal/retry"
)

// Request is one batch's worth of work handed to the external analyzer.
type Request struct {
	ProjectDescription string
	Snippets            []graph.SnippetJob
}

// Response is the analyzer's answer: derived connections keyed by the
// index of the SnippetJob they were extracted from.
type Response struct {
	Connections []graph.DerivedConnection
}

// Splitter is the external LLM-backed code-to-connections analyzer
// (§6). Implementations are interchangeable; the driver treats it as a
// pure function up to retries.
type Splitter interface {
	Split(ctx context.Context, req Request) (Response, error)
}

// Driver wraps a Splitter with the retry policy and code_snippet
// validation named in §4.6/§7.
type Driver struct {
	Splitter    Splitter
	RetryConfig retry.Config
}

// NewDriver builds a Driver with the given retry attempt count, using
// the shared retry package's exponential backoff defaults otherwise.
func NewDriver(s Splitter, maxAttempts int) *Driver {
	cfg := retry.DefaultConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	return &Driver{Splitter: s, RetryConfig: cfg}
}

// Run invokes the Splitter for one batch, retrying transient errors per
// the configured policy, then validates every returned connection's
// code_snippet against the batch's own SnippetJobs (the driver has no
// other access to "current file content" than what it just sent).
// batchIndex identifies the batch for SplitterTransient/Permanent errors.
func (d *Driver) Run(ctx context.Context, batchIndex int, req Request) (Response, error) {
	var resp Response
	err := retry.Do(ctx, d.RetryConfig, func(attempt int) error {
		r, err := d.Splitter.Split(ctx, req)
		if err != nil {
			if retry.IsTransient(err) {
				return &errs.SplitterTransient{BatchIndex: batchIndex, Err: err}
			}
			return &errs.SplitterPermanent{BatchIndex: batchIndex, Err: err}
		}
		resp = r
		return nil
	})
	if err != nil {
		return Response{}, err
	}

	if err := validateBatch(req, resp); err != nil {
		return Response{}, &errs.SplitterPermanent{BatchIndex: batchIndex, Err: err}
	}
	return resp, nil
}

// validateBatch enforces that every returned connection's code_snippet
// matches the snippet text of its source SnippetJob verbatim, and that
// source_index is in range. A mismatch is fatal (§4.6): partial batches
// are never persisted.
func validateBatch(req Request, resp Response) error {
	for _, c := range resp.Connections {
		if c.SourceIndex < 0 || c.SourceIndex >= len(req.Snippets) {
			return fmt.Errorf("derived connection references out-of-range source_index %d", c.SourceIndex)
		}
		source := req.Snippets[c.SourceIndex]
		expected := sliceLines(source.Code, c.StartLine-source.StartLine, c.EndLine-source.StartLine)
		if expected != c.CodeSnippet {
			return fmt.Errorf("code_snippet for source_index %d does not match the submitted code verbatim", c.SourceIndex)
		}
	}
	return nil
}

// sliceLines returns lines [fromIdx, toIdx] (0-indexed, inclusive) of
// code, split on "\n".
func sliceLines(code string, fromIdx, toIdx int) string {
	lines := splitLines(code)
	if fromIdx < 0 || toIdx >= len(lines) || fromIdx > toIdx {
		return ""
	}
	out := lines[fromIdx]
	for i := fromIdx + 1; i <= toIdx; i++ {
		out += "\n" + lines[i]
	}
	return out
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}
