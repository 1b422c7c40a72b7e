// Package fake provides a deterministic, in-memory Splitter used by the
// reconciler/coordinator test suite, standing in for the real
// LLM-backed analyzer without any network dependency.
package fake

import (
	"context"
	"strings"

	"codenerd/internal/graph"
	"codenerd/internal/splitter"
)

// Rule maps a substring found in a SnippetJob's code to the connection
// it should produce, letting tests script the fake analyzer's behavior
// without writing a full language model.
type Rule struct {
	Contains       string
	Direction      graph.Direction
	TechnologyName string
	Description    string
}

// Splitter answers Split deterministically from a fixed set of Rules,
// or returns an injected error for failure-path tests.
type Splitter struct {
	Rules []Rule
	Err   error
}

func (s *Splitter) Split(_ context.Context, req splitter.Request) (splitter.Response, error) {
	if s.Err != nil {
		return splitter.Response{}, s.Err
	}

	var resp splitter.Response
	for idx, job := range req.Snippets {
		for _, rule := range s.Rules {
			if !strings.Contains(job.Code, rule.Contains) {
				continue
			}
			resp.Connections = append(resp.Connections, graph.DerivedConnection{
				SourceIndex:    idx,
				Direction:      rule.Direction,
				StartLine:      job.StartLine,
				EndLine:        job.EndLine,
				CodeSnippet:    job.Code,
				Description:    rule.Description,
				TechnologyName: rule.TechnologyName,
			})
		}
	}
	return resp, nil
}
