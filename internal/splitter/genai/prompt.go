package genai

import (
	"fmt"
	"strings"

	"codenerd/internal/graph"
	splitterpkg "codenerd/internal/splitter"
)

// buildPrompt renders a batch request into the natural-language prompt
// sent to the model, instructing it to answer with the exact JSON shape
// wireResponse expects.
func buildPrompt(req splitterpkg.Request) (string, error) {
	var b strings.Builder
	b.WriteString("You are analyzing source code to find external integration points ")
	b.WriteString("(inbound and outbound HTTP endpoints, message-queue publishes/consumes, RPC calls).\n\n")
	fmt.Fprintf(&b, "Project description: %s\n\n", req.ProjectDescription)

	for i, s := range req.Snippets {
		fmt.Fprintf(&b, "--- snippet %d ---\n", i)
		fmt.Fprintf(&b, "file: %s (language: %s, lines %d-%d)\n", s.FilePath, s.Language, s.StartLine, s.EndLine)
		if s.PriorDescription != "" {
			fmt.Fprintf(&b, "prior description: %s\n", s.PriorDescription)
		}
		b.WriteString(s.Code)
		b.WriteString("\n\n")
	}

	b.WriteString("Respond with JSON matching exactly this shape:\n")
	b.WriteString(`{"connections": [{"source_index": int, "direction": "incoming"|"outgoing", ` +
		`"start_line": int, "end_line": int, "code_snippet": string, "description": string, "technology_name": string}]}`)
	b.WriteString("\ncode_snippet must be copied verbatim from the snippet's source lines.")

	return b.String(), nil
}

func toDerivedConnection(c wireConnection) graph.DerivedConnection {
	direction := graph.DirectionOutgoing
	if c.Direction == string(graph.DirectionIncoming) {
		direction = graph.DirectionIncoming
	}
	return graph.DerivedConnection{
		SourceIndex:    c.SourceIndex,
		Direction:      direction,
		StartLine:      c.StartLine,
		EndLine:        c.EndLine,
		CodeSnippet:    c.CodeSnippet,
		Description:    c.Description,
		TechnologyName: c.TechnologyName,
	}
}
