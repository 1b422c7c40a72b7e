package match

import (
	"regexp"
	"strings"

	"codenerd/internal/graph"
)

// HTTPStrategy matches outgoing HTTP calls to incoming HTTP handlers by
// comparing the request path (the first quoted string literal found in
// each connection's code snippet) and the HTTP method encoded in
// technology_name (e.g. "HTTP/GET"). An exact path match is scored
// highly; differing methods knock the score down rather than rejecting
// the pair outright, since a snippet's literal path may include a verb
// typo or the route may be registered under multiple methods.
type HTTPStrategy struct{}

var quotedLiteral = regexp.MustCompile(`"([^"]*)"`)

func (HTTPStrategy) Similarity(out, in graph.Connection) (float64, bool) {
	outPath, outOK := firstPath(out.CodeSnippet)
	inPath, inOK := firstPath(in.CodeSnippet)
	if !outOK || !inOK {
		return 0, false
	}

	if normalizePath(outPath) != normalizePath(inPath) {
		return 0, false
	}

	score := 0.9
	if httpMethod(out.TechnologyName) != httpMethod(in.TechnologyName) {
		score -= 0.2
	}
	return score, true
}

func (HTTPStrategy) Rationale() string {
	return "matching HTTP request path"
}

func firstPath(code string) (string, bool) {
	m := quotedLiteral.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func normalizePath(p string) string {
	return strings.TrimSuffix(strings.TrimPrefix(p, "/"), "/")
}

func httpMethod(technologyName string) string {
	parts := strings.SplitN(technologyName, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.ToUpper(parts[1])
}
