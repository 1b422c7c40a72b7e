package match

import (
	"strings"

	"codenerd/internal/graph"
)

// TokenOverlapStrategy is the default fallback strategy (§9 Open
// Question #3) for any technology_name without a dedicated Strategy: a
// Jaccard index over the lowercased word tokens of each connection's
// description.
type TokenOverlapStrategy struct{}

func (TokenOverlapStrategy) Similarity(out, in graph.Connection) (float64, bool) {
	a := tokenSet(out.Description)
	b := tokenSet(in.Description)
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}

	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0, false
	}
	return float64(intersection) / float64(union), true
}

func (TokenOverlapStrategy) Rationale() string {
	return "token overlap of connection descriptions"
}

func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f != "" {
			set[f] = true
		}
	}
	return set
}
