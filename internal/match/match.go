// Package match implements the Cross-Project Matcher (C7): pairing
// outgoing connections in one project with inbound connections in
// another by technology-aware similarity, producing ConnectionMapping
// rows. The Matcher is single-threaded and pure (§5) — it never touches
// the store directly; callers persist the returned mappings.
package match

import (
	"sort"
	"strings"

	"codenerd/internal/graph"
)

// Strategy computes a similarity score in [0,1] between an outgoing and
// an incoming connection of the same technology, or ok=false if the
// pair cannot be compared at all (rather than scoring it 0). Rationale
// is a short human-readable note stored alongside the match.
type Strategy interface {
	Similarity(out, in graph.Connection) (score float64, ok bool)
	Rationale() string
}

// Registry selects a Strategy by technology_name, case-insensitively
// matching a registered prefix, falling back to a default strategy —
// the same registry-of-named-strategies shape this codebase uses
// elsewhere for pluggable per-kind behavior.
type Registry struct {
	entries  []registryEntry
	fallback Strategy
}

type registryEntry struct {
	prefix   string
	strategy Strategy
}

// NewRegistry builds a Registry with the default token-overlap fallback.
func NewRegistry() *Registry {
	return &Registry{fallback: TokenOverlapStrategy{}}
}

// Register associates a technology_name prefix (matched case-insensitively)
// with a Strategy. "http" matches "HTTP/GET", "HTTP/POST", etc.
func (r *Registry) Register(prefix string, s Strategy) {
	r.entries = append(r.entries, registryEntry{prefix: prefix, strategy: s})
}

func (r *Registry) strategyFor(technologyName string) Strategy {
	lower := strings.ToLower(technologyName)
	for _, e := range r.entries {
		if strings.HasPrefix(lower, strings.ToLower(e.prefix)) {
			return e.strategy
		}
	}
	return r.fallback
}

// DefaultRegistry returns a Registry pre-populated with the "http" and
// "messaging" example strategies named in the Matcher's design, plus the
// token-overlap fallback for everything else.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("http", HTTPStrategy{})
	r.Register("messaging", MessagingStrategy{})
	r.Register("amqp", MessagingStrategy{})
	r.Register("kafka", MessagingStrategy{})
	return r
}

// Run computes matches across every outgoing/incoming connection pair
// in the same technology family (the technology_name before any "/",
// compared case-insensitively; see technologyFamily), in ascending
// connection-ID order for both
// sides (L4: identical inputs must yield identical mappings). Pairs
// within the same project are never compared — a Mapping always links
// connections belonging to two different projects (§4.7).
func Run(connections []graph.Connection, threshold float64, registry *Registry) []graph.ConnectionMapping {
	var outgoing, incoming []graph.Connection
	for _, c := range connections {
		if c.Direction == graph.DirectionOutgoing {
			outgoing = append(outgoing, c)
		} else {
			incoming = append(incoming, c)
		}
	}
	sort.Slice(outgoing, func(i, j int) bool { return outgoing[i].ID < outgoing[j].ID })
	sort.Slice(incoming, func(i, j int) bool { return incoming[i].ID < incoming[j].ID })

	var mappings []graph.ConnectionMapping
	for _, out := range outgoing {
		for _, in := range incoming {
			if out.ProjectID == in.ProjectID {
				continue
			}
			if technologyFamily(out.TechnologyName) != technologyFamily(in.TechnologyName) {
				continue
			}
			strategy := registry.strategyFor(out.TechnologyName)
			score, ok := strategy.Similarity(out, in)
			if !ok || score < threshold {
				continue
			}
			mappings = append(mappings, graph.ConnectionMapping{
				OutgoingConnectionID: out.ID,
				IncomingConnectionID: in.ID,
				Confidence:           score,
				TechnologyName:       out.TechnologyName,
				Rationale:            strategy.Rationale(),
			})
		}
	}
	return mappings
}

// technologyFamily strips the verb/operation suffix from a
// technology_name ("KAFKA/produce" -> "KAFKA") so that an outgoing
// producer and an incoming consumer of the same broker technology are
// still considered candidates for matching, even though their exact
// technology_name strings differ.
func technologyFamily(technologyName string) string {
	if idx := strings.IndexByte(technologyName, '/'); idx >= 0 {
		return strings.ToLower(technologyName[:idx])
	}
	return strings.ToLower(technologyName)
}
