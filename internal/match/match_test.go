package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/graph"
	"codenerd/internal/match"
)

func TestRun_HTTPCrossProjectMatch(t *testing.T) {
	conns := []graph.Connection{
		{ID: 1, FileID: 10, ProjectID: 1, Direction: graph.DirectionOutgoing, TechnologyName: "HTTP/GET",
			CodeSnippet: `http.Get("/health")`, Description: "checks downstream health"},
		{ID: 2, FileID: 20, ProjectID: 2, Direction: graph.DirectionIncoming, TechnologyName: "HTTP/GET",
			CodeSnippet: `router.GET("/health", handler)`, Description: "serves health check"},
	}

	mappings := match.Run(conns, 0.5, match.DefaultRegistry())
	require.Len(t, mappings, 1)
	assert.Equal(t, int64(1), mappings[0].OutgoingConnectionID)
	assert.Equal(t, int64(2), mappings[0].IncomingConnectionID)
	assert.Equal(t, "HTTP/GET", mappings[0].TechnologyName)
	assert.Greater(t, mappings[0].Confidence, 0.5)
}

func TestRun_DifferentPathsDoNotMatch(t *testing.T) {
	conns := []graph.Connection{
		{ID: 1, FileID: 10, ProjectID: 1, Direction: graph.DirectionOutgoing, TechnologyName: "HTTP/GET", CodeSnippet: `http.Get("/health")`},
		{ID: 2, FileID: 20, ProjectID: 2, Direction: graph.DirectionIncoming, TechnologyName: "HTTP/GET", CodeSnippet: `router.GET("/orders", handler)`},
	}

	mappings := match.Run(conns, 0.5, match.DefaultRegistry())
	assert.Empty(t, mappings)
}

func TestRun_DifferentTechnologyFamiliesNeverCompared(t *testing.T) {
	conns := []graph.Connection{
		{ID: 1, FileID: 10, ProjectID: 1, Direction: graph.DirectionOutgoing, TechnologyName: "HTTP/GET", CodeSnippet: `http.Get("/health")`},
		{ID: 2, FileID: 20, ProjectID: 2, Direction: graph.DirectionIncoming, TechnologyName: "AMQP/consume", CodeSnippet: `ch.Consume("/health")`},
	}

	mappings := match.Run(conns, 0.1, match.DefaultRegistry())
	assert.Empty(t, mappings)
}

func TestRun_MessagingTopicMatch(t *testing.T) {
	conns := []graph.Connection{
		{ID: 5, FileID: 10, ProjectID: 1, Direction: graph.DirectionOutgoing, TechnologyName: "KAFKA/produce", CodeSnippet: `producer.Send("orders.created", msg)`},
		{ID: 6, FileID: 20, ProjectID: 2, Direction: graph.DirectionIncoming, TechnologyName: "KAFKA/consume", CodeSnippet: `consumer.Subscribe("orders.created")`},
	}

	mappings := match.Run(conns, 0.5, match.DefaultRegistry())
	require.Len(t, mappings, 1)
	assert.Equal(t, "matching queue/topic name", mappings[0].Rationale)
}

func TestRun_FallsBackToTokenOverlapForUnknownTechnology(t *testing.T) {
	conns := []graph.Connection{
		{ID: 1, FileID: 10, ProjectID: 1, Direction: graph.DirectionOutgoing, TechnologyName: "GRPC/Call", Description: "places an order via checkout service"},
		{ID: 2, FileID: 20, ProjectID: 2, Direction: graph.DirectionIncoming, TechnologyName: "GRPC/Call", Description: "checkout service places order handler"},
	}

	mappings := match.Run(conns, 0.3, match.DefaultRegistry())
	require.Len(t, mappings, 1)
	assert.Equal(t, "token overlap of connection descriptions", mappings[0].Rationale)
}

func TestRun_IsIdempotentAndDeterministicallyOrdered(t *testing.T) {
	conns := []graph.Connection{
		{ID: 3, FileID: 30, ProjectID: 100, Direction: graph.DirectionOutgoing, TechnologyName: "HTTP/GET", CodeSnippet: `http.Get("/a")`},
		{ID: 1, FileID: 10, ProjectID: 100, Direction: graph.DirectionOutgoing, TechnologyName: "HTTP/GET", CodeSnippet: `http.Get("/a")`},
		{ID: 4, FileID: 40, ProjectID: 200, Direction: graph.DirectionIncoming, TechnologyName: "HTTP/GET", CodeSnippet: `router.GET("/a", h)`},
		{ID: 2, FileID: 20, ProjectID: 200, Direction: graph.DirectionIncoming, TechnologyName: "HTTP/GET", CodeSnippet: `router.GET("/a", h)`},
	}

	first := match.Run(conns, 0.5, match.DefaultRegistry())
	second := match.Run(conns, 0.5, match.DefaultRegistry())
	assert.Equal(t, first, second)

	require.Len(t, first, 4)
	assert.Equal(t, int64(1), first[0].OutgoingConnectionID)
	assert.Equal(t, int64(2), first[0].IncomingConnectionID)
	assert.Equal(t, int64(1), first[1].OutgoingConnectionID)
	assert.Equal(t, int64(4), first[1].IncomingConnectionID)
	assert.Equal(t, int64(3), first[2].OutgoingConnectionID)
}

func TestRun_SkipsSameProjectCandidates(t *testing.T) {
	conns := []graph.Connection{
		{ID: 1, FileID: 10, ProjectID: 1, Direction: graph.DirectionOutgoing, TechnologyName: "HTTP/GET", CodeSnippet: `http.Get("/a")`},
		{ID: 2, FileID: 10, ProjectID: 1, Direction: graph.DirectionIncoming, TechnologyName: "HTTP/GET", CodeSnippet: `router.GET("/a", h)`},
	}

	mappings := match.Run(conns, 0.1, match.DefaultRegistry())
	assert.Empty(t, mappings)
}

// A project with both an outgoing and an incoming connection of the
// same technology in two different files must never produce a Mapping
// between them — only FileID differed before, which this pair would
// have slipped past.
func TestRun_SkipsSameProjectDifferentFileCandidates(t *testing.T) {
	conns := []graph.Connection{
		{ID: 1, FileID: 10, ProjectID: 1, Direction: graph.DirectionOutgoing, TechnologyName: "HTTP/GET", CodeSnippet: `http.Get("/a")`},
		{ID: 2, FileID: 11, ProjectID: 1, Direction: graph.DirectionIncoming, TechnologyName: "HTTP/GET", CodeSnippet: `router.GET("/a", h)`},
	}

	mappings := match.Run(conns, 0.1, match.DefaultRegistry())
	assert.Empty(t, mappings)
}
