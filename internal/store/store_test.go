package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"codenerd/internal/graph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertProjectIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	id1, err := tx.UpsertProject(graph.Project{Name: "svc-a", RootPath: "/repo/svc-a", Description: "service a"})
	require.NoError(t, err)
	id2, err := tx.UpsertProject(graph.Project{Name: "svc-a-renamed", RootPath: "/repo/svc-a"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Equal(t, id1, id2)

	desc, err := s.ProjectDescription(id1)
	require.NoError(t, err)
	require.Equal(t, "service a", desc, "second upsert must not overwrite an existing project")
}

func TestUpsertFileUpdatesContentHash(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	projectID, err := tx.UpsertProject(graph.Project{Name: "svc-a", RootPath: "/repo/svc-a"})
	require.NoError(t, err)
	fileID1, err := tx.UpsertFile(graph.File{ProjectID: projectID, Path: "main.go", Language: "go", ContentHash: "h1"})
	require.NoError(t, err)
	fileID2, err := tx.UpsertFile(graph.File{ProjectID: projectID, Path: "main.go", Language: "go", ContentHash: "h2"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Equal(t, fileID1, fileID2)

	f, ok, err := s.FileByPath(projectID, "main.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "h2", f.ContentHash)
}

func TestDeleteFileCascadesConnectionsAndMappings(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	projA, err := tx.UpsertProject(graph.Project{Name: "a", RootPath: "/a"})
	require.NoError(t, err)
	projB, err := tx.UpsertProject(graph.Project{Name: "b", RootPath: "/b"})
	require.NoError(t, err)
	fileA, err := tx.UpsertFile(graph.File{ProjectID: projA, Path: "client.go"})
	require.NoError(t, err)
	fileB, err := tx.UpsertFile(graph.File{ProjectID: projB, Path: "server.go"})
	require.NoError(t, err)

	outID, err := tx.InsertConnection(graph.Connection{FileID: fileA, Direction: graph.DirectionOutgoing, StartLine: 1, EndLine: 2, CodeSnippet: "http.Get(x)"})
	require.NoError(t, err)
	inID, err := tx.InsertConnection(graph.Connection{FileID: fileB, Direction: graph.DirectionIncoming, StartLine: 10, EndLine: 12, CodeSnippet: "http.HandleFunc(x)"})
	require.NoError(t, err)
	_, err = tx.InsertMapping(graph.ConnectionMapping{OutgoingConnectionID: outID, IncomingConnectionID: inID, Confidence: 0.9})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx, err = s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.DeleteFile(fileA))
	require.NoError(t, tx.Commit())

	mappings, err := s.MappingsForConnection(inID)
	require.NoError(t, err)
	require.Empty(t, mappings, "deleting the outgoing connection's file must cascade-delete its mapping")

	conns, err := s.ConnectionsByFile(fileA)
	require.NoError(t, err)
	require.Empty(t, conns)
}

func TestConnectionsForProjectsOrdersByID(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	proj, err := tx.UpsertProject(graph.Project{Name: "a", RootPath: "/a"})
	require.NoError(t, err)
	file, err := tx.UpsertFile(graph.File{ProjectID: proj, Path: "main.go"})
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := tx.InsertConnection(graph.Connection{FileID: file, Direction: graph.DirectionOutgoing, StartLine: i + 1, EndLine: i + 1, CodeSnippet: "x"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, tx.Commit())

	conns, err := s.ConnectionsForProjects([]int64{proj})
	require.NoError(t, err)
	require.Len(t, conns, 3)
	for i, c := range conns {
		require.Equal(t, ids[i], c.ID)
	}
}

func TestCheckpointRowLifecycle(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	proj, err := tx.UpsertProject(graph.Project{Name: "a", RootPath: "/a"})
	require.NoError(t, err)
	old, new_ := "old body", "new body"
	id, err := tx.InsertCheckpointRow(graph.CheckpointRow{ProjectID: proj, FilePath: "main.go", ChangeKind: graph.ChangeModified, OldContent: &old, NewContent: &new_})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	rows, err := s.CheckpointRowsForProject(proj)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "new body", *rows[0].NewContent)

	tx, err = s.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.DeleteCheckpointRows([]int64{id}))
	require.NoError(t, tx.Commit())

	rows, err = s.CheckpointRowsForProject(proj)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestInsertMappingIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Begin()
	require.NoError(t, err)
	proj, err := tx.UpsertProject(graph.Project{Name: "a", RootPath: "/a"})
	require.NoError(t, err)
	file, err := tx.UpsertFile(graph.File{ProjectID: proj, Path: "main.go"})
	require.NoError(t, err)
	outID, err := tx.InsertConnection(graph.Connection{FileID: file, Direction: graph.DirectionOutgoing, StartLine: 1, EndLine: 1, CodeSnippet: "x"})
	require.NoError(t, err)
	inID, err := tx.InsertConnection(graph.Connection{FileID: file, Direction: graph.DirectionIncoming, StartLine: 2, EndLine: 2, CodeSnippet: "y"})
	require.NoError(t, err)

	id1, err := tx.InsertMapping(graph.ConnectionMapping{OutgoingConnectionID: outID, IncomingConnectionID: inID, Confidence: 0.5})
	require.NoError(t, err)
	id2, err := tx.InsertMapping(graph.ConnectionMapping{OutgoingConnectionID: outID, IncomingConnectionID: inID, Confidence: 0.8, Rationale: "refined"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Equal(t, id1, id2)

	mappings, err := s.MappingsForConnection(outID)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	require.Equal(t, 0.8, mappings[0].Confidence)
}
