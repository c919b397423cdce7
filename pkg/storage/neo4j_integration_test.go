package storage

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// openNeo4j connects to the server named by GRAPHKIT_NEO4J_URI and skips the
// test when it is unset.
func openNeo4j(t *testing.T) *Neo4jEngine {
	t.Helper()
	uri := os.Getenv("GRAPHKIT_NEO4J_URI")
	if uri == "" {
		t.Skip("GRAPHKIT_NEO4J_URI not set")
	}
	user := os.Getenv("GRAPHKIT_NEO4J_USER")
	if user == "" {
		user = "neo4j"
	}

	engine, err := NewNeo4jEngine(Neo4jOptions{
		URI:      uri,
		Username: user,
		Password: os.Getenv("GRAPHKIT_NEO4J_PASSWORD"),
		Database: os.Getenv("GRAPHKIT_NEO4J_DATABASE"),
		Timeout:  10 * time.Second,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

// runType returns a vertex type no other run has used, so tests can share a
// database.
func runType(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func TestNeo4jEngine_Integration(t *testing.T) {
	engine := openNeo4j(t)
	typ := runType("it")
	link := MustIdentifier("link")

	a := mustVertex(t, engine, typ)
	b := mustVertex(t, engine, typ)

	t.Run("vertices", func(t *testing.T) {
		out := single(t, engine, SpecificVertexQuery{IDs: []uuid.UUID{b, uuid.New(), a}})
		assert.Equal(t, []uuid.UUID{b, a}, idsOf(out.(VertexList)))

		out = single(t, engine, RangeVertexQuery{Type: MustIdentifier(typ)})
		assert.Equal(t, sortedIDs(a, b), idsOf(out.(VertexList)))

		out = single(t, engine, CountQuery{Inner: RangeVertexQuery{Type: MustIdentifier(typ)}})
		assert.Equal(t, Count(2), out)
	})

	t.Run("edge_merge_is_idempotent", func(t *testing.T) {
		e := Edge{OutboundID: a, Type: link, InboundID: b}
		for i := 0; i < 2; i++ {
			ok, err := engine.CreateEdge(e)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		out := single(t, engine, PipeQuery{Inner: SpecificVertexQuery{IDs: []uuid.UUID{a}}, Direction: Outbound})
		assert.Equal(t, EdgeList{e}, out)

		out = single(t, engine, PipeQuery{Inner: SpecificVertexQuery{IDs: []uuid.UUID{b}}, Direction: Inbound, Type: link})
		assert.Equal(t, EdgeList{e}, out)
	})

	t.Run("edge_to_missing_vertex", func(t *testing.T) {
		ok, err := engine.CreateEdge(Edge{OutboundID: a, Type: link, InboundID: uuid.New()})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = engine.CreateEdge(Edge{OutboundID: uuid.New(), Type: link, InboundID: b})
		require.NoError(t, err)
		assert.False(t, ok)

		out := single(t, engine, CountQuery{Inner: PipeQuery{Inner: SpecificVertexQuery{IDs: []uuid.UUID{a}}, Direction: Outbound}})
		assert.Equal(t, Count(1), out)
	})

	t.Run("properties", func(t *testing.T) {
		target := SpecificVertexQuery{IDs: []uuid.UUID{a}}
		require.NoError(t, engine.SetProperties(target, MustIdentifier("title"), json.RawMessage(`"x"`)))
		require.NoError(t, engine.SetProperties(target, MustIdentifier("rank"), json.RawMessage(`3`)))

		out := single(t, engine, PipePropertyQuery{Inner: target, Name: MustIdentifier("title")})
		require.Len(t, out.(PropertiedVertexList), 1)
		assert.Equal(t, []NamedProperty{{Name: MustIdentifier("title"), Value: json.RawMessage(`"x"`)}},
			out.(PropertiedVertexList)[0].Props)

		out = single(t, engine, PipePropertyQuery{Inner: target})
		require.Len(t, out.(PropertiedVertexList), 1)
		assert.Equal(t, []NamedProperty{
			{Name: MustIdentifier("rank"), Value: json.RawMessage(`3`)},
			{Name: MustIdentifier("title"), Value: json.RawMessage(`"x"`)},
		}, out.(PropertiedVertexList)[0].Props)

		out = single(t, engine, PipePropertyQuery{Inner: SpecificVertexQuery{IDs: []uuid.UUID{b}}, Name: MustIdentifier("title")})
		assert.Empty(t, out.(PropertiedVertexList))
	})

	t.Run("closed", func(t *testing.T) {
		closing := openNeo4j(t)
		require.NoError(t, closing.Close())

		_, err := closing.CreateVertexFromType(MustIdentifier(typ))
		assert.ErrorIs(t, err, ErrStorageClosed)
		_, err = closing.Execute(AllVertexQuery{})
		assert.ErrorIs(t, err, ErrStorageClosed)
	})
}
