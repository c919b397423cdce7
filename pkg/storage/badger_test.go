package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBadgerKeys(t *testing.T) {
	out := uuid.MustParse("0190f6a2-0000-7000-8000-00000000000a")
	in := uuid.MustParse("0190f6a2-0000-7000-8000-00000000000b")
	e := Edge{OutboundID: out, Type: MustIdentifier("depends_on"), InboundID: in}

	t.Run("edge_key_round_trip", func(t *testing.T) {
		got, err := decodeEdgeKey(edgeKey(e))
		require.NoError(t, err)
		assert.Equal(t, e, got)
	})

	t.Run("reverse_edge_key_round_trip", func(t *testing.T) {
		key := reverseEdgeKey(e)
		assert.Equal(t, prefixReverseEdge, key[0])
		assert.Equal(t, in[:], key[1:1+idLen])

		got, err := decodeReverseEdgeKey(key)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	})

	t.Run("adjacency_prefix_matches_edge_key", func(t *testing.T) {
		key := edgeKey(e)
		assert.Equal(t, adjacencyPrefix(prefixEdge, out, Identifier{}), key[:1+idLen])

		typed := adjacencyPrefix(prefixEdge, out, e.Type)
		assert.Equal(t, typed, key[:len(typed)])
	})

	t.Run("typed_prefix_does_not_match_longer_type", func(t *testing.T) {
		longer := Edge{OutboundID: out, Type: MustIdentifier("depends_on_all"), InboundID: in}
		typed := adjacencyPrefix(prefixEdge, out, e.Type)
		assert.NotEqual(t, typed, edgeKey(longer)[:len(typed)])
	})

	t.Run("short_key_rejected", func(t *testing.T) {
		_, err := decodeEdgeKey([]byte{prefixEdge, 1, 2, 3})
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("missing_separator_rejected", func(t *testing.T) {
		key := edgeKey(e)
		key[len(key)-idLen-1] = 'x'
		_, err := decodeEdgeKey(key)
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("type_index_key", func(t *testing.T) {
		key := typeIndexKey(MustIdentifier("task"), out)
		prefix := typeIndexPrefix(MustIdentifier("task"))
		assert.Equal(t, prefix, key[:len(prefix)])
		assert.Equal(t, out[:], key[len(prefix):])
	})

	t.Run("property_key", func(t *testing.T) {
		key := propertyKey(out, MustIdentifier("title"))
		prefix := propertyPrefix(out)
		assert.Equal(t, "title", string(key[len(prefix):]))
	})
}

func TestNewBadgerEngineWithOptions(t *testing.T) {
	t.Run("requires_data_dir", func(t *testing.T) {
		_, err := NewBadgerEngineWithOptions(BadgerOptions{})
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("low_memory", func(t *testing.T) {
		engine, err := NewBadgerEngineWithOptions(BadgerOptions{
			DataDir:   t.TempDir(),
			LowMemory: true,
		})
		require.NoError(t, err)
		defer engine.Close()

		_, err = engine.CreateVertexFromType(MustIdentifier("task"))
		assert.NoError(t, err)
	})
}

func TestBadgerEngine_Persistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graph")

	engine, err := NewBadgerEngineWithOptions(BadgerOptions{DataDir: dir, SyncWrites: true})
	require.NoError(t, err)

	a, err := engine.CreateVertexFromType(MustIdentifier("person"))
	require.NoError(t, err)
	b, err := engine.CreateVertexFromType(MustIdentifier("person"))
	require.NoError(t, err)
	e := Edge{OutboundID: a, Type: MustIdentifier("knows"), InboundID: b}
	ok, err := engine.CreateEdge(e)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, engine.SetProperties(SpecificVertexQuery{IDs: []uuid.UUID{a}}, MustIdentifier("name"), json.RawMessage(`"Alice"`)))

	require.NoError(t, engine.Sync())
	require.NoError(t, engine.Close())

	reopened, err := NewBadgerEngine(dir)
	require.NoError(t, err)
	defer reopened.Close()

	out, err := reopened.Execute(CountQuery{Inner: AllVertexQuery{}})
	require.NoError(t, err)
	assert.Equal(t, []QueryOutput{Count(2)}, out)

	out, err = reopened.Execute(AllEdgeQuery{})
	require.NoError(t, err)
	assert.Equal(t, []QueryOutput{EdgeList{e}}, out)

	out, err = reopened.Execute(PipePropertyQuery{
		Inner: SpecificVertexQuery{IDs: []uuid.UUID{a}},
		Name:  MustIdentifier("name"),
	})
	require.NoError(t, err)
	props := out[0].(PropertiedVertexList)
	require.Len(t, props, 1)
	assert.JSONEq(t, `"Alice"`, string(props[0].Props[0].Value))
}

func TestBadgerEngine_ClosedMaintenance(t *testing.T) {
	engine, err := NewBadgerEngineInMemory()
	require.NoError(t, err)
	require.NoError(t, engine.Close())

	assert.ErrorIs(t, engine.Sync(), ErrStorageClosed)
	assert.ErrorIs(t, engine.RunGC(), ErrStorageClosed)
}

func TestNewBadgerLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewBadgerLogger(zap.New(core))

	logger.Infof("opened %d tables\n", 3)
	logger.Warningf("slow write\n")
	logger.Errorf("failed: %s\n", "disk")
	logger.Debugf("noise\n")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "opened 3 tables", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "failed: disk", entries[2].Message)
	assert.Equal(t, "badger", entries[3].LoggerName)

	assert.NotPanics(t, func() { NewBadgerLogger(nil).Infof("dropped\n") })
}
