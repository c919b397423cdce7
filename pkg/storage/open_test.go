package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpen(t *testing.T) {
	t.Run("default_is_memory", func(t *testing.T) {
		engine, err := Open(Options{})
		require.NoError(t, err)
		defer engine.Close()
		assert.IsType(t, &MemoryEngine{}, engine)
	})

	t.Run("badger_in_memory", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		engine, err := Open(Options{
			Engine: " Badger ",
			Badger: BadgerOptions{InMemory: true},
			Logger: zap.New(core),
		})
		require.NoError(t, err)
		defer engine.Close()
		assert.IsType(t, &BadgerEngine{}, engine)

		opened := logs.FilterMessage("Opening engine").All()
		require.Len(t, opened, 1)
		assert.Equal(t, EngineBadger, opened[0].ContextMap()["engine"])
	})

	t.Run("neo4j_requires_uri", func(t *testing.T) {
		_, err := Open(Options{Engine: EngineNeo4j})
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(Options{Engine: "sqlite"})
		assert.ErrorIs(t, err, ErrUnknownEngine)
	})
}
