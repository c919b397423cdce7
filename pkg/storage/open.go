package storage

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Engine kinds accepted by Open.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
	EngineNeo4j  = "neo4j"
)

// Options selects and configures an engine for Open.
type Options struct {
	// Engine is one of EngineMemory, EngineBadger or EngineNeo4j.
	// Empty selects EngineMemory.
	Engine string

	Badger BadgerOptions
	Neo4j  Neo4jOptions

	// Logger is handed to the engine for its internal logging when the
	// engine-specific options do not set one.
	Logger *zap.Logger
}

// Open constructs the engine named by opts.Engine.
//
// Example:
//
//	engine, err := storage.Open(storage.Options{
//		Engine: storage.EngineBadger,
//		Badger: storage.BadgerOptions{DataDir: "./data"},
//	})
func Open(opts Options) (Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineMemory:
		logger.Debug("Opening engine", zap.String("engine", EngineMemory))
		return NewMemoryEngine(), nil

	case EngineBadger:
		badgerOpts := opts.Badger
		if badgerOpts.Logger == nil && opts.Logger != nil {
			badgerOpts.Logger = NewBadgerLogger(opts.Logger)
		}
		logger.Debug("Opening engine",
			zap.String("engine", EngineBadger),
			zap.String("data_dir", badgerOpts.DataDir),
			zap.Bool("in_memory", badgerOpts.InMemory))
		return NewBadgerEngineWithOptions(badgerOpts)

	case EngineNeo4j:
		neoOpts := opts.Neo4j
		if neoOpts.Logger == nil {
			neoOpts.Logger = opts.Logger
		}
		logger.Debug("Opening engine",
			zap.String("engine", EngineNeo4j),
			zap.String("uri", neoOpts.URI),
			zap.String("database", neoOpts.Database))
		return NewNeo4jEngine(neoOpts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Engine)
}
