// Package main provides the graphkit CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orneryd/graphkit/pkg/config"
	"github.com/orneryd/graphkit/pkg/graph"
	"github.com/orneryd/graphkit/pkg/logging"
	"github.com/orneryd/graphkit/pkg/storage"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags override the loaded configuration when set.
type globalFlags struct {
	configPath string
	engine     string
	dataDir    string
	logLevel   string
	asJSON     bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "graphkit",
		Short: "graphkit - generic property graph access",
		Long: `graphkit reads and writes typed vertices, directed edges and
scalar properties on a pluggable graph engine.

Engines:
  • memory  (process-local, nothing persists)
  • badger  (embedded, on disk)
  • neo4j   (remote, over Bolt)

Property values are JSON literals: true, 42 or '"text"'.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file")
	pf.StringVar(&flags.engine, "engine", "", "Storage engine (memory, badger, neo4j)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Data directory for the badger engine")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.asJSON, "json", false, "Print results as JSON")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graphkit v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newVertexCmd(flags))
	rootCmd.AddCommand(newEdgeCmd(flags))
	rootCmd.AddCommand(newNeighborsCmd(flags))
	return rootCmd
}

// session is an open store plus everything that must be released with it.
type session struct {
	store  *graph.Store
	engine storage.Engine
	logger *logging.Logger
	out    io.Writer
	asJSON bool
}

func (s *session) Close() {
	if err := s.engine.Close(); err != nil {
		s.logger.Warn("Failed to close engine", zap.Error(err))
	}
	_ = s.logger.Close()
}

// openSession loads configuration, applies flag overrides and opens the
// configured engine. Logs go to the command's error stream.
func openSession(cmd *cobra.Command, flags *globalFlags) (*session, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.engine != "" {
		cfg.Storage.Engine = flags.engine
	}
	if flags.dataDir != "" {
		cfg.Storage.DataDir = flags.dataDir
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging, zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded config", zap.Stringer("config", cfg))

	engine, err := storage.Open(cfg.StorageOptions(logger.Logger))
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("failed to open %s engine: %w", cfg.Storage.Engine, err)
	}

	return &session{
		store:  graph.NewStore(engine, logger.Logger),
		engine: engine,
		logger: logger,
		out:    cmd.OutOrStdout(),
		asJSON: flags.asJSON,
	}, nil
}

// withSession wraps a command body that needs an open store.
func withSession(flags *globalFlags, run func(s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, flags)
		if err != nil {
			return err
		}
		defer s.Close()
		return run(s, args)
	}
}
