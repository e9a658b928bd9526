// Package cli implements the nodeformat command-line interface.
//
// The commands read graph documents (see [graphio]), run the layout engine
// on them and write the result back, draw them, or serve the same
// operations over HTTP.
//
// # Commands
//
//   - format: lay out the subgraph around a node, or every subgraph
//   - render: format and draw a graph as SVG, PNG or DOT
//   - config: print the effective configuration
//   - serve: run the HTTP API
//   - cache: manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --trace
// to print OpenTelemetry spans for every format request to stderr.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/matzehuels/nodeformat/internal/telemetry"
	"github.com/matzehuels/nodeformat/pkg/buildinfo"
	"github.com/matzehuels/nodeformat/pkg/cache"
	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/graphio"
	"github.com/matzehuels/nodeformat/pkg/layout"
	"github.com/matzehuels/nodeformat/pkg/measure"
)

// appName is the application name used for directories and display.
const appName = "nodeformat"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Status receives spinner animations; it is the writer given to New.
	Status io.Writer

	configPath string
	trace      bool
	shutdown   func()
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Status: w}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nodeformat lays out node graphs",
		Long: `nodeformat arranges the nodes of visual node graphs (blueprints, shader graphs,
dataflow editors) around their execution flow, aligns parameter nodes with the
pins they feed, inserts knots to keep wires tidy and keeps groups around their
members.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.trace {
				return c.startTracing()
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.shutdown != nil {
				c.shutdown()
			}
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml)")
	root.PersistentFlags().BoolVar(&c.trace, "trace", false, "print trace spans to stderr")

	root.AddCommand(c.formatCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// startTracing installs telemetry hooks that export spans to stderr.
func (c *CLI) startTracing() error {
	stop, err := telemetry.Setup(os.Stderr, buildinfo.Version)
	if err != nil {
		return err
	}
	hooks, err := telemetry.New(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		return err
	}
	hooks.Install()
	c.shutdown = func() {
		if err := stop(context.Background()); err != nil {
			c.Logger.Warn("flush traces", "error", err)
		}
	}
	return nil
}

// loadConfig reads --config, or the defaults when it is unset.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config")
	}
	return cfg, nil
}

// workspace is a loaded graph ready to be formatted.
type workspace struct {
	graph  *graph.Graph
	sizes  *measure.Cache
	engine *layout.Engine
	cfg    config.Config
}

func (c *CLI) openWorkspace(path string, opts ...layout.EngineOption) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	g, sizes, err := graphio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.newWorkspace(cfg, g, sizes, opts...)
}

func (c *CLI) newWorkspace(cfg config.Config, g *graph.Graph, sizes *measure.Cache, opts ...layout.EngineOption) (*workspace, error) {
	opts = append([]layout.EngineOption{layout.WithLogger(c.Logger)}, opts...)
	engine, err := layout.NewEngine(cfg, sizes, opts...)
	if err != nil {
		return nil, err
	}
	return &workspace{graph: g, sizes: sizes, engine: engine, cfg: cfg}, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NullCache{}, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NullCache{}, nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the render cache directory, honoring XDG_CACHE_HOME.
func cacheDir() (string, error) {
	return cache.DefaultDir()
}
