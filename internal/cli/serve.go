package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeformat/internal/server"
	"github.com/matzehuels/nodeformat/pkg/cache"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		cacheSize int
		cacheTTL  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout engine over HTTP",
		Long: `Serve the layout engine over HTTP.

Endpoints:
  GET  /healthz         liveness and build information
  POST /v1/format       format the subgraph around a node
  POST /v1/format-all   format every subgraph
  POST /v1/render       format and draw as SVG, PNG or DOT

Rendered output is kept in an in-memory cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			srv := server.New(cfg,
				server.WithLogger(logger),
				server.WithCache(cache.NewMemoryCache(cacheSize), cacheTTL),
			)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 256, "rendered outputs kept in memory")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", time.Hour, "how long rendered outputs stay cached")

	return cmd
}
