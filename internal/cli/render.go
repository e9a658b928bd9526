package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeformat/pkg/cache"
	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/graphio"
	"github.com/matzehuels/nodeformat/pkg/layout"
	"github.com/matzehuels/nodeformat/pkg/render"
)

const (
	rendererNative   = "native"   // built-in SVG writer
	rendererGraphviz = "graphviz" // Graphviz via go-graphviz
	renderCacheTTL   = 7 * 24 * time.Hour
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file path
	format   string // svg, png or dot
	renderer string // native or graphviz
	node     string // format only this node's subgraph
	noFormat bool   // draw the graph as stored
	unpinned bool   // let Graphviz place the nodes
	detailed bool   // node kind, type and metadata in Graphviz labels
	noCache  bool   // bypass the render cache
}

// validFormats maps each output format to the renderers that can produce it.
var validFormats = map[string][]string{
	"svg": {rendererNative, rendererGraphviz},
	"png": {rendererGraphviz},
	"dot": {rendererNative, rendererGraphviz},
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: "svg", renderer: rendererNative}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Format a graph document and draw it",
		Long: `Format a graph document and draw it.

The native renderer writes SVG directly at the formatted positions, including
the debug overlay when debug is enabled in the config. The graphviz renderer
pins every node at its formatted position and lets Graphviz route the edges;
with --unpinned Graphviz also places the nodes, which is useful to compare
layouts. PNG output needs the graphviz renderer.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRenderOpts(opts); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, png, dot")
	cmd.Flags().StringVarP(&opts.renderer, "renderer", "r", opts.renderer, "renderer: native, graphviz")
	cmd.Flags().StringVarP(&opts.node, "node", "n", "", "format only the subgraph around this node")
	cmd.Flags().BoolVar(&opts.noFormat, "no-format", false, "draw the stored positions without formatting")
	cmd.Flags().BoolVar(&opts.unpinned, "unpinned", false, "let Graphviz place the nodes")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node kind, type and metadata (graphviz, dot)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// validateRenderOpts checks that the format and renderer combine.
func validateRenderOpts(opts renderOpts) error {
	renderers, ok := validFormats[opts.format]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %s (must be 'svg', 'png' or 'dot')", opts.format)
	}
	if opts.renderer != rendererNative && opts.renderer != rendererGraphviz {
		return errors.New(errors.ErrCodeInvalidInput, "invalid renderer: %s (must be 'native' or 'graphviz')", opts.renderer)
	}
	for _, r := range renderers {
		if r == opts.renderer {
			return nil
		}
	}
	return errors.New(errors.ErrCodeUnsupported, "%s output needs the %s renderer", opts.format, strings.Join(renderers, " or "))
}

// runRender formats the graph, draws it and writes the output file.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	prog := newProgress(loggerFromContext(ctx), "render")
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", input)
		}
		return err
	}

	store, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	key, err := cache.Key("render", cfg, raw, opts.format, opts.renderer, opts.node, opts.noFormat, opts.unpinned, opts.detailed)
	if err != nil {
		return err
	}
	path := renderOutputPath(input, opts)

	var nodes, links int
	data, cached, err := store.Get(ctx, key)
	if err != nil || !cached {
		g, sizes, err := graphio.Read(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		rec := &render.Recorder{}
		ws, err := c.newWorkspace(cfg, g, sizes, layout.WithDrawer(rec))
		if err != nil {
			return err
		}
		if data, err = c.renderWorkspace(ctx, ws, rec, opts); err != nil {
			return err
		}
		nodes, links = g.NodeCount(), g.LinkCount()
		if err := store.Set(ctx, key, data, renderCacheTTL); err != nil {
			c.Logger.Warn("cache write failed", "error", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	prog.set("format", opts.format)
	prog.set("bytes", len(data))
	prog.set("cached", cached)
	prog.done()

	printSuccess("Render complete")
	printFile(path)
	printStats(nodes, links, cached)
	return nil
}

func (c *CLI) renderWorkspace(ctx context.Context, ws *workspace, rec *render.Recorder, opts renderOpts) ([]byte, error) {
	if !opts.noFormat {
		results, err := c.formatGraph(ctx, ws, graph.NodeID(opts.node))
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			if res.Status == layout.StatusDeferred {
				printWarning("%s deferred: %d node(s) have no size", res.Root, len(res.Missing))
			}
		}
	}

	dotOpts := render.DOTOptions{Pinned: !opts.unpinned, Detailed: opts.detailed}
	switch {
	case opts.format == "dot":
		return []byte(render.ToDOT(ws.graph, ws.sizes, dotOpts)), nil
	case opts.renderer == rendererNative:
		return render.RenderSVG(ws.graph, ws.sizes, render.WithOverlay(rec.Shapes())), nil
	}

	sp := startSpinner(ctx, c.Status, fmt.Sprintf("Rendering %s with Graphviz...", opts.format))
	data, err := render.RenderGraphviz(ctx, render.ToDOT(ws.graph, ws.sizes, dotOpts), render.Format(opts.format), dotOpts.Pinned)
	if err != nil {
		sp.fail("Render failed")
		return nil, err
	}
	sp.stop()
	return data, nil
}

func renderOutputPath(input string, opts renderOpts) string {
	if opts.output != "" {
		return opts.output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
}
