package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/graphio"
	"github.com/matzehuels/nodeformat/pkg/layout"
)

// formatOpts holds the command-line flags for the format command.
type formatOpts struct {
	node    string // node whose subgraph is formatted; empty formats all
	pick    bool   // choose the subgraph interactively
	output  string // output file path
	inPlace bool   // overwrite the input file
}

// formatCommand creates the format command.
func (c *CLI) formatCommand() *cobra.Command {
	var opts formatOpts

	cmd := &cobra.Command{
		Use:   "format [graph.json]",
		Short: "Lay out the nodes of a graph document",
		Long: `Lay out the nodes of a graph document.

With --node, only the subgraph reachable from that node's root is moved. The
root is found by walking execution wires upstream to an event node. Without
--node every subgraph is formatted and arranged in a list or in columns, as
set by format_all_style.

Nodes without width and height are not moved; their subgraph is reported as
deferred.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFormat(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.node, "node", "n", "", "format the subgraph around this node")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the subgraph interactively")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.formatted.json)")
	cmd.Flags().BoolVarP(&opts.inPlace, "in-place", "i", false, "overwrite the input file")
	cmd.MarkFlagsMutuallyExclusive("node", "pick")
	cmd.MarkFlagsMutuallyExclusive("output", "in-place")

	return cmd
}

// runFormat loads the graph, formats it and writes the result.
func (c *CLI) runFormat(ctx context.Context, input string, opts formatOpts) error {
	ws, err := c.openWorkspace(input)
	if err != nil {
		return err
	}

	node := graph.NodeID(opts.node)
	if opts.pick {
		if node, err = pickRoot(ws.graph); err != nil {
			return err
		}
		if node == "" {
			printInfo("Nothing selected")
			return nil
		}
	}

	results, err := c.formatGraph(ctx, ws, node)
	if err != nil {
		return err
	}

	path := formatOutputPath(input, opts)
	if err := graphio.WriteFile(path, ws.graph, ws.sizes); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess("Format complete")
	printFile(path)
	printResults(results)
	for _, res := range results {
		if res.Status == layout.StatusDeferred {
			printWarning("%s deferred: %d node(s) have no size", res.Root, len(res.Missing))
		}
		for _, ig := range res.IgnoredGroups {
			printDetail("group %s ignored: %s", ig.ID, ig.Reason)
		}
	}
	printNewline()
	printNextStep("Render", appName+" render "+path)

	return nil
}

// formatGraph formats the subgraph around node, or every subgraph when node
// is empty, animating a spinner on c.Status while the engine runs.
func (c *CLI) formatGraph(ctx context.Context, ws *workspace, node graph.NodeID) ([]*layout.Result, error) {
	msg := "Formatting all subgraphs..."
	if node != "" {
		msg = fmt.Sprintf("Formatting around %s...", node)
	}
	prog := newProgress(loggerFromContext(ctx), "format")
	sp := startSpinner(ctx, c.Status, msg)

	var results []*layout.Result
	if node != "" {
		res, err := ws.engine.Format(ctx, ws.graph, node)
		if err != nil {
			sp.fail("Format failed")
			return nil, err
		}
		results = []*layout.Result{res}
	} else {
		batch, err := ws.engine.FormatAll(ctx, ws.graph)
		if err != nil {
			sp.fail("Format failed")
			return nil, err
		}
		results = batch.Results
	}
	sp.stop()

	prog.set("nodes", ws.graph.NodeCount())
	prog.results(results)
	prog.done()
	return results, nil
}

func formatOutputPath(input string, opts formatOpts) string {
	switch {
	case opts.inPlace:
		return input
	case opts.output != "":
		return opts.output
	default:
		return strings.TrimSuffix(input, filepath.Ext(input)) + ".formatted.json"
	}
}
