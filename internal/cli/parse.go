package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/pkg/newick"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	output    string // output file path ("" means stdout)
	ladderize string // "", "asc", or "desc"
	reroot    string // leaf name to reroot at ("" keeps the root)
	stats     bool   // print summary statistics instead of Newick text
}

// newParseCmd creates the parse command for reading and normalizing trees.
// It decodes a Newick file, optionally ladderizes or reroots the tree, and
// writes the normalized Newick text back out.
func newParseCmd() *cobra.Command {
	var opts parseOpts

	cmd := &cobra.Command{
		Use:   "parse [file|-|store:name]",
		Short: "Parse and normalize a Newick tree",
		Long: `Parse reads a Newick tree from a file, stdin (-), or the tree store
(store:name), validates it, and writes the normalized Newick text.

The tree can be ladderized (children sorted by clade size) or rerooted at a
named leaf before encoding.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateLadderize(opts.ladderize); err != nil {
				return err
			}
			return runParse(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.ladderize, "ladderize", "", "sort children by clade size: asc or desc")
	cmd.Flags().StringVar(&opts.reroot, "reroot", "", "reroot the tree at the named leaf")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print tree statistics instead of Newick text")

	return cmd
}

// validateLadderize checks the --ladderize flag value.
func validateLadderize(s string) error {
	if s != "" && s != "asc" && s != "desc" {
		return fmt.Errorf("invalid ladderize order: %s (must be 'asc' or 'desc')", s)
	}
	return nil
}

// runParse loads a tree, applies the requested transformations, and writes
// the result.
func runParse(ctx context.Context, input string, opts *parseOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	root, _, err := loadTree(ctx, input)
	if err != nil {
		return err
	}
	leaves := tree.LeafCount(root)
	prog.done(fmt.Sprintf("Parsed %d leaves", leaves))

	root, err = applyTransforms(ctx, root, opts.ladderize, opts.reroot)
	if err != nil {
		return err
	}

	if opts.stats {
		printTreeStats(root)
		return nil
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write([]byte(newick.Encode(root) + "\n")); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote %s", opts.output)
	}
	return nil
}

// applyTransforms reroots and ladderizes a tree per the common CLI flags.
// Rerooting happens first so ladderizing orders the final topology.
func applyTransforms(ctx context.Context, root *tree.Node, ladderize, reroot string) (*tree.Node, error) {
	logger := loggerFromContext(ctx)

	if reroot != "" {
		logger.Debugf("Rerooting at %s", reroot)
		r, err := tree.Reroot(root, reroot)
		if err != nil {
			return nil, fmt.Errorf("reroot at %q: %w", reroot, err)
		}
		root = r
	}
	if ladderize != "" {
		logger.Debugf("Ladderizing (%s)", ladderize)
		tree.Ladderize(root, ladderize == "asc")
	}
	return root, nil
}

// printTreeStats prints a summary of the tree structure.
func printTreeStats(root *tree.Node) {
	var internal, maxDepth int
	depths := map[*tree.Node]int{root: 0}
	tree.Walk(root, func(n *tree.Node) bool {
		if n != root {
			depths[n] = depths[n.Parent()] + 1
		}
		if !n.IsLeaf() {
			internal++
		} else if depths[n] > maxDepth {
			maxDepth = depths[n]
		}
		return true
	})

	printKeyValue("Leaves", fmt.Sprintf("%d", tree.LeafCount(root)))
	printKeyValue("Internal", fmt.Sprintf("%d", internal))
	printKeyValue("Depth", fmt.Sprintf("%d", maxDepth))
	printKeyValue("Root splits", fmt.Sprintf("%d", root.ChildCount()))
}
