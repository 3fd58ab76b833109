package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/pkg/distance"
	"github.com/phylotangle/phylotangle/pkg/layout"
	"github.com/phylotangle/phylotangle/pkg/render"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

// tangleOpts holds the command-line flags for the tangle command.
type tangleOpts struct {
	output    string
	format    string // "svg" or "json"
	width     float64
	height    float64
	margin    float64
	ladderize string
	noLabels  bool
}

// newTangleCmd creates the tangle command for rendering tanglegrams.
// A tanglegram draws two trees face to face and connects leaves that share
// a name, making topology differences visible at a glance.
func newTangleCmd() *cobra.Command {
	var opts tangleOpts

	cmd := &cobra.Command{
		Use:   "tangle [fileA] [fileB]",
		Short: "Render a tanglegram comparing two trees",
		Long: `Tangle lays out two trees face to face, the left tree growing rightwards
and the right tree growing leftwards, and connects equally-named leaves with
curves. Leaves present in only one tree get no connector.

When both trees share a full leaf set, the Robinson-Foulds distance is
reported alongside the output.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "svg" && opts.format != "json" {
				return fmt.Errorf("invalid format: %s (must be 'svg' or 'json')", opts.format)
			}
			if err := validateLadderize(opts.ladderize); err != nil {
				return err
			}
			return runTangle(cmd.Context(), args[0], args[1], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg or json")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "frame width (default from config)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "frame height (default from config)")
	cmd.Flags().Float64Var(&opts.margin, "margin", 0, "frame margin (default from config)")
	cmd.Flags().StringVar(&opts.ladderize, "ladderize", "", "sort children by clade size: asc or desc")
	cmd.Flags().BoolVar(&opts.noLabels, "no-labels", false, "suppress leaf labels")

	return cmd
}

// runTangle loads both trees, builds the dual layout, and writes the result.
func runTangle(ctx context.Context, inputA, inputB string, opts *tangleOpts) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)
	if opts.width <= 0 {
		opts.width = cfg.Render.Width
	}
	if opts.height <= 0 {
		opts.height = cfg.Render.Height
	}
	if opts.margin <= 0 {
		opts.margin = cfg.Render.Margin
	}

	a, _, err := loadTree(ctx, inputA)
	if err != nil {
		return err
	}
	b, _, err := loadTree(ctx, inputB)
	if err != nil {
		return err
	}
	logger.Infof("Loaded trees: %d and %d leaves", tree.LeafCount(a), tree.LeafCount(b))

	if opts.ladderize != "" {
		tree.Ladderize(a, opts.ladderize == "asc")
		tree.Ladderize(b, opts.ladderize == "asc")
	}

	reportDistance(ctx, a, b)

	prog := newProgress(logger)
	t, err := layout.BuildTanglegram(a, b, opts.width, opts.height, opts.margin)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Laid out tanglegram with %d connectors", len(t.Connectors)))

	var data []byte
	switch opts.format {
	case "json":
		data, err = render.RenderTanglegramJSON(t)
		if err != nil {
			return err
		}
	case "svg":
		var svgOpts []render.SVGOption
		if opts.noLabels {
			svgOpts = append(svgOpts, render.WithoutLabels())
		}
		data = render.RenderTanglegramSVG(t, svgOpts...)
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote %s", opts.output)
	}
	return nil
}

// reportDistance logs the Robinson-Foulds distance when the trees are
// comparable. Mismatched leaf sets are fine for a tanglegram, so the
// mismatch is reported as information rather than an error.
func reportDistance(ctx context.Context, a, b *tree.Node) {
	logger := loggerFromContext(ctx)
	d, err := distance.RobinsonFoulds(a, b)
	switch {
	case err == nil:
		logger.Infof("Robinson-Foulds distance: %d", d)
	case errors.Is(err, distance.ErrLeafSetMismatch):
		logger.Info("Trees have different leaf sets, skipping distance")
	default:
		logger.Debugf("Distance unavailable: %v", err)
	}
}
