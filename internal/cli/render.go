package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/pkg/cache"
	"github.com/phylotangle/phylotangle/pkg/layout"
	"github.com/phylotangle/phylotangle/pkg/render"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

const (
	vizPhylo    = "phylo"    // rectangular phylogram
	vizNodelink = "nodelink" // graphviz node-link diagram
)

// renderOpts holds the command-line flags for the render command.
// These options control the layout frame, orientation, decorations, and
// output formats.
type renderOpts struct {
	output    string   // output file path (or base path for multiple outputs)
	vizTypes  []string // visualization types: "phylo", "nodelink"
	formats   []string // output formats: "svg", "pdf", "png", "json"
	width     float64  // viewport width in pixels
	height    float64  // viewport height in pixels
	margin    float64  // frame margin in pixels
	right     bool     // grow the tree leftwards from a right-hand root
	noLabels  bool     // suppress leaf labels
	bootstrap bool     // draw bootstrap values at internal nodes
	ladderize string   // "", "asc", or "desc"
	reroot    string   // leaf name to reroot at
	noCache   bool     // bypass the layout cache
}

// newRenderCmd creates the render command for generating tree visualizations.
// It supports two visualization types (phylo, nodelink) and four output
// formats (SVG, PDF, PNG, JSON).
//
// Default settings come from the configuration file:
//   - width: 1024px, height: 640px, margin: 24px
//   - orientation: left-hand root, tree grows rightwards
//   - labels: on, bootstrap values: off
func newRenderCmd() *cobra.Command {
	var vizTypesStr, formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file|-|store:name]",
		Short: "Render a tree as a phylogram or node-link diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.vizTypes = parseVizTypes(vizTypesStr)
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if err := validateLadderize(opts.ladderize); err != nil {
				return err
			}
			applyFrameDefaults(cmd.Context(), &opts)
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single type/format) or base path (multiple)")
	cmd.Flags().StringVarP(&vizTypesStr, "type", "t", "", "visualization type(s): phylo (default), nodelink (comma-separated)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "frame width (default from config)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "frame height (default from config)")
	cmd.Flags().Float64Var(&opts.margin, "margin", 0, "frame margin (default from config)")
	cmd.Flags().BoolVar(&opts.right, "right", false, "place the root on the right-hand side")
	cmd.Flags().BoolVar(&opts.noLabels, "no-labels", false, "suppress leaf labels")
	cmd.Flags().BoolVar(&opts.bootstrap, "bootstrap", false, "draw bootstrap values at internal nodes")
	cmd.Flags().StringVar(&opts.ladderize, "ladderize", "", "sort children by clade size: asc or desc")
	cmd.Flags().StringVar(&opts.reroot, "reroot", "", "reroot the tree at the named leaf")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the layout cache")

	return cmd
}

// applyFrameDefaults fills unset frame flags from the configuration.
func applyFrameDefaults(ctx context.Context, opts *renderOpts) {
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
}

// parseVizTypes parses the --type flag into a slice of visualization types.
// If empty, defaults to ["phylo"].
func parseVizTypes(s string) []string {
	if s == "" {
		return []string{vizPhylo}
	}
	return strings.Split(s, ",")
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{"svg": true, "json": true, "pdf": true, "png": true}

// validateFormats checks that all requested formats are valid.
// It returns an error if any format is not in validFormats.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'json', 'pdf', or 'png')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
// This is used when generating multiple files (e.g., tree_phylo.svg, tree_nodelink.svg).
func basePath(output, input string) string {
	if output == "" {
		input = strings.TrimPrefix(input, "store:")
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Strip known format extensions from output path
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// renderJob carries the decoded tree and shared state through the render
// pipeline so each type/format combination can reuse them.
type renderJob struct {
	root  *tree.Node
	text  string // original Newick text, the cache identity of the tree
	cache cache.Cache
	keyer cache.Keyer
}

// runRender loads the tree from input, applies the requested transformations,
// and renders it to the requested formats.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)

	root, text, err := loadTree(ctx, input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded tree: %d leaves", tree.LeafCount(root))

	root, err = applyTransforms(ctx, root, opts.ladderize, opts.reroot)
	if err != nil {
		return err
	}

	job := &renderJob{root: root, text: text, cache: cache.NewNullCache(), keyer: cache.NewDefaultKeyer()}
	if !opts.noCache {
		c, err := cacheFromConfig(ctx, configFromContext(ctx))
		if err != nil {
			logger.Warnf("Cache unavailable, rendering fresh: %v", err)
		} else {
			job.cache = c
			defer job.cache.Close()
		}
	}

	if len(opts.vizTypes) == 1 && len(opts.formats) == 1 {
		return renderSingle(ctx, job, opts.vizTypes[0], opts.formats[0], input, opts)
	}
	return renderMultiple(ctx, job, input, opts)
}

// renderSingle renders a single visualization type and format to a single output file.
// If opts.output is empty, the output path is derived from the input file name.
func renderSingle(ctx context.Context, job *renderJob, vizType, format string, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	data, err := renderTree(ctx, job, vizType, format, opts)
	if err != nil {
		return err
	}
	logger.Debugf("Generated %s: %d bytes", format, len(data))

	// Determine output path: use provided output or derive from input
	outputPath := opts.output
	if outputPath == "" {
		outputPath = basePath("", input) + "." + format
	}

	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = out.Write(data); err != nil {
		return err
	}

	logger.Infof("Generated %s", outputPath)
	return nil
}

// renderMultiple renders all requested visualization type/format combinations to separate files.
// File names are derived from basePath and include the visualization type when multiple types are requested.
func renderMultiple(ctx context.Context, job *renderJob, input string, opts *renderOpts) error {
	base := basePath(opts.output, input)

	for _, vizType := range opts.vizTypes {
		for _, format := range opts.formats {
			if err := renderAndWrite(ctx, job, vizType, format, base, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderAndWrite renders a single viz/format combination and writes it to a file.
// If the combination is unsupported (e.g., nodelink JSON), it is silently skipped with a debug log.
func renderAndWrite(ctx context.Context, job *renderJob, vizType, format, basePath string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	data, err := renderTree(ctx, job, vizType, format, opts)
	if errors.Is(err, errSkipFormat) {
		logger.Debugf("Skipping %s/%s (unsupported combination)", vizType, format)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s/%s: %w", vizType, format, err)
	}

	// Build filename: base_type.format (or base.format if single type)
	var path string
	if len(opts.vizTypes) == 1 {
		path = fmt.Sprintf("%s.%s", basePath, format)
	} else {
		path = fmt.Sprintf("%s_%s.%s", basePath, vizType, format)
	}

	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return err
	}

	logger.Infof("Generated %s", path)
	return nil
}

// errSkipFormat is a sentinel error indicating an unsupported format/visualization combination.
var errSkipFormat = fmt.Errorf("skip unsupported format")

// renderTree dispatches to the appropriate renderer based on vizType.
// It returns errSkipFormat for unsupported combinations (e.g., nodelink JSON).
func renderTree(ctx context.Context, job *renderJob, vizType, format string, opts *renderOpts) ([]byte, error) {
	switch vizType {
	case vizNodelink:
		return renderNodeLink(ctx, job, format, opts)
	case vizPhylo:
		return renderPhylogram(ctx, job, format, opts)
	default:
		return nil, fmt.Errorf("unknown visualization type: %s", vizType)
	}
}

// renderNodeLink generates a node-link diagram using Graphviz.
// It supports SVG, PDF, and PNG formats. JSON is not supported (returns errSkipFormat).
func renderNodeLink(ctx context.Context, job *renderJob, format string, opts *renderOpts) ([]byte, error) {
	logger := loggerFromContext(ctx)
	logger.Info("Generating node-link diagram")
	dot := render.ToDOT(job.root, render.DOTOptions{Lengths: true, Bootstrap: opts.bootstrap})

	switch format {
	case "svg":
		logger.Info("Rendering node-link SVG")
		return render.RenderDOTSVG(ctx, dot)
	case "pdf":
		logger.Info("Rendering node-link PDF")
		return render.RenderDOTPDF(ctx, dot)
	case "png":
		logger.Info("Rendering node-link PNG")
		return render.RenderDOTPNG(ctx, dot, 2.0)
	case "json":
		return nil, errSkipFormat // JSON layout export only makes sense for phylograms
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// renderPhylogram computes the rectangular layout and renders it to the
// requested format. SVG-derived formats (svg, pdf, png) and the JSON layout
// export are cached under a content key of the tree text and all options.
func renderPhylogram(ctx context.Context, job *renderJob, format string, opts *renderOpts) ([]byte, error) {
	logger := loggerFromContext(ctx)

	key := phylogramKey(job, format, opts)
	if data, hit, err := job.cache.Get(ctx, key); err == nil && hit {
		logger.Debugf("Cache hit for %s", format)
		return data, nil
	}

	orient := layout.Left
	if opts.right {
		orient = layout.Right
	}

	g, err := layout.Snapshot(job.root)
	if err != nil {
		return nil, err
	}
	if err := layout.Build(g, opts.width, opts.height, opts.margin, orient); err != nil {
		return nil, err
	}
	logger.Debugf("Layout computed: %d tips", len(g.Tips()))

	var data []byte
	switch format {
	case "json":
		logger.Info("Rendering layout as JSON")
		data, err = render.RenderJSON(g, opts.width, opts.height)
	case "svg":
		logger.Info("Rendering phylogram SVG")
		data = render.RenderSVG(g, opts.width, opts.height, svgOptions(opts)...)
	case "pdf":
		logger.Info("Rendering phylogram PDF")
		data, err = convertWithSpinner(ctx, "Converting to PDF", func() ([]byte, error) {
			return render.ToPDF(render.RenderSVG(g, opts.width, opts.height, svgOptions(opts)...))
		})
	case "png":
		logger.Info("Rendering phylogram PNG")
		data, err = convertWithSpinner(ctx, "Converting to PNG", func() ([]byte, error) {
			return render.ToPNG(render.RenderSVG(g, opts.width, opts.height, svgOptions(opts)...), 2.0)
		})
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	if err := job.cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		logger.Debugf("Cache write failed: %v", err)
	}
	return data, nil
}

// phylogramKey builds the artifact cache key for a phylogram render.
func phylogramKey(job *renderJob, format string, opts *renderOpts) string {
	orientation := "left"
	if opts.right {
		orientation = "right"
	}
	layoutKey := job.keyer.LayoutKey(job.keyer.TreeKey(job.text), cache.LayoutKeyOpts{
		Width:       opts.width,
		Height:      opts.height,
		Margin:      opts.margin,
		Orientation: orientation,
		Ladderize:   opts.ladderize,
	})
	return job.keyer.ArtifactKey(layoutKey, cache.ArtifactKeyOpts{
		Format:    format,
		Labels:    !opts.noLabels,
		Bootstrap: opts.bootstrap,
	})
}

// convertWithSpinner runs a format conversion behind a progress spinner.
// Conversions shell out to rsvg-convert, which can take a while on large
// trees.
func convertWithSpinner(ctx context.Context, message string, convert func() ([]byte, error)) ([]byte, error) {
	sp := newSpinnerWithContext(ctx, message)
	sp.Start()
	data, err := convert()
	sp.Stop()
	return data, err
}

// svgOptions translates CLI flags into SVG render options.
func svgOptions(opts *renderOpts) []render.SVGOption {
	var result []render.SVGOption
	if opts.noLabels {
		result = append(result, render.WithoutLabels())
	}
	if opts.bootstrap {
		result = append(result, render.WithBootstrap())
	}
	return result
}
