package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/pkg/newick"
)

// newViewCmd creates the view command for browsing a tree interactively.
func newViewCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "view [file|-|store:name]",
		Short: "Browse a tree interactively in the terminal",
		Long: `View opens an interactive terminal browser for a tree. Clades can be
collapsed and expanded, children swapped, and the whole tree ladderized.

When the tree was modified and --output is set, the edited tree is written
as Newick text on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the edited tree to this file on exit")

	return cmd
}

// runView loads a tree, runs the browser, and writes back modifications.
func runView(ctx context.Context, input, output string) error {
	root, _, err := loadTree(ctx, input)
	if err != nil {
		return err
	}

	model := NewTreeModel(root)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("run browser: %w", err)
	}

	result, ok := final.(TreeModel)
	if !ok || !result.Modified {
		return nil
	}

	if output == "" {
		printWarning("Tree was modified; pass --output to save changes")
		return nil
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write([]byte(newick.Encode(result.Root) + "\n")); err != nil {
		return err
	}
	printSuccess("Wrote %s", output)
	return nil
}
