package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/pkg/store"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

// newTreesCmd creates the trees command group for the named tree store.
func newTreesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trees",
		Short: "Manage the named tree store",
		Long: `Trees manages a local store of named Newick trees. Stored trees can be
referenced from other commands as store:name.`,
	}

	cmd.AddCommand(newTreesSaveCmd())
	cmd.AddCommand(newTreesShowCmd())
	cmd.AddCommand(newTreesListCmd())
	cmd.AddCommand(newTreesRemoveCmd())

	return cmd
}

// newTreesSaveCmd creates the "trees save" subcommand.
func newTreesSaveCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "save [name] [file|-]",
		Short: "Save a tree under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTreesSave(cmd.Context(), args[0], args[1], overwrite)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing tree with the same name")

	return cmd
}

// runTreesSave validates and stores a tree under the given name.
func runTreesSave(ctx context.Context, name, input string, overwrite bool) error {
	root, text, err := loadTree(ctx, input)
	if err != nil {
		return err
	}

	st, err := storeFromConfig(ctx, configFromContext(ctx))
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	now := time.Now().UTC()
	entry := store.Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Newick:    text,
		Leaves:    tree.LeafCount(root),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.Save(ctx, entry, overwrite); err != nil {
		return err
	}

	printSuccess("Saved %s (%d leaves)", name, entry.Leaves)
	printNextStep("Render it", fmt.Sprintf("phylotangle render store:%s", name))
	return nil
}

// newTreesShowCmd creates the "trees show" subcommand.
func newTreesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a stored tree as Newick text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := storeFromConfig(ctx, configFromContext(ctx))
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			entry, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(entry.Newick)
			return nil
		},
	}
}

// newTreesListCmd creates the "trees list" subcommand.
func newTreesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := storeFromConfig(ctx, configFromContext(ctx))
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			entries, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No stored trees")
				return nil
			}
			printTreeTable(entries)
			return nil
		},
	}
}

// printTreeTable renders stored trees as a bordered table.
func printTreeTable(entries []store.Entry) {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name,
			fmt.Sprintf("%d", e.Leaves),
			formatRelativeTime(e.UpdatedAt),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Leaves", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	fmt.Println(t.Render())
}

// newTreesRemoveCmd creates the "trees rm" subcommand.
func newTreesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [name]",
		Short: "Remove a stored tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := storeFromConfig(ctx, configFromContext(ctx))
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Removed %s", args[0])
			return nil
		},
	}
}

// formatRelativeTime renders t relative to now for recent times and as a
// date for older ones.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
