package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/pkg/distance"
	"github.com/phylotangle/phylotangle/pkg/tree"
)

// newDistanceCmd creates the distance command for comparing tree topologies.
func newDistanceCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "distance [fileA] [fileB]",
		Short: "Compute the Robinson-Foulds distance between two trees",
		Long: `Distance compares the topologies of two trees over the same leaf set and
prints their Robinson-Foulds distance: the number of bipartitions present in
one tree but not the other. Identical topologies score 0.

Both trees must contain exactly the same leaf names.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistance(cmd.Context(), args[0], args[1], quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the numeric distance")

	return cmd
}

// runDistance loads both trees and prints their topological distance.
func runDistance(ctx context.Context, inputA, inputB string, quiet bool) error {
	a, _, err := loadTree(ctx, inputA)
	if err != nil {
		return err
	}
	b, _, err := loadTree(ctx, inputB)
	if err != nil {
		return err
	}

	d, err := distance.RobinsonFoulds(a, b)
	if err != nil {
		return err
	}

	if quiet {
		fmt.Println(d)
		return nil
	}

	printKeyValue("Leaves", fmt.Sprintf("%d", tree.LeafCount(a)))
	printKeyValue("Distance", fmt.Sprintf("%d", d))
	if d == 0 {
		printDetail("identical topologies")
	}
	return nil
}
