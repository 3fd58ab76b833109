// Package distance implements topological distance metrics between
// phylogenetic trees sharing a leaf set.
package distance

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/phylotangle/phylotangle/pkg/tree"
)

// ErrLeafSetMismatch is returned by [RobinsonFoulds] when the two trees
// do not carry the same set of leaf names. The metric is meaningless
// across different leaf sets, so the comparison fails fast instead of
// returning a bogus number.
var ErrLeafSetMismatch = errors.New("trees do not share a leaf set")

// RobinsonFoulds returns the Robinson-Foulds distance between two
// rooted trees over the same leaf-name set.
//
// Every internal node except the root induces a bipartition of the leaf
// set, identified here by the sorted, concatenated names of its
// descendant leaves. The distance is the size of the symmetric
// difference of the two bipartition sets. For fully resolved trees both
// one-sided counts are equal, so the distance is twice either of them.
//
// Multifurcating nodes contribute one bipartition each, the same as
// bifurcating ones. A star tree has no bipartitions at all and its
// distance to any tree is that tree's bipartition count.
func RobinsonFoulds(a, b *tree.Node) (int, error) {
	if err := checkLeafSets(a, b); err != nil {
		return 0, err
	}

	splitsA := bipartitions(a)
	splitsB := bipartitions(b)

	missing := 0
	for key := range splitsA {
		if _, ok := splitsB[key]; !ok {
			missing++
		}
	}
	for key := range splitsB {
		if _, ok := splitsA[key]; !ok {
			missing++
		}
	}
	return missing, nil
}

// bipartitions returns the canonical bipartition keys induced by every
// internal node below the root. The root spans all leaves and carries
// no information; leaves induce only trivial splits. Both are skipped.
func bipartitions(root *tree.Node) map[string]struct{} {
	splits := make(map[string]struct{})
	tree.Walk(root, func(n *tree.Node) bool {
		if n == root || n.IsLeaf() {
			return true
		}
		splits[splitKey(n)] = struct{}{}
		return true
	})
	return splits
}

// splitKey canonicalizes the leaf set below n into a single string:
// names sorted lexicographically and joined. The joiner cannot appear
// in Newick names, so keys collide only for equal leaf sets.
func splitKey(n *tree.Node) string {
	names := tree.LeafNames(n)
	slices.Sort(names)
	return strings.Join(names, ",")
}

func checkLeafSets(a, b *tree.Node) error {
	namesA := tree.LeafNames(a)
	namesB := tree.LeafNames(b)
	if len(namesA) != len(namesB) {
		return fmt.Errorf("%w: %d leaves vs %d leaves", ErrLeafSetMismatch, len(namesA), len(namesB))
	}
	slices.Sort(namesA)
	slices.Sort(namesB)
	for i := range namesA {
		if namesA[i] != namesB[i] {
			return fmt.Errorf("%w: %q vs %q", ErrLeafSetMismatch, namesA[i], namesB[i])
		}
	}
	return nil
}
