package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The HTTP service uses this to keep per-deployment caches from
// colliding when they share one Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TreeKey generates a prefixed key for a Newick tree text.
func (k *ScopedKeyer) TreeKey(newick string) string {
	return k.prefix + k.inner.TreeKey(newick)
}

// LayoutKey generates a prefixed key for a computed layout.
func (k *ScopedKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(treeHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
