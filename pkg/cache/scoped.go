package cache

// ScopedKeyer prefixes every key of an inner [Keyer], so several tenants or
// deployments can share one cache backend.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix to inner's keys. A nil
// inner uses [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey implements [Keyer].
func (k *ScopedKeyer) LayoutKey(configHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(configHash, opts)
}

// ArtifactKey implements [Keyer].
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
