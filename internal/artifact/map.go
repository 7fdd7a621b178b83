package artifact

import (
	"sort"

	"github.com/felixgeelhaar/linkrun/internal/hashalg"
)

// TargetDescription holds every digest computed for one artifact.
type TargetDescription = hashalg.Digests

// Map is the set of recorded artifacts keyed by normalized path. The JSON,
// YAML and deterministic CBOR encoders all emit string map keys in sorted
// order, so equal maps always encode identically.
type Map map[VirtualTargetPath]TargetDescription

// Paths returns the keys in sorted order.
func (m Map) Paths() []VirtualTargetPath {
	paths := make([]VirtualTargetPath, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })
	return paths
}

// Equal reports whether both maps record the same paths with the same digests.
func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for p, td := range m {
		otd, ok := other[p]
		if !ok || !td.Equal(otd) {
			return false
		}
	}
	return true
}

// Diff compares m (before) with other (after). It returns the paths that
// appear only in other, the paths that appear only in m, and the paths whose
// digests changed. Each list is sorted.
func (m Map) Diff(other Map) (added, removed, modified []VirtualTargetPath) {
	for _, p := range other.Paths() {
		td, ok := m[p]
		switch {
		case !ok:
			added = append(added, p)
		case !td.Equal(other[p]):
			modified = append(modified, p)
		}
	}
	for _, p := range m.Paths() {
		if _, ok := other[p]; !ok {
			removed = append(removed, p)
		}
	}
	return added, removed, modified
}
