package artifact

import (
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/linkrun/internal/errors"
)

// VirtualTargetPath is a normalized, slash-separated path used as a stable
// map key for an artifact. "./a/b", "a//b" and "a/b/" all normalize to
// "a/b".
type VirtualTargetPath string

// NewVirtualTargetPath validates and normalizes p.
func NewVirtualTargetPath(p string) (VirtualTargetPath, error) {
	if !utf8.ValidString(p) {
		return "", errors.NewNonUTF8PathError(p)
	}
	if p == "" {
		return "", errors.NewInvalidPathError(p, "empty path")
	}
	if strings.ContainsRune(p, 0) {
		return "", errors.NewInvalidPathError(p, "contains NUL byte")
	}
	return VirtualTargetPath(path.Clean(filepath.ToSlash(p))), nil
}

// String returns the normalized path
func (v VirtualTargetPath) String() string {
	return string(v)
}

// Less orders paths lexically by their normalized form.
func (v VirtualTargetPath) Less(other VirtualTargetPath) bool {
	return v < other
}
