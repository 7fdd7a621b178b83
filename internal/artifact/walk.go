package artifact

import (
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/hashalg"
)

// node is one pending entry of the traversal worklist. ancestors holds the
// directories on the way down from the root, so a symlink that points back
// at one of them can be recognized.
type node struct {
	path      string
	ancestors []os.FileInfo
}

// walker traverses a single root, following symlinks. It is discarded when
// the root is done.
type walker struct {
	recorder *Recorder
	algs     []hashalg.Algorithm
	visited  map[VirtualTargetPath]bool
	record   func(VirtualTargetPath, TargetDescription) error
}

func (w *walker) walk(root string) error {
	stack := []node{{path: root}}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := w.visit(n)
		if err != nil {
			return err
		}
		// Reverse push keeps the visiting order lexical.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

// visit handles one entry and returns the entries to descend into.
func (w *walker) visit(n node) ([]node, error) {
	key, err := NewVirtualTargetPath(n.path)
	if err != nil {
		return nil, err
	}
	if w.recorder.excluded(key) {
		w.recorder.logger.Debug("excluded", "path", key)
		return nil, nil
	}

	linfo, err := os.Lstat(n.path)
	if err != nil {
		return nil, errors.NewTraverseError(n.path, err)
	}

	switch {
	case linfo.Mode()&os.ModeSymlink != 0:
		return w.visitSymlink(n, key)
	case linfo.Mode().IsRegular():
		return nil, w.hash(n.path)
	case linfo.IsDir():
		return w.children(n, linfo)
	default:
		// Devices, sockets and pipes carry no content worth recording.
		return nil, nil
	}
}

func (w *walker) visitSymlink(n node, key VirtualTargetPath) ([]node, error) {
	info, err := os.Stat(n.path)
	if err != nil {
		return nil, errors.NewTraverseError(n.path, err)
	}

	if info.Mode().IsRegular() {
		return nil, w.hash(n.path)
	}
	if !info.IsDir() {
		return nil, nil
	}

	for _, ancestor := range n.ancestors {
		if os.SameFile(info, ancestor) {
			w.recorder.logger.Debug("symlink cycle detected, skipping", "path", key)
			return nil, nil
		}
	}

	resolved, err := filepath.EvalSymlinks(n.path)
	if err != nil {
		return nil, errors.NewTraverseError(n.path, err)
	}
	target, err := NewVirtualTargetPath(resolved)
	if err != nil {
		return nil, err
	}
	if w.visited[target] {
		w.recorder.logger.Debug("symlink target already visited, skipping", "path", key, "target", target)
		return nil, nil
	}
	w.visited[target] = true

	return w.children(n, info)
}

func (w *walker) children(n node, info os.FileInfo) ([]node, error) {
	entries, err := os.ReadDir(n.path)
	if err != nil {
		return nil, errors.NewTraverseError(n.path, err)
	}

	ancestors := make([]os.FileInfo, len(n.ancestors), len(n.ancestors)+1)
	copy(ancestors, n.ancestors)
	ancestors = append(ancestors, info)

	nodes := make([]node, 0, len(entries))
	for _, entry := range entries {
		nodes = append(nodes, node{
			path:      filepath.Join(n.path, entry.Name()),
			ancestors: ancestors,
		})
	}
	return nodes, nil
}

func (w *walker) hash(p string) error {
	key, td, err := RecordArtifact(p, w.algs)
	if err != nil {
		return err
	}
	return w.record(key, td)
}
