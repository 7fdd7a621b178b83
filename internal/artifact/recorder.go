// Package artifact records files as materials or products: it traverses
// root paths, hashes every regular file and returns a deterministic map
// from normalized path to digests.
package artifact

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/hashalg"
	"github.com/felixgeelhaar/linkrun/internal/log"
)

// Options tune a Recorder. The zero value records everything under its
// normalized path.
type Options struct {
	// ExcludePatterns are path.Match globs. A file or directory is skipped
	// when a pattern matches its normalized path or its base name.
	ExcludePatterns []string

	// LStripPaths are prefixes removed from recorded keys. A prefix only
	// matches whole leading path segments, and the first match wins.
	LStripPaths []string

	// Logger receives traversal diagnostics. Defaults to log.DefaultLogger().
	Logger *log.Logger
}

// Recorder records artifacts under a fixed set of options. A Recorder holds
// no state between calls.
type Recorder struct {
	opts   Options
	logger *log.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(opts Options) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Recorder{opts: opts, logger: logger}
}

// RecordArtifact hashes the file at p with every algorithm in algs in a
// single read and returns its normalized path and digests.
func RecordArtifact(p string, algs []hashalg.Algorithm) (VirtualTargetPath, TargetDescription, error) {
	vtp, err := NewVirtualTargetPath(p)
	if err != nil {
		return "", nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return "", nil, errors.NewOpenError(p, err)
	}
	defer f.Close()

	_, digests, err := hashalg.Calculate(bufio.NewReader(f), algs)
	if err != nil {
		return "", nil, errors.NewReadError(p, err)
	}
	return vtp, digests, nil
}

// RecordArtifacts validates hashNames, then records every regular file
// reachable from paths. An empty hashNames selects sha256.
func RecordArtifacts(paths []string, hashNames []string) (Map, error) {
	algs, err := hashalg.Select(hashNames)
	if err != nil {
		return nil, err
	}
	return NewRecorder(Options{}).Record(paths, algs)
}

// Record traverses every root in paths and merges the results. Each root
// gets its own symlink bookkeeping.
func (r *Recorder) Record(paths []string, algs []hashalg.Algorithm) (Map, error) {
	for _, pattern := range r.opts.ExcludePatterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPattern,
				fmt.Sprintf("invalid exclude pattern %q", pattern), err)
		}
	}

	artifacts := make(Map)
	origins := make(map[VirtualTargetPath]VirtualTargetPath)
	for _, root := range paths {
		w := &walker{
			recorder: r,
			algs:     algs,
			visited:  make(map[VirtualTargetPath]bool),
			record: func(key VirtualTargetPath, td TargetDescription) error {
				return r.insert(artifacts, origins, key, td)
			},
		}
		if err := w.walk(root); err != nil {
			return nil, err
		}
	}
	return artifacts, nil
}

func (r *Recorder) insert(artifacts Map, origins map[VirtualTargetPath]VirtualTargetPath, key VirtualTargetPath, td TargetDescription) error {
	stripped, err := r.strip(key)
	if err != nil {
		return err
	}
	if prev, ok := origins[stripped]; ok && prev != key {
		return errors.New(errors.ErrCodePathCollision,
			fmt.Sprintf("%s and %s both record as %s after stripping prefixes", prev, key, stripped)).
			WithPath(string(key)).
			WithSuggestion("Use a more specific lstrip prefix")
	}
	origins[stripped] = key
	artifacts[stripped] = td
	return nil
}

// strip removes the first prefix that covers whole leading segments of key
// and normalizes what is left.
func (r *Recorder) strip(key VirtualTargetPath) (VirtualTargetPath, error) {
	for _, prefix := range r.opts.LStripPaths {
		if prefix == "" {
			continue
		}
		prefix = path.Clean(prefix)

		rest, ok := strings.CutPrefix(string(key), prefix)
		if !ok {
			continue
		}
		if !strings.HasSuffix(prefix, "/") {
			if rest != "" && !strings.HasPrefix(rest, "/") {
				continue
			}
			rest = strings.TrimPrefix(rest, "/")
		}
		if rest == "" {
			return "", errors.New(errors.ErrCodeStripEmpty,
				fmt.Sprintf("lstrip prefix %q leaves nothing of %s", prefix, key)).
				WithPath(string(key)).
				WithSuggestion("Strip a parent directory of the recorded file instead")
		}
		return NewVirtualTargetPath(rest)
	}
	return key, nil
}

func (r *Recorder) excluded(key VirtualTargetPath) bool {
	for _, pattern := range r.opts.ExcludePatterns {
		if ok, _ := path.Match(pattern, string(key)); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(string(key))); ok {
			return true
		}
	}
	return false
}
