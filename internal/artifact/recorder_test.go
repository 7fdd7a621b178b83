package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/hashalg"
	"github.com/felixgeelhaar/linkrun/internal/log"
)

const (
	sha256Foo   = "b5bb9d8014a0f9b1d61e21e796d78dccdf1352f23cd32812f4850b878ae4944c" // "foo\n"
	sha256Bar   = "7d865e959b2466918c9863afca942d0fb89d7c9ac0c99bafc3749504ded97730" // "bar\n"
	sha256World = "a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447" // "hello world\n"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func symlink(t *testing.T, target, link string) {
	t.Helper()
	require.NoError(t, os.Symlink(target, link))
}

// buildTree creates:
//
//	root/.hidden/foo                                   "bar\n"
//	root/.hidden/.bar                                  "foo\n"
//	root/hello./world                                  "hello world\n"
//	root/hello./symbolic_to_nonparent_folder -> ../.hidden
//	root/hello./symbolic_to_parent_folder    -> ..
//	root/symbolic_to_file                    -> hello./world
//	root/symbolic_to_self                    -> .
func buildTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "test_runlib")

	writeFile(t, filepath.Join(root, ".hidden", "foo"), "bar\n")
	writeFile(t, filepath.Join(root, ".hidden", ".bar"), "foo\n")
	writeFile(t, filepath.Join(root, "hello.", "world"), "hello world\n")
	symlink(t, filepath.Join("..", ".hidden"), filepath.Join(root, "hello.", "symbolic_to_nonparent_folder"))
	symlink(t, "..", filepath.Join(root, "hello.", "symbolic_to_parent_folder"))
	symlink(t, filepath.Join("hello.", "world"), filepath.Join(root, "symbolic_to_file"))
	symlink(t, ".", filepath.Join(root, "symbolic_to_self"))

	return root
}

func key(t *testing.T, parts ...string) VirtualTargetPath {
	t.Helper()
	vtp, err := NewVirtualTargetPath(filepath.Join(parts...))
	require.NoError(t, err)
	return vtp
}

func sha256Only(hex string) TargetDescription {
	return TargetDescription{"sha256": hex}
}

func TestRecordArtifactsTree(t *testing.T) {
	root := buildTree(t)

	got, err := RecordArtifacts([]string{root}, nil)
	require.NoError(t, err)

	want := Map{
		key(t, root, ".hidden", "foo"):                                 sha256Only(sha256Bar),
		key(t, root, ".hidden", ".bar"):                                sha256Only(sha256Foo),
		key(t, root, "hello.", "world"):                                sha256Only(sha256World),
		key(t, root, "hello.", "symbolic_to_nonparent_folder", "foo"):  sha256Only(sha256Bar),
		key(t, root, "hello.", "symbolic_to_nonparent_folder", ".bar"): sha256Only(sha256Foo),
		key(t, root, "symbolic_to_file"):                               sha256Only(sha256World),
	}
	assert.Equal(t, want, got)
}

func TestRecordArtifactsDeterministic(t *testing.T) {
	root := buildTree(t)

	first, err := RecordArtifacts([]string{root}, []string{"sha512", "sha256"})
	require.NoError(t, err)
	second, err := RecordArtifacts([]string{root}, []string{"sha256", "sha512"})
	require.NoError(t, err)

	assert.True(t, first.Equal(second))

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRecordArtifactsAncestorCycleTerminates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "file"), "foo\n")
	symlink(t, filepath.Join("..", ".."), filepath.Join(root, "a", "b", "up"))
	symlink(t, root, filepath.Join(root, "a", "abs_up"))

	got, err := RecordArtifacts([]string{root}, nil)
	require.NoError(t, err)
	assert.Equal(t, Map{key(t, root, "a", "b", "file"): sha256Only(sha256Foo)}, got)
}

func TestRecordArtifactsSymlinkToFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "target"), "hello world\n")
	link := filepath.Join(t.TempDir(), "link")
	symlink(t, filepath.Join(root, "target"), link)

	got, err := RecordArtifacts([]string{link}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sha256World, got[key(t, link)]["sha256"])
}

func TestRecordArtifactsVisitedTargetNotDescendedTwice(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shared", "x"), "foo\n")
	symlink(t, "shared", filepath.Join(root, "a"))
	symlink(t, "shared", filepath.Join(root, "b"))

	got, err := RecordArtifacts([]string{root}, nil)
	require.NoError(t, err)

	assert.Equal(t, []VirtualTargetPath{
		key(t, root, "a", "x"),
		key(t, root, "shared", "x"),
	}, got.Paths())
}

func TestRecordArtifactsVisitedSetIsPerRoot(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "shared", "x"), "foo\n")
	symlink(t, filepath.Join("..", "shared"), mkdir(t, filepath.Join(base, "one"), "link"))
	symlink(t, filepath.Join("..", "shared"), mkdir(t, filepath.Join(base, "two"), "link"))

	got, err := RecordArtifacts([]string{filepath.Join(base, "one"), filepath.Join(base, "two")}, nil)
	require.NoError(t, err)

	assert.Equal(t, []VirtualTargetPath{
		key(t, base, "one", "link", "x"),
		key(t, base, "two", "link", "x"),
	}, got.Paths())
}

func mkdir(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return filepath.Join(dir, name)
}

func TestRecordArtifactsErrors(t *testing.T) {
	t.Run("nonexistent root", func(t *testing.T) {
		_, err := RecordArtifacts([]string{filepath.Join(t.TempDir(), "file-does-not-exist")}, nil)
		require.Error(t, err)
		assert.Equal(t, errors.KindIO, errors.KindOf(err))
	})

	t.Run("dangling symlink", func(t *testing.T) {
		root := t.TempDir()
		symlink(t, filepath.Join(root, "missing"), filepath.Join(root, "dangling"))
		_, err := RecordArtifacts([]string{root}, nil)
		require.Error(t, err)
		assert.Equal(t, errors.KindIO, errors.KindOf(err))
	})

	t.Run("unknown algorithm before any I/O", func(t *testing.T) {
		_, err := RecordArtifacts([]string{filepath.Join(t.TempDir(), "file-does-not-exist")}, []string{"md17"})
		require.Error(t, err)
		assert.Equal(t, errors.KindConfig, errors.KindOf(err))
	})

	t.Run("non UTF-8 file name", func(t *testing.T) {
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, "bad\xff"), []byte("x"), 0o644); err != nil {
			t.Skipf("filesystem rejects non UTF-8 names: %v", err)
		}
		_, err := RecordArtifacts([]string{root}, nil)
		require.Error(t, err)
		assert.Equal(t, errors.KindEncoding, errors.KindOf(err))
	})
}

func TestRecordArtifactsHiddenAndVisible(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "visible"), "foo\n")
	writeFile(t, filepath.Join(root, ".hidden"), "bar\n")
	writeFile(t, filepath.Join(root, ".dir", "nested"), "foo\n")

	got, err := RecordArtifacts([]string{root}, nil)
	require.NoError(t, err)
	assert.Equal(t, []VirtualTargetPath{
		key(t, root, ".dir", "nested"),
		key(t, root, ".hidden"),
		key(t, root, "visible"),
	}, got.Paths())
}

func TestRecordArtifactsRootIsFileAndEmptyRoots(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "single")
	writeFile(t, file, "foo\n")

	got, err := RecordArtifacts([]string{file, root + "/./single"}, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	empty, err := RecordArtifacts(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecorderExcludeAndLStrip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.go"), "foo\n")
	writeFile(t, filepath.Join(root, "src", "main.o"), "bar\n")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "bar\n")

	algs, err := hashalg.Select(nil)
	require.NoError(t, err)

	r := NewRecorder(Options{
		ExcludePatterns: []string{"*.o", ".git"},
		LStripPaths:     []string{filepath.ToSlash(root) + "/"},
		Logger:          log.Discard(),
	})
	got, err := r.Record([]string{root}, algs)
	require.NoError(t, err)
	assert.Equal(t, Map{"src/main.go": sha256Only(sha256Foo)}, got)
}

func TestRecorderLStripCollision(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "one", "f"), "foo\n")
	writeFile(t, filepath.Join(base, "two", "f"), "bar\n")

	algs, err := hashalg.Select(nil)
	require.NoError(t, err)

	r := NewRecorder(Options{
		LStripPaths: []string{
			filepath.ToSlash(filepath.Join(base, "one")) + "/",
			filepath.ToSlash(filepath.Join(base, "two")) + "/",
		},
		Logger: log.Discard(),
	})
	_, err = r.Record([]string{base}, algs)
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
}

func TestRecorderLStripSegmentBoundary(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, filepath.Join("src", "sub", "x"), "foo\n")
	writeFile(t, filepath.Join("srcfoo", "y"), "bar\n")

	algs, err := hashalg.Select(nil)
	require.NoError(t, err)

	r := NewRecorder(Options{LStripPaths: []string{"src"}, Logger: log.Discard()})
	got, err := r.Record([]string{"src", "srcfoo"}, algs)
	require.NoError(t, err)
	assert.Equal(t, Map{
		"sub/x":    sha256Only(sha256Foo),
		"srcfoo/y": sha256Only(sha256Bar),
	}, got)

	for k := range got {
		normalized, err := NewVirtualTargetPath(string(k))
		require.NoError(t, err)
		assert.Equal(t, normalized, k)
	}
}

func TestRecorderLStripWholeKey(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "top", "foo\n")

	algs, err := hashalg.Select(nil)
	require.NoError(t, err)

	r := NewRecorder(Options{LStripPaths: []string{"top"}, Logger: log.Discard()})
	_, err = r.Record([]string{"top"}, algs)
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
	assert.Contains(t, err.Error(), string(errors.ErrCodeStripEmpty))
}

func TestRecorderInvalidPattern(t *testing.T) {
	r := NewRecorder(Options{ExcludePatterns: []string{"["}, Logger: log.Discard()})
	_, err := r.Record([]string{t.TempDir()}, []hashalg.Algorithm{hashalg.SHA256})
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
}

func TestRecordArtifactMultipleAlgorithms(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	writeFile(t, file, "foo\n")

	vtp, td, err := RecordArtifact(file, []hashalg.Algorithm{hashalg.SHA256, hashalg.SHA512})
	require.NoError(t, err)
	assert.Equal(t, key(t, file), vtp)
	assert.Equal(t, sha256Foo, td["sha256"])
	assert.Len(t, td["sha512"], 128)

	_, _, err = RecordArtifact(filepath.Join(t.TempDir(), "missing"), []hashalg.Algorithm{hashalg.SHA256})
	assert.Equal(t, errors.KindIO, errors.KindOf(err))
}

func TestMapDiff(t *testing.T) {
	before := Map{
		"a": sha256Only(sha256Foo),
		"b": sha256Only(sha256Foo),
		"c": sha256Only(sha256Foo),
	}
	after := Map{
		"b": sha256Only(sha256Foo),
		"c": sha256Only(sha256Bar),
		"d": sha256Only(sha256Bar),
	}

	added, removed, modified := before.Diff(after)
	assert.Equal(t, []VirtualTargetPath{"d"}, added)
	assert.Equal(t, []VirtualTargetPath{"a"}, removed)
	assert.Equal(t, []VirtualTargetPath{"c"}, modified)
}
