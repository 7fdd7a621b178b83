// Package hashalg selects hash algorithms from a fixed registry and computes
// every selected digest of a stream in a single pass.
package hashalg

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sort"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"github.com/felixgeelhaar/linkrun/internal/errors"
)

// Algorithm identifies a supported hash algorithm by its registry name.
type Algorithm string

// Supported algorithms
const (
	BLAKE3  Algorithm = "blake3"
	SHA224  Algorithm = "sha224"
	SHA256  Algorithm = "sha256"
	SHA384  Algorithm = "sha384"
	SHA3256 Algorithm = "sha3-256"
	SHA3512 Algorithm = "sha3-512"
	SHA512  Algorithm = "sha512"
)

// Default is used when no algorithm is requested.
const Default = SHA256

type entry struct {
	rank int
	new  func() hash.Hash
}

// registry is read-only after package initialization. Rank defines the
// total order used when a set of algorithms is returned.
var registry = map[Algorithm]entry{
	BLAKE3:  {rank: 0, new: func() hash.Hash { return blake3.New() }},
	SHA224:  {rank: 1, new: sha256.New224},
	SHA256:  {rank: 2, new: sha256.New},
	SHA384:  {rank: 3, new: sha512.New384},
	SHA3256: {rank: 4, new: sha3.New256},
	SHA3512: {rank: 5, new: sha3.New512},
	SHA512:  {rank: 6, new: sha512.New},
}

// String returns the registry name
func (a Algorithm) String() string {
	return string(a)
}

// Less reports whether a sorts before b in the registry order.
func (a Algorithm) Less(b Algorithm) bool {
	return registry[a].rank < registry[b].rank
}

// All returns every supported algorithm name in registry order.
func All() []string {
	names := make([]string, 0, len(registry))
	for alg := range registry {
		names = append(names, string(alg))
	}
	sort.Slice(names, func(i, j int) bool {
		return Algorithm(names[i]).Less(Algorithm(names[j]))
	})
	return names
}

// Parse validates a single algorithm name.
func Parse(name string) (Algorithm, error) {
	alg := Algorithm(name)
	if _, ok := registry[alg]; !ok {
		return "", errors.NewUnknownHashAlgorithmError(name, All())
	}
	return alg, nil
}

// Select validates the requested names and returns the matching set,
// deduplicated and sorted in registry order. An empty request selects
// only Default. The first unknown name, in input order, is reported.
func Select(names []string) ([]Algorithm, error) {
	if len(names) == 0 {
		return []Algorithm{Default}, nil
	}

	seen := make(map[Algorithm]bool, len(names))
	algs := make([]Algorithm, 0, len(names))
	for _, name := range names {
		alg, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if seen[alg] {
			continue
		}
		seen[alg] = true
		algs = append(algs, alg)
	}

	sort.Slice(algs, func(i, j int) bool { return algs[i].Less(algs[j]) })
	return algs, nil
}

// Digests maps an algorithm name to the lowercase hex digest it produced.
type Digests map[string]string

// Bytes returns the raw digest for alg.
func (d Digests) Bytes(alg Algorithm) ([]byte, error) {
	h, ok := d[string(alg)]
	if !ok {
		return nil, fmt.Errorf("no %s digest recorded", alg)
	}
	return hex.DecodeString(h)
}

// Equal reports whether both maps carry the same digests.
func (d Digests) Equal(other Digests) bool {
	if len(d) != len(other) {
		return false
	}
	for k, v := range d {
		if other[k] != v {
			return false
		}
	}
	return true
}

// Calculate streams r once through every algorithm in algs and returns the
// number of bytes read along with the digests.
func Calculate(r io.Reader, algs []Algorithm) (int64, Digests, error) {
	hashers := make(map[Algorithm]hash.Hash, len(algs))
	writers := make([]io.Writer, 0, len(algs))
	for _, alg := range algs {
		e, ok := registry[alg]
		if !ok {
			return 0, nil, errors.NewUnknownHashAlgorithmError(string(alg), All())
		}
		if _, dup := hashers[alg]; dup {
			continue
		}
		h := e.new()
		hashers[alg] = h
		writers = append(writers, h)
	}

	n, err := io.Copy(io.MultiWriter(writers...), r)
	if err != nil {
		return n, nil, err
	}

	digests := make(Digests, len(hashers))
	for alg, h := range hashers {
		digests[string(alg)] = hex.EncodeToString(h.Sum(nil))
	}
	return n, digests, nil
}
