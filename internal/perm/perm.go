// Package perm implements validated permutations, used by the VTMF
// shuffle, shift, and insert operations. Structurally this plays the role
// the teacher's internal/crypto/polynomial package played for Shamir
// coefficients (a small, validated math value threaded through a
// protocol round) — but a permutation is a bijection on indices, not a
// polynomial, so it is grounded on that package's shape (constructor that
// validates its input, a handful of pure derived operations) rather than
// reusing any of its arithmetic.
package perm

import (
	"errors"
	"io"
)

// ErrNotPermutation is returned when a candidate index vector is not a
// bijection on {0..n-1}.
var ErrNotPermutation = errors.New("perm: not a valid permutation")

// Permutation is a bijection on {0, ..., n-1}, stored as p[i] = the
// source index that output position i draws from.
type Permutation struct {
	p []int
}

// New validates idx as a permutation of {0..len(idx)-1} and returns it.
func New(idx []int) (Permutation, error) {
	n := len(idx)
	seen := make([]bool, n)
	for _, v := range idx {
		if v < 0 || v >= n || seen[v] {
			return Permutation{}, ErrNotPermutation
		}
		seen[v] = true
	}
	cp := make([]int, n)
	copy(cp, idx)
	return Permutation{p: cp}, nil
}

// Identity returns the identity permutation of size n.
func Identity(n int) Permutation {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return Permutation{p: p}
}

// Random draws a uniform random permutation of size n via Fisher-Yates.
func Random(n int, rng io.Reader) (Permutation, error) {
	p := Identity(n).p
	for i := n - 1; i > 0; i-- {
		j, err := randIndex(rng, i+1)
		if err != nil {
			return Permutation{}, err
		}
		p[i], p[j] = p[j], p[i]
	}
	return Permutation{p: p}, nil
}

// Shift returns the cyclic shift-by-k permutation of size n: output
// position i draws from source index (i+k) mod n.
func Shift(n, k int) Permutation {
	p := make([]int, n)
	k = ((k % n) + n) % n
	for i := range p {
		p[i] = (i + k) % n
	}
	return Permutation{p: p}
}

// Len returns the size of the permutation.
func (pm Permutation) Len() int { return len(pm.p) }

// At returns the source index for output position i.
func (pm Permutation) At(i int) int { return pm.p[i] }

// Apply returns a new slice y such that y[i] = x[pm.At(i)].
func Apply[T any](pm Permutation, x []T) ([]T, error) {
	if len(x) != pm.Len() {
		return nil, ErrNotPermutation
	}
	y := make([]T, len(x))
	for i := range y {
		y[i] = x[pm.At(i)]
	}
	return y, nil
}

// Inverse returns the inverse permutation.
func (pm Permutation) Inverse() Permutation {
	inv := make([]int, len(pm.p))
	for i, v := range pm.p {
		inv[v] = i
	}
	return Permutation{p: inv}
}

// Indices returns the raw index vector (not to be mutated).
func (pm Permutation) Indices() []int { return pm.p }

func randIndex(rng io.Reader, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	// Rejection sampling over a uint32 draw, avoiding modulo bias
	// regardless of how large the stack being shuffled is.
	const span = uint64(1) << 32
	limit := uint32(span - span%uint64(n))
	var b [4]byte
	for {
		if _, err := io.ReadFull(rng, b[:]); err != nil {
			return 0, err
		}
		v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		if v < limit {
			return int(v % uint32(n)), nil
		}
	}
}
