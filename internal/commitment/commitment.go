// Package commitment implements Pedersen vector commitments over the
// Ristretto255 group. It generalizes the teacher repo's hash-based
// commitment scheme (commit-now/decommit-later, see
// internal/proof/dlogeq for the teacher's Schnorr analogue) from a
// single SHA-256 digest into a homomorphic, algebraic commitment that the
// proof packages can combine linearly.
package commitment

import (
	"errors"
	"fmt"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/transcript"
)

// ErrDuplicateGenerator is returned by NewParams when two generators
// collide (which would break binding).
var ErrDuplicateGenerator = errors.New("commitment: generators are not pairwise distinct")

// Params holds one blinding generator H and n message generators G,
// derived deterministically from a public domain-separation label so
// that every party derives identical generators without a trusted setup.
type Params struct {
	H curve.Point
	G []curve.Point
}

// NewParams derives Params for committing to vectors of length n under
// the given domain label.
func NewParams(label string, n int) (Params, error) {
	t := transcript.New("pbmx-commit-gens")
	t.Append("label", []byte(label))
	t.AppendUint64("n", uint64(n))

	gens := make([]curve.Point, n+1)
	for i := range gens {
		seed := t.Challenge(fmt.Sprintf("gen-%d", i), 64)
		p, err := curve.RandomPoint(fixedReader(seed))
		if err != nil {
			return Params{}, err
		}
		gens[i] = p
	}

	for i := 0; i < len(gens); i++ {
		for j := i + 1; j < len(gens); j++ {
			if gens[i].Equal(gens[j]) {
				return Params{}, ErrDuplicateGenerator
			}
		}
	}

	return Params{H: gens[0], G: gens[1:]}, nil
}

// Commit computes r*H + sum(m[i]*G[i]). len(m) must equal len(p.G).
func (p Params) Commit(m []curve.Scalar, r curve.Scalar) (curve.Point, error) {
	if len(m) != len(p.G) {
		return curve.Point{}, fmt.Errorf("commitment: expected %d message scalars, got %d", len(p.G), len(m))
	}
	c := p.H.ScalarMult(r)
	for i, mi := range m {
		c = c.Add(p.G[i].ScalarMult(mi))
	}
	return c, nil
}

// Open verifies that c = Commit(m, r), returning BadProof-shaped error
// (handled by the caller's chainerr mapping) on mismatch.
func (p Params) Open(c curve.Point, m []curve.Scalar, r curve.Scalar) error {
	want, err := p.Commit(m, r)
	if err != nil {
		return err
	}
	if !c.Equal(want) {
		return ErrOpenMismatch
	}
	return nil
}

// ErrOpenMismatch is returned by Open when the claimed opening does not
// reproduce the commitment.
var ErrOpenMismatch = errors.New("commitment: opening does not match commitment")

type fixedReader []byte

func (f fixedReader) Read(p []byte) (int, error) {
	n := copy(p, f)
	for i := n; i < len(p); i++ {
		// Extend deterministically past the 64-byte challenge if ever
		// asked for more; RandomPoint only ever reads 64 bytes at a time
		// so this path is not exercised in practice.
		p[i] = f[i%len(f)]
	}
	return len(p), nil
}
