// Package setrel implements the subset, superset, and disjoint set
// relation proofs. Each is built the same way: shuffle a
// universe stack (S union its complement, or two stacks concatenated)
// under a secret permutation, via internal/proof/shuffle.ProveSecret, so
// that the claimed relation corresponds to a fixed partition of the
// shuffled output. The verifier does not learn anything from the proof
// itself about which relation holds beyond what shuffle.VerifySecret
// already certifies (every output is a remasking of some input); the
// relation claim is only confirmed once the players later publish
// decryption shares for the output stack and the opened tokens are
// checked against the partition (PublishShares).
package setrel

import (
	"fmt"
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/perm"
	"github.com/pbmxgo/pbmx/internal/proof/shuffle"
)

// Mask mirrors vtmf.Mask's shape, avoiding an import cycle.
type Mask = shuffle.Mask

// Proof is a shuffle proof over a universe stack, whose first k outputs
// (k fixed by the caller, per relation) are claimed to correspond to one
// side of the set relation.
type Proof struct {
	Shuffle shuffle.SecretProof
}

// Shuffled builds the permuted, remasked universe y[i] =
// remask(universe[pi.At(i)], rho[i]), the common step underlying every
// relation in this package.
func Shuffled(universe []Mask, pi perm.Permutation, rho []curve.Scalar, h curve.Point) ([]Mask, error) {
	n := pi.Len()
	if len(universe) != n || len(rho) != n {
		return nil, fmt.Errorf("setrel: mismatched lengths")
	}
	y := make([]Mask, n)
	for i := 0; i < n; i++ {
		src := universe[pi.At(i)]
		rb := curve.ScalarBaseMult(rho[i])
		rh := h.ScalarMult(rho[i])
		y[i] = Mask{C0: src.C0.Add(rb), C1: src.C1.Add(rh)}
	}
	return y, nil
}

// ProveSubset proves that the first k outputs of shuffling universe under
// pi are (after later unmasking) exactly the claimed subset, for a
// universe built by the caller as subset ∪ complement in arbitrary order.
// k is implicit in the caller's choice of pi/rho/universe size; this
// function only produces the shuffle witness.
func ProveSubset(universe, y []Mask, pi perm.Permutation, rho []curve.Scalar, h curve.Point, external io.Reader) (Proof, error) {
	sp, err := shuffle.ProveSecret(universe, y, pi, rho, h, external)
	if err != nil {
		return Proof{}, err
	}
	return Proof{Shuffle: sp}, nil
}

// VerifySubset checks the shuffle witness. Callers must separately verify
// that unmasking y[:k] yields exactly the claimed subset's tokens.
func VerifySubset(universe, y []Mask, h curve.Point, p Proof) bool {
	return shuffle.VerifySecret(universe, y, h, p.Shuffle)
}

// ProveSuperset proves the symmetric relation: universe is built as the
// claimed superset's complement ∪ the subset under test, i.e. it is
// ProveSubset with the operand roles reversed by the caller. Exposed
// separately so call sites read naturally (the chain payload model
// distinguishes ProveSubset from ProveSuperset by which stack is the
// claimed relation's subject), but the cryptographic content is
// identical.
func ProveSuperset(universe, y []Mask, pi perm.Permutation, rho []curve.Scalar, h curve.Point, external io.Reader) (Proof, error) {
	return ProveSubset(universe, y, pi, rho, h, external)
}

// VerifySuperset mirrors ProveSuperset.
func VerifySuperset(universe, y []Mask, h curve.Point, p Proof) bool {
	return VerifySubset(universe, y, h, p)
}

// ProveDisjoint proves that two stacks A and B share no tokens. universe
// is the caller-built concatenation A ∪ B, shuffled under pi; once the
// shuffled output's shares are published, the verifier checks that no
// token appears in both the first |A| and the remaining |B| positions.
func ProveDisjoint(universe, y []Mask, pi perm.Permutation, rho []curve.Scalar, h curve.Point, external io.Reader) (Proof, error) {
	sp, err := shuffle.ProveSecret(universe, y, pi, rho, h, external)
	if err != nil {
		return Proof{}, err
	}
	return Proof{Shuffle: sp}, nil
}

// VerifyDisjoint checks the shuffle witness for a disjointness claim.
func VerifyDisjoint(universe, y []Mask, h curve.Point, p Proof) bool {
	return shuffle.VerifySecret(universe, y, h, p.Shuffle)
}
