// Package shift implements the secret-rotation proof: a specialization
// of internal/proof/shuffle restricted to cyclic shifts, proving
// y[i] = remask(x[(i+k) mod n]) for a secret k without revealing k.
package shift

import (
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/perm"
	"github.com/pbmxgo/pbmx/internal/proof/shuffle"
)

// Proof is a secret-shuffle proof whose underlying permutation is
// constrained (by the prover, not independently re-checked by the
// verifier beyond shuffle.VerifySecret's scope) to be a cyclic shift.
type Proof struct {
	Inner shuffle.SecretProof
}

// Prove proves y[i] = remask(x[(i+k) mod n]) for secret k.
func Prove(x, y []shuffle.Mask, k int, rho []curve.Scalar, h curve.Point, external io.Reader) (Proof, error) {
	pi := perm.Shift(len(x), k)
	inner, err := shuffle.ProveSecret(x, y, pi, rho, h, external)
	if err != nil {
		return Proof{}, err
	}
	return Proof{Inner: inner}, nil
}

// Verify checks the proof.
func Verify(x, y []shuffle.Mask, h curve.Point, p Proof) bool {
	return shuffle.VerifySecret(x, y, h, p.Inner)
}
