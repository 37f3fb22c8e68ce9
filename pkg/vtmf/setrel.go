package vtmf

import (
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/perm"
	"github.com/pbmxgo/pbmx/internal/proof/setrel"
)

// SetProof wraps a set-relation shuffle proof, produced by the
// ProveSubset/ProveSuperset/ProveDisjoint operations.
type SetProof struct {
	Inner setrel.Proof
}

// shuffleUniverse remasks universe under pi, returning the output Stack
// and the scalars used, shared by the three set-relation constructors.
func (e *Engine) shuffleUniverse(universe Stack, pi perm.Permutation, rng io.Reader) (Stack, []curve.Scalar, error) {
	n := pi.Len()
	rho := make([]curve.Scalar, n)
	dst := make(Stack, n)
	for i := 0; i < n; i++ {
		r, err := curve.RandomScalar(rng)
		if err != nil {
			return nil, nil, err
		}
		rho[i] = r
		src := universe[pi.At(i)]
		dst[i] = Mask{C0: src.C0.Add(curve.ScalarBaseMult(r)), C1: src.C1.Add(e.joint.ScalarMult(r))}
	}
	return dst, rho, nil
}

// ProveSubset proves that, once unmasked, the first k outputs of
// shuffling universe equal a claimed subset's tokens. universe must be
// built by the caller as the claimed subset unioned with its complement
// within the larger set; k is implicit in that construction.
func (e *Engine) ProveSubset(universe Stack, pi perm.Permutation, rng io.Reader) (Stack, SetProof, error) {
	dst, rho, err := e.shuffleUniverse(universe, pi, rng)
	if err != nil {
		return nil, SetProof{}, err
	}
	p, err := setrel.ProveSubset(toShuffleMasks(universe), toShuffleMasks(dst), pi, rho, e.joint, rng)
	if err != nil {
		return nil, SetProof{}, err
	}
	return dst, SetProof{Inner: p}, nil
}

// VerifySubset checks the shuffle witness underlying a subset claim.
func (e *Engine) VerifySubset(universe, dst Stack, p SetProof) bool {
	return setrel.VerifySubset(toShuffleMasks(universe), toShuffleMasks(dst), e.joint, p.Inner)
}

// ProveSuperset mirrors ProveSubset with the relation's subject and
// object roles reversed by the caller's choice of universe.
func (e *Engine) ProveSuperset(universe Stack, pi perm.Permutation, rng io.Reader) (Stack, SetProof, error) {
	dst, rho, err := e.shuffleUniverse(universe, pi, rng)
	if err != nil {
		return nil, SetProof{}, err
	}
	p, err := setrel.ProveSuperset(toShuffleMasks(universe), toShuffleMasks(dst), pi, rho, e.joint, rng)
	if err != nil {
		return nil, SetProof{}, err
	}
	return dst, SetProof{Inner: p}, nil
}

// VerifySuperset mirrors VerifySubset.
func (e *Engine) VerifySuperset(universe, dst Stack, p SetProof) bool {
	return setrel.VerifySuperset(toShuffleMasks(universe), toShuffleMasks(dst), e.joint, p.Inner)
}

// ProveDisjoint proves two stacks A and B (concatenated by the caller
// into universe = A ∪ B) share no tokens, once the shuffled output's
// shares are published and partitioned back into |A| and |B| halves.
func (e *Engine) ProveDisjoint(universe Stack, pi perm.Permutation, rng io.Reader) (Stack, SetProof, error) {
	dst, rho, err := e.shuffleUniverse(universe, pi, rng)
	if err != nil {
		return nil, SetProof{}, err
	}
	p, err := setrel.ProveDisjoint(toShuffleMasks(universe), toShuffleMasks(dst), pi, rho, e.joint, rng)
	if err != nil {
		return nil, SetProof{}, err
	}
	return dst, SetProof{Inner: p}, nil
}

// VerifyDisjoint checks the shuffle witness underlying a disjointness
// claim.
func (e *Engine) VerifyDisjoint(universe, dst Stack, p SetProof) bool {
	return setrel.VerifyDisjoint(toShuffleMasks(universe), toShuffleMasks(dst), e.joint, p.Inner)
}
