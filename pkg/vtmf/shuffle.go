package vtmf

import (
	"fmt"
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/perm"
	"github.com/pbmxgo/pbmx/internal/proof/entangle"
	"github.com/pbmxgo/pbmx/internal/proof/shift"
	"github.com/pbmxgo/pbmx/internal/proof/shuffle"
)

// ShuffleProof wraps the secret-permutation shuffle proof of a Stack,
// produced by the ShuffleStack operation.
type ShuffleProof struct {
	Inner shuffle.SecretProof
}

// Shuffle draws a fresh secret permutation, remasks every element of src
// under it, and returns the shuffled Stack together with a proof that
// the output is a remasking of src under some hidden permutation.
func (e *Engine) Shuffle(src Stack, rng io.Reader) (Stack, ShuffleProof, error) {
	n := len(src)
	pi, err := perm.Random(n, rng)
	if err != nil {
		return nil, ShuffleProof{}, err
	}
	return e.shuffleWith(src, pi, rng)
}

// shuffleWith remasks src under the given permutation and builds the
// accompanying secret-shuffle proof; shared by Shuffle and Shift.
func (e *Engine) shuffleWith(src Stack, pi perm.Permutation, rng io.Reader) (Stack, ShuffleProof, error) {
	n := len(src)
	rho := make([]curve.Scalar, n)
	dst := make(Stack, n)
	x := toShuffleMasks(src)
	for i := 0; i < n; i++ {
		r, err := curve.RandomScalar(rng)
		if err != nil {
			return nil, ShuffleProof{}, err
		}
		rho[i] = r
		srcMask := src[pi.At(i)]
		rb := curve.ScalarBaseMult(r)
		rh := e.joint.ScalarMult(r)
		dst[i] = Mask{C0: srcMask.C0.Add(rb), C1: srcMask.C1.Add(rh)}
	}
	y := toShuffleMasks(dst)
	sp, err := shuffle.ProveSecret(x, y, pi, rho, e.joint, rng)
	if err != nil {
		return nil, ShuffleProof{}, err
	}
	return dst, ShuffleProof{Inner: sp}, nil
}

// VerifyShuffle checks a ShuffleProof for dst claimed to be a permuted
// remasking of src.
func (e *Engine) VerifyShuffle(src, dst Stack, p ShuffleProof) bool {
	return shuffle.VerifySecret(toShuffleMasks(src), toShuffleMasks(dst), e.joint, p.Inner)
}

// ShiftProof wraps the cyclic-rotation proof produced by the ShiftStack
// operation, a specialization of Shuffle to a secret rotation amount.
type ShiftProof struct {
	Inner shift.Proof
}

// Shift rotates src by a secret amount k (drawn uniformly in [0,n) when
// k is negative) and returns the rotated Stack with its proof.
func (e *Engine) Shift(src Stack, k int, rng io.Reader) (Stack, ShiftProof, error) {
	n := len(src)
	if n == 0 {
		return nil, ShiftProof{}, fmt.Errorf("vtmf: cannot shift an empty stack")
	}
	if k < 0 {
		// Rejection sampling over a 64-bit draw keeps k free of modulo bias.
		limit := ^uint64(0) - ^uint64(0)%uint64(n)
		var b [8]byte
		for k < 0 {
			if _, err := io.ReadFull(rng, b[:]); err != nil {
				return nil, ShiftProof{}, err
			}
			var v uint64
			for i := range b {
				v |= uint64(b[i]) << (8 * i)
			}
			if v < limit {
				k = int(v % uint64(n))
			}
		}
	}
	pi := perm.Shift(n, k)
	rho := make([]curve.Scalar, n)
	dst := make(Stack, n)
	for i := 0; i < n; i++ {
		r, err := curve.RandomScalar(rng)
		if err != nil {
			return nil, ShiftProof{}, err
		}
		rho[i] = r
		srcMask := src[pi.At(i)]
		dst[i] = Mask{C0: srcMask.C0.Add(curve.ScalarBaseMult(r)), C1: srcMask.C1.Add(e.joint.ScalarMult(r))}
	}
	sp, err := shift.Prove(toShuffleMasks(src), toShuffleMasks(dst), k, rho, e.joint, rng)
	if err != nil {
		return nil, ShiftProof{}, err
	}
	return dst, ShiftProof{Inner: sp}, nil
}

// VerifyShift checks a ShiftProof for dst claimed to be a cyclic
// rotation-remasking of src.
func (e *Engine) VerifyShift(src, dst Stack, p ShiftProof) bool {
	return shift.Verify(toShuffleMasks(src), toShuffleMasks(dst), e.joint, p.Inner)
}

// InsertProof wraps the known-shuffle proof produced by the Insert
// operation: the splice position is public, so the permutation backing
// the remask is public too, but every element is still remasked so the
// spliced stack's ciphertexts are unlinkable to the two inputs'.
type InsertProof struct {
	Inner shuffle.KnownProof
}

// splicePermutation returns the public permutation that reads the
// output of inserting ins into src at position at from the
// concatenation src||ins: output position i draws from src[i] for
// i<at, from ins[i-at] for at<=i<at+len(ins), and from the remainder of
// src (shifted) after that.
func splicePermutation(nSrc, nIns, at int) (perm.Permutation, error) {
	idx := make([]int, nSrc+nIns)
	for i := 0; i < at; i++ {
		idx[i] = i
	}
	for i := 0; i < nIns; i++ {
		idx[at+i] = nSrc + i
	}
	for i := at; i < nSrc; i++ {
		idx[i+nIns] = i
	}
	return perm.New(idx)
}

// Insert splices ins into src at position at, remasking every resulting
// element and proving (via a known-shuffle proof, since the splice
// position is public) that the result is a remasking of src||ins under
// that public permutation.
func (e *Engine) Insert(src, ins Stack, at int, rng io.Reader) (Stack, InsertProof, error) {
	if at < 0 || at > len(src) {
		return nil, InsertProof{}, fmt.Errorf("vtmf: insert position %d out of range [0,%d]", at, len(src))
	}
	universe := make(Stack, 0, len(src)+len(ins))
	universe = append(universe, src...)
	universe = append(universe, ins...)

	pi, err := splicePermutation(len(src), len(ins), at)
	if err != nil {
		return nil, InsertProof{}, err
	}

	n := pi.Len()
	rho := make([]curve.Scalar, n)
	dst := make(Stack, n)
	for i := 0; i < n; i++ {
		r, err := curve.RandomScalar(rng)
		if err != nil {
			return nil, InsertProof{}, err
		}
		rho[i] = r
		srcMask := universe[pi.At(i)]
		dst[i] = Mask{C0: srcMask.C0.Add(curve.ScalarBaseMult(r)), C1: srcMask.C1.Add(e.joint.ScalarMult(r))}
	}

	p, err := shuffle.ProveKnown(toShuffleMasks(universe), toShuffleMasks(dst), pi, rho, e.joint, rng)
	if err != nil {
		return nil, InsertProof{}, err
	}
	return dst, InsertProof{Inner: p}, nil
}

// VerifyInsert checks an InsertProof for dst claimed to be src with ins
// spliced in at position at.
func (e *Engine) VerifyInsert(src, ins, dst Stack, at int, p InsertProof) bool {
	pi, err := splicePermutation(len(src), len(ins), at)
	if err != nil {
		return false
	}
	universe := make(Stack, 0, len(src)+len(ins))
	universe = append(universe, src...)
	universe = append(universe, ins...)
	return shuffle.VerifyKnown(toShuffleMasks(universe), toShuffleMasks(dst), pi, e.joint, p.Inner)
}

// EntanglementProof binds several parallel Shuffle or Shift operations to
// have used the same secret permutation, produced by the
// ProveEntanglement operation.
type EntanglementProof struct {
	Inner entangle.Proof
}

// EntangledStream is one (source, destination, remask-scalars) triple
// participating in an entanglement proof. Rho must be the same slice of
// scalars used to build Dst from Src under the shared permutation.
type EntangledStream struct {
	Src, Dst Stack
	Rho      []curve.Scalar
}

// ProveEntanglement proves every stream in streams was shuffled under the
// same secret permutation pi.
func (e *Engine) ProveEntanglement(streams []EntangledStream, pi perm.Permutation, rng io.Reader) (EntanglementProof, error) {
	es := make([]entangle.Stream, len(streams))
	for i, s := range streams {
		es[i] = entangle.Stream{
			Src: toEntangleMasks(s.Src),
			Dst: toEntangleMasks(s.Dst),
			Rho: s.Rho,
		}
	}
	p, err := entangle.Prove(es, pi, e.joint, rng)
	if err != nil {
		return EntanglementProof{}, err
	}
	return EntanglementProof{Inner: p}, nil
}

// VerifyEntanglement checks an EntanglementProof across all streams.
func (e *Engine) VerifyEntanglement(streams []EntangledStream, p EntanglementProof) bool {
	es := make([]entangle.Stream, len(streams))
	for i, s := range streams {
		es[i] = entangle.Stream{
			Src: toEntangleMasks(s.Src),
			Dst: toEntangleMasks(s.Dst),
		}
	}
	return entangle.Verify(es, e.joint, p.Inner)
}

func toShuffleMasks(s Stack) []shuffle.Mask {
	out := make([]shuffle.Mask, len(s))
	for i, m := range s {
		out[i] = shuffle.Mask{C0: m.C0, C1: m.C1}
	}
	return out
}

func toEntangleMasks(s Stack) []entangle.Mask {
	out := make([]entangle.Mask, len(s))
	for i, m := range s {
		out[i] = entangle.Mask{C0: m.C0, C1: m.C1}
	}
	return out
}
