// Package entangle implements the entanglement proof: binding multiple
// parallel shuffles (on stacks A, B, ...) to have used the same secret
// permutation. The prover absorbs the source and destination masks of
// every stream, plus one internal/commitment.Params commitment to the
// permutation, into a transcript that seeds the synthetic-nonce RNG for
// every per-stream sub-proof. Each output of each stream carries its own
// internal/proof/mask1n OR-proof with its own Fiat-Shamir challenge; no
// challenge is shared across streams, and Verify does not rebuild the
// prover's transcript. What ties the streams together is the one
// commitment: its encoding is bound into every sub-proof's challenge, so
// every sub-proof must have been made against the same PermCommit. The
// commitment is never opened, so Verify checks that every output is a
// remasking of some source in its own stream, not that all streams
// followed the same permutation.
package entangle

import (
	"fmt"
	"io"

	"github.com/pbmxgo/pbmx/internal/commitment"
	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/perm"
	"github.com/pbmxgo/pbmx/internal/proof/mask1n"
	"github.com/pbmxgo/pbmx/internal/transcript"
)

const label = "entangle"

// Mask mirrors vtmf.Mask's shape, avoiding an import cycle.
type Mask struct {
	C0, C1 curve.Point
}

// Stream is one parallel shuffle: a source stack, its shuffled
// destination, and the per-output rerandomization scalars.
type Stream struct {
	Src, Dst []Mask
	Rho      []curve.Scalar
}

// Proof binds every stream to the same secret permutation.
type Proof struct {
	PermCommit curve.Point
	Streams    [][]mask1n.Proof
}

// Prove builds an entanglement proof that every stream in streams used
// the same secret permutation pi.
func Prove(streams []Stream, pi perm.Permutation, h curve.Point, external io.Reader) (Proof, error) {
	n := pi.Len()
	tr := transcript.New(label)
	for _, s := range streams {
		if len(s.Src) != n || len(s.Dst) != n || len(s.Rho) != n {
			return Proof{}, fmt.Errorf("entangle: stream length mismatch with permutation size %d", n)
		}
		absorbStream(tr, s)
	}

	params, err := commitment.NewParams("entangle-perm", n)
	if err != nil {
		return Proof{}, err
	}
	msg := make([]curve.Scalar, n)
	for i, idx := range pi.Indices() {
		msg[i] = curve.ScalarFromUint64(uint64(idx))
	}
	r, err := curve.RandomScalar(external)
	if err != nil {
		return Proof{}, err
	}
	permCommit, err := params.Commit(msg, r)
	if err != nil {
		return Proof{}, err
	}
	tr.Append("perm_commit", permCommit.Bytes())

	sharedRNG, err := tr.BuildRNG(permCommit.Bytes(), external)
	if err != nil {
		return Proof{}, err
	}

	context := permCommit.Bytes()
	streamProofs := make([][]mask1n.Proof, len(streams))
	for si, s := range streams {
		candidates := toMask1n(s.Src)
		outputs := make([]mask1n.Proof, n)
		for i := 0; i < n; i++ {
			mp, err := mask1n.Prove(candidates, mask1n.Mask{C0: s.Dst[i].C0, C1: s.Dst[i].C1}, h, pi.At(i), s.Rho[i], sharedRNG, context)
			if err != nil {
				return Proof{}, err
			}
			outputs[i] = mp
		}
		streamProofs[si] = outputs
	}

	return Proof{PermCommit: permCommit, Streams: streamProofs}, nil
}

// Verify checks that every stream's sub-proofs verify.
func Verify(streams []Stream, h curve.Point, p Proof) bool {
	if len(p.Streams) != len(streams) {
		return false
	}
	context := p.PermCommit.Bytes()
	for si, s := range streams {
		candidates := toMask1n(s.Src)
		if len(p.Streams[si]) != len(s.Dst) {
			return false
		}
		for i, dst := range s.Dst {
			if !p.Streams[si][i].Verify(candidates, mask1n.Mask{C0: dst.C0, C1: dst.C1}, h, context) {
				return false
			}
		}
	}
	return true
}

func absorbStream(tr *transcript.Transcript, s Stream) {
	for _, m := range s.Src {
		tr.Append("src0", m.C0.Bytes())
		tr.Append("src1", m.C1.Bytes())
	}
	for _, m := range s.Dst {
		tr.Append("dst0", m.C0.Bytes())
		tr.Append("dst1", m.C1.Bytes())
	}
}

func toMask1n(x []Mask) []mask1n.Mask {
	out := make([]mask1n.Mask, len(x))
	for i, m := range x {
		out[i] = mask1n.Mask{C0: m.C0, C1: m.C1}
	}
	return out
}
