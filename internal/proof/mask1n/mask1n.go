// Package mask1n implements the mask-1-of-n proof: that a given mask is
// a remasking of one of n public candidate masks, without revealing
// which. It certifies, e.g., that a card drawn from a face-down pile is
// a legitimate card. The construction is a
// Cramer-Damgard-Schoenmakers OR-composition of the dlog-eq relation
// used by internal/proof/dlogeq: for the true branch k, M - Candidates[k]
// = (rho*B, rho*H) is proved for real; every other branch is simulated
// with a freely chosen response and challenge, and the overall
// Fiat-Shamir challenge is split so that the simulated challenges plus
// the real one sum to it — the verifier cannot tell which branch was
// simulated.
package mask1n

import (
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/transcript"
)

const label = "mask1n"

// Mask mirrors vtmf.Mask's shape without importing pkg/vtmf, avoiding an
// import cycle (pkg/vtmf imports this package).
type Mask struct {
	C0, C1 curve.Point
}

// Branch is the prover's per-candidate commitment/response pair.
type Branch struct {
	C curve.Scalar // per-branch challenge
	R curve.Scalar // per-branch response
	W0, W1 curve.Point // per-branch commitments (r*B + c*A, r*H + c*Bpt)
}

// Proof is the full OR-proof across all n candidates.
type Proof struct {
	Branches []Branch
}

// Prove shows that m is a remasking of candidates[trueIndex] under joint
// key h, using rho as the (secret) remasking scalar, without revealing
// trueIndex. context binds an external commitment (e.g. a caller's
// permutation commitment) into this proof's challenge: mutating context
// between proving and verifying changes the recomputed challenge and
// causes Verify to reject, even though context itself is never opened
// here. Pass nil when the caller has nothing to bind.
func Prove(candidates []Mask, m Mask, h curve.Point, trueIndex int, rho curve.Scalar, external io.Reader, context []byte) (Proof, error) {
	n := len(candidates)
	tr := transcript.New(label)
	absorb(tr, candidates, m, h, context)

	branches := make([]Branch, n)

	rng, err := tr.BuildRNG(rho.Bytes(), external)
	if err != nil {
		return Proof{}, err
	}

	// Simulate every false branch first, accumulating their challenges.
	sumFake := curve.NewScalar()
	for j := 0; j < n; j++ {
		if j == trueIndex {
			continue
		}
		cj, err := curve.RandomScalar(rng)
		if err != nil {
			return Proof{}, err
		}
		rj, err := curve.RandomScalar(rng)
		if err != nil {
			return Proof{}, err
		}
		a := m.C0.Sub(candidates[j].C0)
		b := m.C1.Sub(candidates[j].C1)
		w0 := curve.BasePoint().ScalarMult(rj).Add(a.ScalarMult(cj))
		w1 := h.ScalarMult(rj).Add(b.ScalarMult(cj))
		branches[j] = Branch{C: cj, R: rj, W0: w0, W1: w1}
		sumFake = sumFake.Add(cj)
	}

	// Real branch commitment.
	w, err := curve.RandomScalar(rng)
	if err != nil {
		return Proof{}, err
	}
	w0 := curve.BasePoint().ScalarMult(w)
	w1 := h.ScalarMult(w)

	// Insert the real branch's commitment in order before hashing so the
	// challenge derivation is order-independent of which branch is real.
	full := make([][2]curve.Point, n)
	for j := 0; j < n; j++ {
		if j == trueIndex {
			full[j] = [2]curve.Point{w0, w1}
		} else {
			full[j] = [2]curve.Point{branches[j].W0, branches[j].W1}
		}
	}
	for _, wp := range full {
		tr.Append("w0", wp[0].Bytes())
		tr.Append("w1", wp[1].Bytes())
	}

	cTotal := challengeScalar(tr)
	cReal := cTotal.Sub(sumFake)
	rReal := w.Sub(cReal.Mul(rho))

	branches[trueIndex] = Branch{C: cReal, R: rReal, W0: w0, W1: w1}

	return Proof{Branches: branches}, nil
}

// Verify checks the OR-proof against the public candidate set, mask,
// joint key, and the same context bound in at proving time.
func (p Proof) Verify(candidates []Mask, m Mask, h curve.Point, context []byte) bool {
	n := len(candidates)
	if len(p.Branches) != n {
		return false
	}
	tr := transcript.New(label)
	absorb(tr, candidates, m, h, context)

	sum := curve.NewScalar()
	for j := 0; j < n; j++ {
		br := p.Branches[j]
		a := m.C0.Sub(candidates[j].C0)
		b := m.C1.Sub(candidates[j].C1)

		lhs0 := curve.BasePoint().ScalarMult(br.R).Add(a.ScalarMult(br.C))
		lhs1 := h.ScalarMult(br.R).Add(b.ScalarMult(br.C))
		if !lhs0.Equal(br.W0) || !lhs1.Equal(br.W1) {
			return false
		}
		tr.Append("w0", br.W0.Bytes())
		tr.Append("w1", br.W1.Bytes())
		sum = sum.Add(br.C)
	}

	cTotal := challengeScalar(tr)
	return sum.Equal(cTotal)
}

func absorb(tr *transcript.Transcript, candidates []Mask, m Mask, h curve.Point, context []byte) {
	tr.Append("context", context)
	tr.Append("h", h.Bytes())
	tr.AppendUint64("n", uint64(len(candidates)))
	for _, c := range candidates {
		tr.Append("cand0", c.C0.Bytes())
		tr.Append("cand1", c.C1.Bytes())
	}
	tr.Append("m0", m.C0.Bytes())
	tr.Append("m1", m.C1.Bytes())
}

func challengeScalar(tr *transcript.Transcript) curve.Scalar {
	buf := tr.Challenge("c", 64)
	s, _ := curve.RandomScalar(staticReader(buf))
	return s
}

type staticReader []byte

func (s staticReader) Read(p []byte) (int, error) {
	n := copy(p, s)
	return n, nil
}
