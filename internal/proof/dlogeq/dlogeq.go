// Package dlogeq implements the Chaum-Pedersen discrete-log-equality
// proof: knowledge of x such that a = x*g and b = x*h for public
// (a, b, g, h). This generalizes the teacher's
// internal/crypto/zk/schnorr package (a single Schnorr
// proof-of-knowledge that X = x*G) to a proof that the *same* x
// underlies two independent bases, which is what VTMF remasking and
// share publication need. The transcript-seeded
// nonce discipline replaces the teacher's plain sha256 challenge.
package dlogeq

import (
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/transcript"
)

const label = "dlog_eq"

// Proof is a non-interactive Chaum-Pedersen proof.
type Proof struct {
	C curve.Scalar // challenge
	R curve.Scalar // response
}

// Statement is the public instance: a = x*g, b = x*h.
type Statement struct {
	G, H curve.Point
	A, B curve.Point
}

// Prove constructs a proof of knowledge of x such that a = x*g, b = x*h,
// using external as the source of fresh entropy for the synthetic nonce.
func Prove(st Statement, x curve.Scalar, external io.Reader) (Proof, error) {
	tr := transcript.New(label)
	absorb(tr, st)

	rng, err := tr.BuildRNG(x.Bytes(), external)
	if err != nil {
		return Proof{}, err
	}
	w, err := curve.RandomScalar(rng)
	if err != nil {
		return Proof{}, err
	}

	gw := st.G.ScalarMult(w)
	hw := st.H.ScalarMult(w)
	tr.Append("gw", gw.Bytes())
	tr.Append("hw", hw.Bytes())

	c := challengeScalar(tr)
	r := w.Sub(c.Mul(x))

	return Proof{C: c, R: r}, nil
}

// Verify checks the proof against the public statement.
func (p Proof) Verify(st Statement) bool {
	tr := transcript.New(label)
	absorb(tr, st)

	gr := st.G.ScalarMult(p.R)
	ga := st.A.ScalarMult(p.C)
	gw := gr.Add(ga)

	hr := st.H.ScalarMult(p.R)
	hb := st.B.ScalarMult(p.C)
	hw := hr.Add(hb)

	tr.Append("gw", gw.Bytes())
	tr.Append("hw", hw.Bytes())

	cPrime := challengeScalar(tr)
	return cPrime.Equal(p.C)
}

func absorb(tr *transcript.Transcript, st Statement) {
	tr.Append("g", st.G.Bytes())
	tr.Append("h", st.H.Bytes())
	tr.Append("a", st.A.Bytes())
	tr.Append("b", st.B.Bytes())
}

func challengeScalar(tr *transcript.Transcript) curve.Scalar {
	buf := tr.Challenge("c", 64)
	return scalarFromWide(buf)
}

func scalarFromWide(buf []byte) curve.Scalar {
	var wide [64]byte
	copy(wide[:], buf)
	s, _ := curve.RandomScalar(staticReader(wide[:]))
	return s
}

type staticReader []byte

func (s staticReader) Read(p []byte) (int, error) {
	n := copy(p, s)
	return n, nil
}
