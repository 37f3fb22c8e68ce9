package chain

import (
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/transcript"
	"github.com/pbmxgo/pbmx/pkg/vtmf"
)

// Signature is a Schnorr proof of knowledge of the block signer's private
// key over the block id, generalizing the teacher's secp256k1 schnorr
// package onto the Ristretto255 group already used throughout this
// module (commit R = k*B, challenge e = H(pk, R, msg), response
// s = k + e*x).
type Signature struct {
	R curve.Point
	S curve.Scalar
}

// Sign produces a Signature over msg (a block id) under sk/pk.
func Sign(sk vtmf.PrivateKey, pk vtmf.PublicKey, msg []byte, rng io.Reader) (Signature, error) {
	tr := transcript.New("pbmx-block-sig-nonce")
	tr.Append("pk", pk.H.Bytes())
	tr.Append("msg", msg)
	nonceRNG, err := tr.BuildRNG(sk.X.Bytes(), rng)
	if err != nil {
		return Signature{}, err
	}
	k, err := curve.RandomScalar(nonceRNG)
	if err != nil {
		return Signature{}, err
	}
	r := curve.ScalarBaseMult(k)
	e := sigChallenge(pk, r, msg)
	s := k.Add(e.Mul(sk.X))
	return Signature{R: r, S: s}, nil
}

// Verify checks sig against pk and msg.
func Verify(pk vtmf.PublicKey, msg []byte, sig Signature) bool {
	e := sigChallenge(pk, sig.R, msg)
	lhs := curve.ScalarBaseMult(sig.S)
	rhs := sig.R.Add(pk.H.ScalarMult(e))
	return lhs.Equal(rhs)
}

func sigChallenge(pk vtmf.PublicKey, r curve.Point, msg []byte) curve.Scalar {
	tr := transcript.New("pbmx-block-sig")
	tr.Append("pk", pk.H.Bytes())
	tr.Append("r", r.Bytes())
	tr.Append("msg", msg)
	buf := tr.Challenge("e", 64)
	s, _ := curve.RandomScalar(staticReader(buf))
	return s
}

type staticReader []byte

func (s staticReader) Read(p []byte) (int, error) {
	n := copy(p, s)
	return n, nil
}
