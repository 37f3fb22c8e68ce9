package vtmf

import (
	"io"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/proof/dlogeq"
)

// MaskOpen produces an open mask of token, carrying no secret
// randomness and requiring no proof.
func MaskOpen(token uint64, rng io.Reader) (Mask, error) {
	p, err := curve.ToPoint(token, rng)
	if err != nil {
		return Mask{}, err
	}
	return Mask{C0: curve.NewPoint(), C1: p}, nil
}

// MaskRandom masks a fresh uniformly random point under the joint key and
// returns the mask together with the masking scalar used.
func (e *Engine) MaskRandom(rng io.Reader) (Mask, curve.Scalar, error) {
	r, err := curve.RandomScalar(rng)
	if err != nil {
		return Mask{}, curve.Scalar{}, err
	}
	p, err := curve.RandomPoint(rng)
	if err != nil {
		return Mask{}, curve.Scalar{}, err
	}
	m := Mask{C0: curve.ScalarBaseMult(r), C1: e.joint.ScalarMult(r).Add(p)}
	return m, r, nil
}

// MaskProof is a Chaum-Pedersen proof that a remasking preserved the
// plaintext: log_B(c0' - c0) = log_H(c1' - c1) = r.
type MaskProof struct {
	Proof dlogeq.Proof
}

// Remask rerandomizes m by adding (r*B, r*H) for a fresh r, and proves it
// did so correctly without revealing r.
func (e *Engine) Remask(m Mask, rng io.Reader) (Mask, curve.Scalar, MaskProof, error) {
	r, err := curve.RandomScalar(rng)
	if err != nil {
		return Mask{}, curve.Scalar{}, MaskProof{}, err
	}
	rb := curve.ScalarBaseMult(r)
	rh := e.joint.ScalarMult(r)
	out := Mask{C0: m.C0.Add(rb), C1: m.C1.Add(rh)}

	st := dlogeq.Statement{G: curve.BasePoint(), H: e.joint, A: rb, B: rh}
	proof, err := dlogeq.Prove(st, r, csRand)
	if err != nil {
		return Mask{}, curve.Scalar{}, MaskProof{}, err
	}
	return out, r, MaskProof{Proof: proof}, nil
}

// VerifyRemask checks that out is a remasking of in under the joint key.
func (e *Engine) VerifyRemask(in, out Mask, p MaskProof) bool {
	a := out.C0.Sub(in.C0)
	b := out.C1.Sub(in.C1)
	st := dlogeq.Statement{G: curve.BasePoint(), H: e.joint, A: a, B: b}
	return p.Proof.Verify(st)
}

// SecretShare is one party's partial decryption of a Mask: s = x*c0.
type SecretShare struct {
	S curve.Point
}

// ShareProof proves log_{c0}(s) = log_B(pk), i.e. the share used the same
// private key as the party's published public key.
type ShareProof struct {
	Proof dlogeq.Proof
}

// UnmaskShare publishes this party's decryption share for m along with a
// proof that it used the party's own private key.
func (e *Engine) UnmaskShare(m Mask) (SecretShare, ShareProof, error) {
	s := m.C0.ScalarMult(e.sk.X)
	st := dlogeq.Statement{G: curve.BasePoint(), H: m.C0, A: e.pk.H, B: s}
	proof, err := dlogeq.Prove(st, e.sk.X, csRand)
	if err != nil {
		return SecretShare{}, ShareProof{}, err
	}
	return SecretShare{S: s}, ShareProof{Proof: proof}, nil
}

// VerifyShare checks a published share against the claimed owner's
// public key and the mask it decrypts.
func VerifyShare(m Mask, pk PublicKey, share SecretShare, proof ShareProof) bool {
	st := dlogeq.Statement{G: curve.BasePoint(), H: m.C0, A: pk.H, B: share.S}
	return proof.Proof.Verify(st)
}

// Unmask reduces m to its plaintext point given every other party's
// published shares. Ordering of accumulation is insensitive since the
// group is commutative; callers MUST have already verified each share's
// proof.
func (e *Engine) Unmask(m Mask, otherShares []SecretShare) curve.Point {
	ownShare := m.C0.ScalarMult(e.sk.X)
	total := ownShare
	for _, s := range otherShares {
		total = total.Add(s.S)
	}
	return m.C1.Sub(total)
}

// UnmaskPrivate subtracts only this party's own share, useful when every
// *other* party's share is already known to SecretMap and this party
// wants to recover a token only it can currently see.
func (e *Engine) UnmaskPrivate(m Mask, othersTotal curve.Point) curve.Point {
	ownShare := m.C0.ScalarMult(e.sk.X)
	return m.C1.Sub(othersTotal).Sub(ownShare)
}

// UnmaskOpen opens a mask with zero c0 directly (e.g. a mask produced by
// MaskOpen that nobody has remasked), recovering the plaintext point
// without any share exchange.
func UnmaskOpen(m Mask) curve.Point {
	return m.C1
}

// UnmaskAll reduces m to its plaintext point given every party's
// published share (including, unlike Unmask/UnmaskPrivate, the caller's
// own), for use by a third party replaying the chain rather than a
// participating Engine (e.g. pkg/state's RNG session combination).
func UnmaskAll(m Mask, shares []SecretShare) curve.Point {
	total := curve.NewPoint()
	for _, s := range shares {
		total = total.Add(s.S)
	}
	return m.C1.Sub(total)
}
