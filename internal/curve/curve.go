// Package curve wraps the Ristretto255 prime-order group used by every
// layer above it: commitments, proofs, and the VTMF engine all operate on
// the Scalar and Point types defined here rather than on the underlying
// ristretto255 library directly, so a future group swap touches one
// package.
package curve

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/gtank/ristretto255"
)

// ErrDecode is returned when a byte string does not decode to a valid
// canonical group element or scalar.
var ErrDecode = errors.New("curve: invalid encoding")

// Scalar is a residue mod the group order.
type Scalar struct {
	s *ristretto255.Scalar
}

// Point is a group element, canonically encoded as 32 bytes.
type Point struct {
	p *ristretto255.Element
}

// NewScalar returns the zero scalar.
func NewScalar() Scalar {
	return Scalar{s: ristretto255.NewScalar()}
}

// NewPoint returns the identity point.
func NewPoint() Point {
	return Point{p: ristretto255.NewElement()}
}

// BasePoint returns the fixed generator B of the group.
func BasePoint() Point {
	return Point{p: ristretto255.NewElement().Base()}
}

// RandomScalar draws a uniform scalar using rng for its entropy.
func RandomScalar(rng io.Reader) (Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return Scalar{}, err
	}
	s := ristretto255.NewScalar().FromUniformBytes(buf[:])
	return Scalar{s: s}, nil
}

// RandomPoint draws a uniform, uniformly-random-looking group element.
// Ristretto255's FromUniformBytes already maps 64 bytes of entropy onto
// the curve without rejection sampling, unlike the integer map in map.go.
func RandomPoint(rng io.Reader) (Point, error) {
	var buf [64]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return Point{}, err
	}
	p := ristretto255.NewElement().FromUniformBytes(buf[:])
	return Point{p: p}, nil
}

// ScalarFromUint64 embeds a small non-negative integer as a scalar.
func ScalarFromUint64(x uint64) Scalar {
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(x >> (8 * i))
	}
	s := ristretto255.NewScalar()
	// Decode never fails on a canonical 32-byte little-endian value < 2^255.
	_ = s.Decode(buf[:])
	return Scalar{s: s}
}

// DecodeScalar parses a canonical 32-byte scalar encoding.
func DecodeScalar(b []byte) (Scalar, error) {
	s := ristretto255.NewScalar()
	if err := s.Decode(b); err != nil {
		return Scalar{}, ErrDecode
	}
	return Scalar{s: s}, nil
}

// DecodePoint parses a canonical 32-byte compressed point encoding.
func DecodePoint(b []byte) (Point, error) {
	p := ristretto255.NewElement()
	if err := p.Decode(b); err != nil {
		return Point{}, ErrDecode
	}
	return Point{p: p}, nil
}

// Bytes returns the canonical 32-byte scalar encoding.
func (s Scalar) Bytes() []byte { return s.s.Encode(nil) }

// Bytes returns the canonical 32-byte compressed point encoding.
func (p Point) Bytes() []byte { return p.p.Encode(nil) }

// Add returns s + t.
func (s Scalar) Add(t Scalar) Scalar {
	return Scalar{s: ristretto255.NewScalar().Add(s.s, t.s)}
}

// Sub returns s - t.
func (s Scalar) Sub(t Scalar) Scalar {
	return Scalar{s: ristretto255.NewScalar().Subtract(s.s, t.s)}
}

// Mul returns s * t.
func (s Scalar) Mul(t Scalar) Scalar {
	return Scalar{s: ristretto255.NewScalar().Multiply(s.s, t.s)}
}

// Negate returns -s.
func (s Scalar) Negate() Scalar {
	return Scalar{s: ristretto255.NewScalar().Negate(s.s)}
}

// Invert returns s^-1. s must be non-zero.
func (s Scalar) Invert() Scalar {
	return Scalar{s: ristretto255.NewScalar().Invert(s.s)}
}

// IsZero reports whether s is the additive identity.
func (s Scalar) IsZero() bool {
	var zero [32]byte
	return subtleEqual(s.Bytes(), zero[:])
}

// Equal reports whether s and t encode the same scalar.
func (s Scalar) Equal(t Scalar) bool {
	return s.s.Equal(t.s) == 1
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p: ristretto255.NewElement().Add(p.p, q.p)}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p: ristretto255.NewElement().Subtract(p.p, q.p)}
}

// Negate returns -p.
func (p Point) Negate() Point {
	return Point{p: ristretto255.NewElement().Negate(p.p)}
}

// ScalarMult returns s * p.
func (p Point) ScalarMult(s Scalar) Point {
	return Point{p: ristretto255.NewElement().ScalarMult(s.s, p.p)}
}

// ScalarBaseMult returns s * B.
func ScalarBaseMult(s Scalar) Point {
	return Point{p: ristretto255.NewElement().ScalarBaseMult(s.s)}
}

// Equal reports whether p and q encode the same point.
func (p Point) Equal(q Point) bool {
	return p.p.Equal(q.p) == 1
}

// MarshalCBOR encodes s as a CBOR byte string holding its canonical
// 32-byte scalar encoding, so payload structs embedding Scalar get a
// stable, content-addressable wire form for free.
func (s Scalar) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(s.Bytes())
}

// UnmarshalCBOR decodes a scalar previously written by MarshalCBOR.
func (s *Scalar) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	v, err := DecodeScalar(b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalCBOR encodes p as a CBOR byte string holding its canonical
// 32-byte compressed encoding.
func (p Point) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(p.Bytes())
}

// UnmarshalCBOR decodes a point previously written by MarshalCBOR.
func (p *Point) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	v, err := DecodePoint(b)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func subtleEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// csRandReader holds the system CSPRNG. No function in this package
// reads from it: every constructor that needs randomness takes its own
// io.Reader.
var csRandReader io.Reader = rand.Reader
