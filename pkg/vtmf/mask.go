// Package vtmf implements the Verifiable k-out-of-k Threshold Masking
// Function engine: joint-key assembly, masking/remasking, verifiable
// shuffle/shift/insert, and threshold decryption.
package vtmf

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/transcript"
)

// Mask is an ElGamal-style ciphertext pair (c0, c1) under the joint key.
type Mask struct {
	C0, C1 curve.Point
}

// Add implements mask composition: remasking adds (r*B, r*H) for a fresh
// r, which is exactly vector addition of the two underlying points.
func (m Mask) Add(o Mask) Mask {
	return Mask{C0: m.C0.Add(o.C0), C1: m.C1.Add(o.C1)}
}

// Bytes returns the 64-byte canonical encoding (c0 || c1).
func (m Mask) Bytes() []byte {
	b := make([]byte, 0, 64)
	b = append(b, m.C0.Bytes()...)
	b = append(b, m.C1.Bytes()...)
	return b
}

// DecodeMask parses a 64-byte canonical mask encoding.
func DecodeMask(b []byte) (Mask, error) {
	if len(b) != 64 {
		return Mask{}, curve.ErrDecode
	}
	c0, err := curve.DecodePoint(b[:32])
	if err != nil {
		return Mask{}, err
	}
	c1, err := curve.DecodePoint(b[32:])
	if err != nil {
		return Mask{}, err
	}
	return Mask{C0: c0, C1: c1}, nil
}

// Stack is an ordered sequence of Masks.
type Stack []Mask

// StackID is the content address of a Stack: a keyed hash of its mask
// sequence, domain-separated by "pbmx-stack-id". Two stacks with
// identical mask order share the same ID; order matters.
type StackID [32]byte

// ID computes the content-addressed StackID for s.
func (s Stack) ID() StackID {
	tr := transcript.New("pbmx-stack-id")
	tr.AppendUint64("len", uint64(len(s)))
	for _, m := range s {
		tr.Append("mask", m.Bytes())
	}
	var id StackID
	copy(id[:], tr.Challenge("id", 32))
	return id
}

func (id StackID) String() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range id {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// ParseStackID parses a StackID from its 64-char hex textual form,
// accepting any case and ignoring leading/trailing whitespace.
func ParseStackID(s string) (StackID, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return StackID{}, fmt.Errorf("vtmf: invalid stack id: %w", err)
	}
	if len(b) != 32 {
		return StackID{}, fmt.Errorf("vtmf: stack id must be 32 bytes, got %d", len(b))
	}
	var id StackID
	copy(id[:], b)
	return id, nil
}
