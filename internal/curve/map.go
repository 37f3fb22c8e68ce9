package curve

import "io"

// tokenOffset is the byte offset at which a 64-bit token is embedded into
// the 32-byte point-encoding buffer.
const tokenOffset = 12

// ToPoint embeds a 64-bit token into a point. It writes x little-endian
// into bytes [12:20) of a 32-byte buffer, fills the remainder with rng,
// and retries decoding as a canonical Ristretto255 point until one
// succeeds. Because Ristretto255's canonical encoding rejects the large
// majority of 32-byte strings, this is a rejection sampler, not a
// deterministic map — many points decode to the same token, which is the
// point: it gives unmasking a label channel that reveals only the token.
func ToPoint(x uint64, rng io.Reader) (Point, error) {
	var buf [32]byte
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return Point{}, err
		}
		putUint64(buf[tokenOffset:tokenOffset+8], x)
		if p, err := DecodePoint(buf[:]); err == nil {
			return p, nil
		}
	}
}

// FromPoint recovers the token embedded by ToPoint by reading bytes
// [12:20) back out of the point's canonical encoding.
func FromPoint(p Point) uint64 {
	b := p.Bytes()
	return getUint64(b[tokenOffset : tokenOffset+8])
}

func putUint64(b []byte, x uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(x >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var x uint64
	for i := 0; i < 8; i++ {
		x |= uint64(b[i]) << (8 * i)
	}
	return x
}
