package vtmf

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/transcript"
)

// PrivateKey is a party's share of the VTMF secret. Created once per
// party on init and never serialized to the chain.
type PrivateKey struct {
	X curve.Scalar
}

// PublicKey is h = x*B.
type PublicKey struct {
	H curve.Point
}

// Fingerprint is the 32-byte keyed-hash identifier of a PublicKey,
// domain-separated by "fingerprint".
type Fingerprint [32]byte

// GenerateKey creates a fresh private/public key pair.
func GenerateKey(rng io.Reader) (PrivateKey, PublicKey, error) {
	x, err := curve.RandomScalar(rng)
	if err != nil {
		return PrivateKey{}, PublicKey{}, err
	}
	return PrivateKey{X: x}, PublicKey{H: curve.ScalarBaseMult(x)}, nil
}

// Fingerprint computes the party fingerprint of a PublicKey.
func (pk PublicKey) Fingerprint() Fingerprint {
	tr := transcript.New("fingerprint")
	tr.Append("pk", pk.H.Bytes())
	var fp Fingerprint
	copy(fp[:], tr.Challenge("fp", 32))
	return fp
}

func (fp Fingerprint) String() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range fp {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// ParseFingerprint parses a Fingerprint from its 64-char hex textual
// form, accepting any case and ignoring leading/trailing whitespace.
func ParseFingerprint(s string) (Fingerprint, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("vtmf: invalid fingerprint: %w", err)
	}
	if len(b) != 32 {
		return Fingerprint{}, fmt.Errorf("vtmf: fingerprint must be 32 bytes, got %d", len(b))
	}
	var fp Fingerprint
	copy(fp[:], b)
	return fp, nil
}

// Less orders fingerprints lexicographically, used to build the
// canonical sorted party set: the ordered set of fingerprints derived
// from the sorted set of public keys.
func (fp Fingerprint) Less(other Fingerprint) bool {
	for i := range fp {
		if fp[i] != other[i] {
			return fp[i] < other[i]
		}
	}
	return false
}

// Engine is a party's VTMF instance: its own keypair, the joint key, and
// the fixed party set.
type Engine struct {
	sk    PrivateKey
	pk    PublicKey
	joint curve.Point
	parties []Fingerprint
	pubkeys map[Fingerprint]PublicKey
}

// New assembles an Engine from the local keypair and the full set of
// party public keys (including the local one). The party set must be
// fixed before use: it never changes after the first post-genesis
// block.
func New(sk PrivateKey, pk PublicKey, allPubKeys []PublicKey) (*Engine, error) {
	joint := curve.NewPoint()
	fps := make([]Fingerprint, 0, len(allPubKeys))
	pubkeys := make(map[Fingerprint]PublicKey, len(allPubKeys))
	for _, p := range allPubKeys {
		fp := p.Fingerprint()
		if _, dup := pubkeys[fp]; dup {
			continue
		}
		pubkeys[fp] = p
		fps = append(fps, fp)
		joint = joint.Add(p.H)
	}
	sort.Slice(fps, func(i, j int) bool { return fps[i].Less(fps[j]) })

	return &Engine{
		sk:      sk,
		pk:      pk,
		joint:   joint,
		parties: fps,
		pubkeys: pubkeys,
	}, nil
}

// JointKey returns the assembled joint public key H = sum(pk_i).
func (e *Engine) JointKey() curve.Point { return e.joint }

// Parties returns the sorted party fingerprint set.
func (e *Engine) Parties() []Fingerprint {
	out := make([]Fingerprint, len(e.parties))
	copy(out, e.parties)
	return out
}

// Self returns the local party's fingerprint.
func (e *Engine) Self() Fingerprint { return e.pk.Fingerprint() }

// csRand is the default external CSPRNG source for engine operations.
var csRand io.Reader = rand.Reader
