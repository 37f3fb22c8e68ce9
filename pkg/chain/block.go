package chain

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/pbmxgo/pbmx/internal/chainerr"
	"github.com/pbmxgo/pbmx/internal/transcript"
	"github.com/pbmxgo/pbmx/pkg/vtmf"
)

// BlockID is the content address of a Block: a keyed hash over its
// parents, payloads, and signer, domain-separated by "pbmx-block-id".
type BlockID [32]byte

func (id BlockID) String() string { return hexString(id[:]) }

// ParseBlockID parses a BlockID from its 64-char hex textual form,
// accepting any case and ignoring leading/trailing whitespace.
func ParseBlockID(s string) (BlockID, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return BlockID{}, fmt.Errorf("chain: invalid block id: %w", err)
	}
	if len(b) != 32 {
		return BlockID{}, fmt.Errorf("chain: block id must be 32 bytes, got %d", len(b))
	}
	var id BlockID
	copy(id[:], b)
	return id, nil
}

// Block is one signed unit of the chain DAG. It may have more than one
// parent (a join) and more than zero children (a fork); the DAG, not the
// block, carries the partial order.
type Block struct {
	Parents  []BlockID      `cbor:"1,keyasint"`
	Payloads []Payload      `cbor:"2,keyasint"`
	Signer   vtmf.PublicKey `cbor:"3,keyasint"`
	Sig      Signature      `cbor:"4,keyasint"`
}

// ID computes the content-addressed BlockID. The signature is excluded
// from the hash (it is computed over the id itself), but the signer's
// public key is included so two different signers over otherwise
// identical content never collide. Parents are absorbed in canonical
// sorted order regardless of how the Builder received them, so the id
// is a pure function of the parent set.
func (b *Block) ID() BlockID {
	parents := make([]BlockID, len(b.Parents))
	copy(parents, b.Parents)
	sort.Slice(parents, func(i, j int) bool { return bytes.Compare(parents[i][:], parents[j][:]) < 0 })

	tr := transcript.New("pbmx-block-id")
	tr.AppendUint64("parents", uint64(len(parents)))
	for _, p := range parents {
		tr.Append("parent", p[:])
	}
	tr.Append("signer", b.Signer.H.Bytes())
	tr.AppendUint64("payloads", uint64(len(b.Payloads)))
	for _, p := range b.Payloads {
		enc, _ := cbor.Marshal(p)
		tr.Append("payload", enc)
	}
	var id BlockID
	copy(id[:], tr.Challenge("id", 32))
	return id
}

// Verify checks the block's signature against its own id.
func (b *Block) Verify() error {
	id := b.ID()
	if !Verify(b.Signer, id[:], b.Sig) {
		return chainerr.New(chainerr.BadSignature, "block signature does not verify").WithCulprit(id.String())
	}
	return nil
}

// Builder accumulates payloads for a not-yet-signed block.
type Builder struct {
	parents  []BlockID
	payloads []Payload
}

// NewBuilder starts a block whose parents are the given BlockIDs (the
// chain's current heads, typically).
func NewBuilder(parents []BlockID) *Builder {
	ps := make([]BlockID, len(parents))
	copy(ps, parents)
	return &Builder{parents: ps}
}

// AddPayload appends one payload to the block under construction.
func (b *Builder) AddPayload(p Payload) *Builder {
	b.payloads = append(b.payloads, p)
	return b
}

// Finalize signs the accumulated payloads under sk/pk and returns the
// completed Block.
func (b *Builder) Finalize(sk vtmf.PrivateKey, pk vtmf.PublicKey, rng io.Reader) (*Block, error) {
	blk := &Block{Parents: b.parents, Payloads: b.payloads, Signer: pk}
	id := blk.ID()
	sig, err := Sign(sk, pk, id[:], rng)
	if err != nil {
		return nil, err
	}
	blk.Sig = sig
	return blk, nil
}

// Encode serializes a Block to its canonical CBOR wire form.
func Encode(b *Block) ([]byte, error) {
	enc, err := cbor.Marshal(b)
	if err != nil {
		return nil, chainerr.Wrap(chainerr.Encoding, "encode block", err)
	}
	return enc, nil
}

// Decode parses a Block from its canonical CBOR wire form.
func Decode(data []byte) (*Block, error) {
	var b Block
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, chainerr.Wrap(chainerr.Decoding, "decode block", err)
	}
	return &b, nil
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}
