// Package chain implements the append-only, signed, hash-linked block
// DAG that carries VTMF operations between parties; the derived game
// state those operations produce is built by pkg/state. Structurally this
// plays the role the teacher's pkg/tss played for a protocol round: a
// typed message envelope threaded through validation and applied to
// accumulated state, generalized here from a single linear round
// sequence into a partially-ordered DAG of signed blocks.
package chain

import (
	"github.com/pbmxgo/pbmx/pkg/vtmf"
)

// Kind discriminates the payload union.
type Kind string

const (
	KindPublishKey        Kind = "PublishKey"
	KindOpenStack         Kind = "OpenStack"
	KindPrivateStack      Kind = "PrivateStack"
	KindMaskStack         Kind = "MaskStack"
	KindShuffleStack      Kind = "ShuffleStack"
	KindShiftStack        Kind = "ShiftStack"
	KindNameStack         Kind = "NameStack"
	KindTakeStack         Kind = "TakeStack"
	KindPileStacks        Kind = "PileStacks"
	KindInsertStack       Kind = "InsertStack"
	KindPublishShares     Kind = "PublishShares"
	KindRandomSpec        Kind = "RandomSpec"
	KindRandomEntropy     Kind = "RandomEntropy"
	KindRandomReveal      Kind = "RandomReveal"
	KindProveSubset       Kind = "ProveSubset"
	KindProveSuperset     Kind = "ProveSuperset"
	KindProveDisjoint     Kind = "ProveDisjoint"
	KindProveEntanglement Kind = "ProveEntanglement"
	KindBytes             Kind = "Bytes"
	KindText              Kind = "Text"
)

// Payload is the tagged union of every operation a block may carry.
// Exactly one of the pointer fields matching Kind is set; this is the
// plain-struct tagged-union idiom (Kind discriminator plus one optional
// field per variant) rather than a Go interface, so the type round-trips
// through CBOR without a custom registry.
type Payload struct {
	Kind Kind `cbor:"1,keyasint"`

	PublishKey        *PublishKey        `cbor:"2,keyasint,omitempty"`
	OpenStack         *OpenStack         `cbor:"3,keyasint,omitempty"`
	PrivateStack      *PrivateStack      `cbor:"4,keyasint,omitempty"`
	MaskStack         *MaskStack         `cbor:"5,keyasint,omitempty"`
	ShuffleStack      *ShuffleStack      `cbor:"6,keyasint,omitempty"`
	ShiftStack        *ShiftStack        `cbor:"7,keyasint,omitempty"`
	NameStack         *NameStack         `cbor:"8,keyasint,omitempty"`
	TakeStack         *TakeStack         `cbor:"9,keyasint,omitempty"`
	PileStacks        *PileStacks        `cbor:"10,keyasint,omitempty"`
	InsertStack       *InsertStack       `cbor:"11,keyasint,omitempty"`
	PublishShares     *PublishShares     `cbor:"12,keyasint,omitempty"`
	RandomSpec        *RandomSpec        `cbor:"13,keyasint,omitempty"`
	RandomEntropy     *RandomEntropy     `cbor:"14,keyasint,omitempty"`
	RandomReveal      *RandomReveal      `cbor:"15,keyasint,omitempty"`
	ProveSubset       *ProveSetRelation  `cbor:"16,keyasint,omitempty"`
	ProveSuperset     *ProveSetRelation  `cbor:"17,keyasint,omitempty"`
	ProveDisjoint     *ProveSetRelation  `cbor:"18,keyasint,omitempty"`
	ProveEntanglement *ProveEntanglement `cbor:"19,keyasint,omitempty"`
	Bytes             *BytesPayload      `cbor:"20,keyasint,omitempty"`
	Text              *TextPayload       `cbor:"21,keyasint,omitempty"`
}

// PublishKey announces a party's VTMF public key, contributing it to the
// joint key assembled once every party has published.
type PublishKey struct {
	PK vtmf.PublicKey `cbor:"1,keyasint"`
}

// OpenStack introduces a brand-new stack whose tokens are plaintext to
// everyone (e.g. the initial face-up deck definition): each mask was
// built with vtmf.MaskOpen, so the token is directly recoverable from the
// mask bytes by any replaying party.
type OpenStack struct {
	Stack vtmf.Stack `cbor:"1,keyasint"`
}

// PrivateStack introduces a stack of tokens known only to the publisher
// at the time of publication (e.g. a player's freshly drawn hole card),
// masked under the joint key via vtmf.Engine.MaskRandom so nobody else
// can open it without a subsequent PublishShares.
type PrivateStack struct {
	Stack vtmf.Stack `cbor:"1,keyasint"`
}

// MaskStack introduces a stack of freshly masked, publicly-unknown
// tokens (no party knows the plaintext yet — it was embedded by a
// trusted setup step before any key existed, or is meant to be decided
// collaboratively via RandomSpec/RandomEntropy/RandomReveal).
type MaskStack struct {
	Stack vtmf.Stack `cbor:"1,keyasint"`
}

// ShuffleStack claims Stack is Parent's masks under a hidden permutation.
type ShuffleStack struct {
	Parent vtmf.StackID       `cbor:"1,keyasint"`
	Stack  vtmf.Stack         `cbor:"2,keyasint"`
	Proof  vtmf.ShuffleProof  `cbor:"3,keyasint"`
}

// ShiftStack claims Stack is Parent cyclically rotated by a hidden
// amount.
type ShiftStack struct {
	Parent vtmf.StackID     `cbor:"1,keyasint"`
	Stack  vtmf.Stack       `cbor:"2,keyasint"`
	Proof  vtmf.ShiftProof  `cbor:"3,keyasint"`
}

// NameStack binds a human-readable name to a stack id, so later payloads
// and external collaborators can refer to "the deck" instead of a raw
// StackID. Two concurrent NameStack payloads for the same name are
// resolved deterministically by (block id, payload index) lexicographic
// order — see DESIGN.md's Open Question decision.
type NameStack struct {
	Stack vtmf.StackID `cbor:"1,keyasint"`
	Name  string       `cbor:"2,keyasint"`
}

// TakeStack extracts a sub-sequence of Parent's masks (no remasking, no
// proof required: the split is a public, order-preserving selection).
type TakeStack struct {
	Parent  vtmf.StackID `cbor:"1,keyasint"`
	Indices []int        `cbor:"2,keyasint"`
	Stack   vtmf.Stack   `cbor:"3,keyasint"`
}

// PileStacks concatenates several parent stacks, in the given order,
// into one new stack (no remasking, no proof required).
type PileStacks struct {
	Parents []vtmf.StackID `cbor:"1,keyasint"`
	Stack   vtmf.Stack     `cbor:"2,keyasint"`
}

// InsertStack splices Insertion's masks into Parent at position At,
// remasking every element and carrying a known-shuffle InsertProof
// binding Stack to that public splice permutation of Parent||Insertion.
type InsertStack struct {
	Parent    vtmf.StackID     `cbor:"1,keyasint"`
	At        int              `cbor:"2,keyasint"`
	Insertion vtmf.StackID     `cbor:"3,keyasint"`
	Stack     vtmf.Stack       `cbor:"4,keyasint"`
	Proof     vtmf.InsertProof `cbor:"5,keyasint"`
}

// PublishShares reveals the publisher's decryption shares for every mask
// in Stack, together with a proof each share used the publisher's own
// private key. Once every party in the current set has published, the
// stack's tokens become recoverable by anyone.
type PublishShares struct {
	Stack     vtmf.StackID       `cbor:"1,keyasint"`
	Publisher vtmf.Fingerprint   `cbor:"2,keyasint"`
	Shares    []vtmf.SecretShare `cbor:"3,keyasint"`
	Proofs    []vtmf.ShareProof  `cbor:"4,keyasint"`
}

// RandomSpec declares a named shared-randomness derivation, with Spec
// describing its shape for consumers outside this core (e.g. "d2",
// "d6", "card52"); the core itself only uses Name as a session key.
type RandomSpec struct {
	Name string `cbor:"1,keyasint"`
	Spec string `cbor:"2,keyasint"`
}

// RandomEntropy contributes one party's masked randomness toward Name's
// shared value. Entropy masks sum homomorphically across every
// contributing party exactly like a remasking (vtmf.Mask.Add); the sum
// stays hidden under the joint key until every contributor later
// reveals its decryption share via RandomReveal.
type RandomEntropy struct {
	Name      string           `cbor:"1,keyasint"`
	Publisher vtmf.Fingerprint `cbor:"2,keyasint"`
	Entropy   vtmf.Mask        `cbor:"3,keyasint"`
}

// RandomReveal publishes one party's decryption share of Name's
// accumulated entropy mask, the same threshold-decryption step as
// PublishShares but scoped to a single RNG session.
type RandomReveal struct {
	Name      string           `cbor:"1,keyasint"`
	Publisher vtmf.Fingerprint `cbor:"2,keyasint"`
	Share     vtmf.SecretShare `cbor:"3,keyasint"`
	Proof     vtmf.ShareProof  `cbor:"4,keyasint"`
}

// ProveSetRelation backs ProveSubset, ProveSuperset, and ProveDisjoint:
// all three share the same shuffle-witness shape, only the Split
// field's meaning differs (claimed-subset prefix length for
// subset/superset, partition boundary between the two operands for
// disjoint).
type ProveSetRelation struct {
	Universe vtmf.StackID  `cbor:"1,keyasint"`
	Output   vtmf.Stack    `cbor:"2,keyasint"`
	Split    int           `cbor:"3,keyasint"`
	Proof    vtmf.SetProof `cbor:"4,keyasint"`
}

// EntangledStreamRef names one stream of an entanglement proof by the
// stack ids of its source and destination (the actual masks are looked
// up from already-ingested state when the proof is replayed).
type EntangledStreamRef struct {
	Src, Dst vtmf.StackID `cbor:"1,keyasint"`
}

// ProveEntanglement binds several ShuffleStack/ShiftStack operations
// (named by stack id) to have used one shared secret permutation.
type ProveEntanglement struct {
	Streams []EntangledStreamRef     `cbor:"1,keyasint"`
	Proof   vtmf.EntanglementProof   `cbor:"2,keyasint"`
}

// BytesPayload is an opaque attachment that does not affect derived
// game state.
type BytesPayload struct {
	Data []byte `cbor:"1,keyasint"`
}

// TextPayload is a human-readable attachment, likewise inert for
// derived game state.
type TextPayload struct {
	Text string `cbor:"1,keyasint"`
}
