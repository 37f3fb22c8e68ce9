// Package state replays an ingested pkg/chain.Chain into the derived
// game state it encodes: which stacks exist, which parties have
// published decryption shares for them, the status of any in-progress
// shared-randomness derivation, and the verdicts of any set-relation
// claims.
package state

import (
	"bytes"
	"fmt"

	"github.com/pbmxgo/pbmx/internal/chainerr"
	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/pkg/chain"
	"github.com/pbmxgo/pbmx/pkg/vtmf"
)

// State is the full derived game state accumulated by replaying a
// Chain. It is rebuilt from scratch by Replay; nothing here is mutated
// outside of that replay.
type State struct {
	// PartyKeys collects every PublishKey payload seen, keyed by
	// fingerprint, in first-seen order.
	PartyKeys map[vtmf.Fingerprint]vtmf.PublicKey
	partyOrder []vtmf.Fingerprint

	// Stacks is the StackMap: every stack ever introduced or derived,
	// by content-addressed id.
	Stacks map[vtmf.StackID]vtmf.Stack

	// Names is the NameStack map: human name -> stack id. Conflicting
	// concurrent names are resolved by (block id, payload index)
	// lexicographic order, first writer wins (DESIGN.md Open Question).
	Names map[string]vtmf.StackID
	nameWinner map[string]claimKey

	// Shares is the SecretMap: per stack, per party, the published
	// decryption share and its proof for every element of that stack (a
	// SecretShare is bound to its mask's own C0, so one share per party
	// cannot stand in for a whole stack the way a single scalar could).
	Shares map[vtmf.StackID]map[vtmf.Fingerprint][]SharedSecret

	// Rng is the RngMap: per named random-derivation session, its
	// accumulated commitments, reveals, and (once complete) value.
	Rng map[string]*RngSession

	// Claims records the verified outcome of every set-relation proof
	// payload (ProveSubset/ProveSuperset/ProveDisjoint), keyed by the
	// block id and payload index that introduced it.
	Claims map[claimKey]Claim

	jointKey curve.Point
}

// SharedSecret is one party's published decryption share for a stack
// element, paired with the proof that backed it.
type SharedSecret struct {
	Share vtmf.SecretShare
	Proof vtmf.ShareProof
}

// RngSession tracks one RandomSpec's entropy-accumulation/reveal
// lifecycle: entropy mask, share accumulator, fingerprint sets.
// Generated once EntropyParties covers every known
// party; Revealed (Value set) once Shares also covers every one of
// those same contributors.
type RngSession struct {
	Spec           chain.RandomSpec
	Entropy        vtmf.Mask
	EntropyParties map[vtmf.Fingerprint]bool
	Shares         map[vtmf.Fingerprint]SharedSecret
	Value          *uint64 // non-nil once every party has contributed entropy and revealed
}

// ClaimKind distinguishes which set relation a Claim verified.
type ClaimKind string

const (
	ClaimSubset       ClaimKind = "Subset"
	ClaimSuperset     ClaimKind = "Superset"
	ClaimDisjoint     ClaimKind = "Disjoint"
	ClaimEntanglement ClaimKind = "Entanglement"
)

// Claim is the verified (or rejected) outcome of one set-relation or
// entanglement proof payload.
type Claim struct {
	Kind  ClaimKind
	Valid bool
}

// Verified reports whether the claim's proof verified when its payload
// was applied. It is fixed at that moment: later PublishShares payloads
// for the claim's output stack do not change it, and the opened tokens
// are not checked against the claimed relation.
func (c Claim) Verified() bool { return c.Valid }

type claimKey struct {
	block chain.BlockID
	index int
}

// Replay rebuilds State from scratch by walking c in its deterministic
// topological order and applying every payload of every block in turn.
// allPubKeys fixes the joint key used to verify every remasking/shuffle/
// share proof encountered; the party set never changes after the first
// post-genesis block, so it is supplied up front rather than derived
// incrementally from PublishKey payloads.
func Replay(c *chain.Chain, allPubKeys []vtmf.PublicKey) (*State, error) {
	verifier, err := vtmf.New(vtmf.PrivateKey{X: curve.NewScalar()}, vtmf.PublicKey{}, allPubKeys)
	if err != nil {
		return nil, err
	}

	s := &State{
		PartyKeys:  make(map[vtmf.Fingerprint]vtmf.PublicKey),
		Stacks:     make(map[vtmf.StackID]vtmf.Stack),
		Names:      make(map[string]vtmf.StackID),
		nameWinner: make(map[string]claimKey),
		Shares:     make(map[vtmf.StackID]map[vtmf.Fingerprint][]SharedSecret),
		Rng:        make(map[string]*RngSession),
		Claims:     make(map[claimKey]Claim),
		jointKey:   verifier.JointKey(),
	}

	for _, b := range c.Walk() {
		id := b.ID()
		for i, p := range b.Payloads {
			if err := s.apply(verifier, id, i, p); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// PartyKeysFromChain collects the fixed VTMF party set: every
// PublishKey payload carried by a root block or by a block whose only
// parent is a root, in first-seen order. A
// chain's joint key is assembled once from this set and never
// revisited; PublishKey payloads arriving later only update naming,
// not the VTMF shared key. Callers typically call this once to obtain
// allPubKeys for Replay.
func PartyKeysFromChain(c *chain.Chain) []vtmf.PublicKey {
	seen := make(map[vtmf.Fingerprint]bool)
	var out []vtmf.PublicKey

	collect := func(b *chain.Block) {
		for _, p := range b.Payloads {
			if p.Kind != chain.KindPublishKey {
				continue
			}
			pk := p.PublishKey.PK
			fp := pk.Fingerprint()
			if !seen[fp] {
				seen[fp] = true
				out = append(out, pk)
			}
		}
	}

	roots := c.Roots()
	for _, rid := range roots {
		if b, ok := c.Get(rid); ok {
			collect(b)
		}
	}
	for _, b := range c.Walk() {
		for _, rid := range roots {
			if len(b.Parents) == 1 && b.Parents[0] == rid {
				collect(b)
				break
			}
		}
	}
	return out
}

// ParseDieSpec interprets the small "d<N>" RandomSpec convention used by
// the original pbmx CLI's rng subcommands (e.g. "d2", "d6", "d20") as a
// convenience for callers reducing an RNG's raw Value by its die's face
// count; it is not interpreted anywhere inside Replay itself, which
// treats Spec as an opaque string.
func ParseDieSpec(spec string) (faces uint64, ok bool) {
	if len(spec) < 2 || spec[0] != 'd' {
		return 0, false
	}
	var n uint64
	for _, r := range spec[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + uint64(r-'0')
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

func (s *State) apply(v *vtmf.Engine, block chain.BlockID, index int, p chain.Payload) error {
	ck := claimKey{block: block, index: index}
	switch p.Kind {
	case chain.KindPublishKey:
		pk := p.PublishKey.PK
		fp := pk.Fingerprint()
		if _, dup := s.PartyKeys[fp]; !dup {
			s.PartyKeys[fp] = pk
			s.partyOrder = append(s.partyOrder, fp)
		}

	case chain.KindOpenStack:
		s.Stacks[p.OpenStack.Stack.ID()] = p.OpenStack.Stack
	case chain.KindPrivateStack:
		s.Stacks[p.PrivateStack.Stack.ID()] = p.PrivateStack.Stack
	case chain.KindMaskStack:
		s.Stacks[p.MaskStack.Stack.ID()] = p.MaskStack.Stack

	case chain.KindShuffleStack:
		pl := p.ShuffleStack
		parent, ok := s.Stacks[pl.Parent]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "ShuffleStack: unknown parent stack").WithCulprit(pl.Parent.String())
		}
		if !v.VerifyShuffle(parent, pl.Stack, pl.Proof) {
			return chainerr.New(chainerr.BadProof, "ShuffleStack: shuffle proof failed")
		}
		s.Stacks[pl.Stack.ID()] = pl.Stack

	case chain.KindShiftStack:
		pl := p.ShiftStack
		parent, ok := s.Stacks[pl.Parent]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "ShiftStack: unknown parent stack").WithCulprit(pl.Parent.String())
		}
		if !v.VerifyShift(parent, pl.Stack, pl.Proof) {
			return chainerr.New(chainerr.BadProof, "ShiftStack: shift proof failed")
		}
		s.Stacks[pl.Stack.ID()] = pl.Stack

	case chain.KindNameStack:
		pl := p.NameStack
		if _, ok := s.Stacks[pl.Stack]; !ok {
			return chainerr.New(chainerr.InvalidData, "NameStack: unknown stack").WithCulprit(pl.Stack.String())
		}
		prev, exists := s.nameWinner[pl.Name]
		if !exists || ck.less(prev) {
			s.Names[pl.Name] = pl.Stack
			s.nameWinner[pl.Name] = ck
		}

	case chain.KindTakeStack:
		pl := p.TakeStack
		parent, ok := s.Stacks[pl.Parent]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "TakeStack: unknown parent stack").WithCulprit(pl.Parent.String())
		}
		if len(pl.Indices) != len(pl.Stack) {
			return chainerr.New(chainerr.InvalidData, "TakeStack: index/stack length mismatch")
		}
		for i, idx := range pl.Indices {
			if idx < 0 || idx >= len(parent) || !masksEqual(parent[idx], pl.Stack[i]) {
				return chainerr.New(chainerr.InvalidData, "TakeStack: claimed element does not match parent")
			}
		}
		s.Stacks[pl.Stack.ID()] = pl.Stack

	case chain.KindPileStacks:
		pl := p.PileStacks
		want := make(vtmf.Stack, 0, len(pl.Stack))
		for _, parentID := range pl.Parents {
			parent, ok := s.Stacks[parentID]
			if !ok {
				return chainerr.New(chainerr.InvalidData, "PileStacks: unknown parent stack").WithCulprit(parentID.String())
			}
			want = append(want, parent...)
		}
		if len(want) != len(pl.Stack) {
			return chainerr.New(chainerr.InvalidData, "PileStacks: length mismatch")
		}
		for i := range want {
			if !masksEqual(want[i], pl.Stack[i]) {
				return chainerr.New(chainerr.InvalidData, "PileStacks: claimed concatenation does not match parents")
			}
		}
		s.Stacks[pl.Stack.ID()] = pl.Stack

	case chain.KindInsertStack:
		pl := p.InsertStack
		parent, ok := s.Stacks[pl.Parent]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "InsertStack: unknown parent stack").WithCulprit(pl.Parent.String())
		}
		ins, ok := s.Stacks[pl.Insertion]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "InsertStack: unknown insertion stack").WithCulprit(pl.Insertion.String())
		}
		if pl.At < 0 || pl.At > len(parent) {
			return chainerr.New(chainerr.InvalidData, "InsertStack: position out of range")
		}
		if !v.VerifyInsert(parent, ins, pl.Stack, pl.At, pl.Proof) {
			return chainerr.New(chainerr.BadProof, "InsertStack: insert proof failed")
		}
		s.Stacks[pl.Stack.ID()] = pl.Stack

	case chain.KindPublishShares:
		pl := p.PublishShares
		stack, ok := s.Stacks[pl.Stack]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "PublishShares: unknown stack").WithCulprit(pl.Stack.String())
		}
		pk, ok := s.PartyKeys[pl.Publisher]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "PublishShares: publisher never published a key")
		}
		if len(pl.Shares) != len(stack) || len(pl.Proofs) != len(stack) {
			return chainerr.New(chainerr.InvalidData, "PublishShares: length mismatch with stack")
		}
		for i, m := range stack {
			if !vtmf.VerifyShare(m, pk, pl.Shares[i], pl.Proofs[i]) {
				return chainerr.New(chainerr.BadProof, "PublishShares: share proof failed").WithCulprit(pl.Publisher.String())
			}
		}
		if s.Shares[pl.Stack] == nil {
			s.Shares[pl.Stack] = make(map[vtmf.Fingerprint][]SharedSecret)
		}
		perElement := make([]SharedSecret, len(pl.Shares))
		for i := range pl.Shares {
			perElement[i] = SharedSecret{Share: pl.Shares[i], Proof: pl.Proofs[i]}
		}
		s.Shares[pl.Stack][pl.Publisher] = perElement

	case chain.KindRandomSpec:
		pl := p.RandomSpec
		if _, exists := s.Rng[pl.Name]; exists {
			return chainerr.New(chainerr.InvalidData, fmt.Sprintf("RandomSpec: %q already declared", pl.Name))
		}
		s.Rng[pl.Name] = &RngSession{
			Spec:           *pl,
			EntropyParties: make(map[vtmf.Fingerprint]bool),
			Shares:         make(map[vtmf.Fingerprint]SharedSecret),
		}

	case chain.KindRandomEntropy:
		pl := p.RandomEntropy
		sess, ok := s.Rng[pl.Name]
		if !ok {
			return chainerr.New(chainerr.InvalidData, fmt.Sprintf("RandomEntropy: unknown session %q", pl.Name))
		}
		if !sess.EntropyParties[pl.Publisher] {
			sess.Entropy = sess.Entropy.Add(pl.Entropy)
			sess.EntropyParties[pl.Publisher] = true
		}

	case chain.KindRandomReveal:
		pl := p.RandomReveal
		sess, ok := s.Rng[pl.Name]
		if !ok {
			return chainerr.New(chainerr.InvalidData, fmt.Sprintf("RandomReveal: unknown session %q", pl.Name))
		}
		if !sess.EntropyParties[pl.Publisher] {
			return chainerr.New(chainerr.InvalidData, "RandomReveal: publisher never contributed entropy").WithCulprit(pl.Publisher.String())
		}
		pk, ok := s.PartyKeys[pl.Publisher]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "RandomReveal: publisher never published a key")
		}
		if !vtmf.VerifyShare(sess.Entropy, pk, pl.Share, pl.Proof) {
			return chainerr.New(chainerr.BadProof, "RandomReveal: share proof failed").WithCulprit(pl.Publisher.String())
		}
		sess.Shares[pl.Publisher] = SharedSecret{Share: pl.Share, Proof: pl.Proof}
		if sess.Value == nil && len(sess.EntropyParties) == len(v.Parties()) && len(sess.Shares) == len(sess.EntropyParties) {
			shares := make([]vtmf.SecretShare, 0, len(sess.Shares))
			for _, sh := range sess.Shares {
				shares = append(shares, sh.Share)
			}
			token := curve.FromPoint(vtmf.UnmaskAll(sess.Entropy, shares))
			sess.Value = &token
		}

	case chain.KindProveSubset, chain.KindProveSuperset, chain.KindProveDisjoint:
		var pl *chain.ProveSetRelation
		var kind ClaimKind
		switch p.Kind {
		case chain.KindProveSubset:
			pl, kind = p.ProveSubset, ClaimSubset
		case chain.KindProveSuperset:
			pl, kind = p.ProveSuperset, ClaimSuperset
		default:
			pl, kind = p.ProveDisjoint, ClaimDisjoint
		}
		universe, ok := s.Stacks[pl.Universe]
		if !ok {
			return chainerr.New(chainerr.InvalidData, "set-relation proof: unknown universe stack").WithCulprit(pl.Universe.String())
		}
		var valid bool
		switch kind {
		case ClaimSubset:
			valid = v.VerifySubset(universe, pl.Output, vtmf.SetProof(pl.Proof))
		case ClaimSuperset:
			valid = v.VerifySuperset(universe, pl.Output, vtmf.SetProof(pl.Proof))
		default:
			valid = v.VerifyDisjoint(universe, pl.Output, vtmf.SetProof(pl.Proof))
		}
		if valid {
			s.Stacks[pl.Output.ID()] = pl.Output
		}
		s.Claims[ck] = Claim{Kind: kind, Valid: valid}

	case chain.KindProveEntanglement:
		pl := p.ProveEntanglement
		streams := make([]vtmf.EntangledStream, len(pl.Streams))
		for i, ref := range pl.Streams {
			src, ok := s.Stacks[ref.Src]
			if !ok {
				return chainerr.New(chainerr.InvalidData, "ProveEntanglement: unknown source stack").WithCulprit(ref.Src.String())
			}
			dst, ok := s.Stacks[ref.Dst]
			if !ok {
				return chainerr.New(chainerr.InvalidData, "ProveEntanglement: unknown destination stack").WithCulprit(ref.Dst.String())
			}
			streams[i] = vtmf.EntangledStream{Src: src, Dst: dst}
		}
		valid := v.VerifyEntanglement(streams, pl.Proof)
		s.Claims[ck] = Claim{Kind: ClaimEntanglement, Valid: valid}
		if !valid {
			return chainerr.New(chainerr.BadProof, "ProveEntanglement: entanglement proof failed")
		}

	case chain.KindBytes, chain.KindText:
		// Inert attachments; intentionally affect no derived state.

	default:
		return chainerr.New(chainerr.InvalidData, fmt.Sprintf("unknown payload kind %q", p.Kind))
	}
	return nil
}

func (ck claimKey) less(other claimKey) bool {
	c := bytes.Compare(ck.block[:], other.block[:])
	if c != 0 {
		return c < 0
	}
	return ck.index < other.index
}

func masksEqual(a, b vtmf.Mask) bool {
	return a.C0.Equal(b.C0) && a.C1.Equal(b.C1)
}

