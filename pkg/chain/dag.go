package chain

import (
	"bytes"
	"sort"
)

// Chain is an in-memory append-only DAG of signed Blocks. It performs
// block-level validation on an already-decoded Block (decoding is
// Decode's job): (1) it is not a duplicate of an already-ingested block,
// (2) its signature verifies over the id recomputed from its content,
// (3) every parent is already known (a block whose parent hasn't arrived
// yet is buffered, not rejected). Payload-level semantic validation (does
// this ShuffleStack's proof verify against its claimed parent stack, is
// this the first PublishKey from this party, ...) is the job of
// pkg/state, which replays blocks in the deterministic order Walk
// produces.
type Chain struct {
	blocks   map[BlockID]*Block
	children map[BlockID][]BlockID
	pending  map[BlockID][]*Block // keyed by the missing parent being waited on
	roots    []BlockID
}

// New returns an empty Chain.
func New() *Chain {
	return &Chain{
		blocks:   make(map[BlockID]*Block),
		children: make(map[BlockID][]BlockID),
		pending:  make(map[BlockID][]*Block),
	}
}

// Ingest validates and admits b into the DAG. If b names a parent not
// yet seen, it is buffered until that parent arrives (returning nil, not
// an error: an out-of-order arrival is not malformed). Ingesting the
// same block twice is a no-op.
func (c *Chain) Ingest(b *Block) error {
	id := b.ID()
	if _, ok := c.blocks[id]; ok {
		return nil
	}
	if err := b.Verify(); err != nil {
		return err
	}

	for _, p := range b.Parents {
		if _, ok := c.blocks[p]; !ok {
			c.pending[p] = append(c.pending[p], b)
			return nil
		}
	}

	return c.admit(id, b)
}

// admit records b as ingested and recursively admits any pending blocks
// that were only waiting on b.
func (c *Chain) admit(id BlockID, b *Block) error {
	c.blocks[id] = b
	if len(b.Parents) == 0 {
		c.roots = append(c.roots, id)
	}
	for _, p := range b.Parents {
		c.children[p] = append(c.children[p], id)
	}

	waiting := c.pending[id]
	delete(c.pending, id)
	for _, w := range waiting {
		if err := c.Ingest(w); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the block with the given id, if known.
func (c *Chain) Get(id BlockID) (*Block, bool) {
	b, ok := c.blocks[id]
	return b, ok
}

// Heads returns every block with no admitted children, sorted
// lexicographically by id for determinism.
func (c *Chain) Heads() []BlockID {
	var heads []BlockID
	for id := range c.blocks {
		if len(c.children[id]) == 0 {
			heads = append(heads, id)
		}
	}
	sortIDs(heads)
	return heads
}

// Roots returns every parentless (genesis) block, sorted
// lexicographically by id.
func (c *Chain) Roots() []BlockID {
	out := make([]BlockID, len(c.roots))
	copy(out, c.roots)
	sortIDs(out)
	return out
}

// Pending reports how many blocks are buffered awaiting a missing
// parent, useful for diagnostics and tests.
func (c *Chain) Pending() int {
	n := 0
	for _, ws := range c.pending {
		n += len(ws)
	}
	return n
}

// Walk returns every admitted block in a deterministic topological
// order: a block never precedes any of its parents, and ties among
// simultaneously-ready blocks are broken by ascending BlockID, giving
// every replaying party the same linearization of the DAG.
func (c *Chain) Walk() []*Block {
	indegree := make(map[BlockID]int, len(c.blocks))
	for id, b := range c.blocks {
		indegree[id] = len(b.Parents)
	}

	var ready []BlockID
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sortIDs(ready)

	order := make([]*Block, 0, len(c.blocks))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, c.blocks[id])

		var newlyReady []BlockID
		for _, child := range c.children[id] {
			indegree[child]--
			if indegree[child] == 0 {
				newlyReady = append(newlyReady, child)
			}
		}
		if len(newlyReady) == 0 {
			continue
		}
		sortIDs(newlyReady)
		merged := make([]BlockID, 0, len(ready)+len(newlyReady))
		i, j := 0, 0
		for i < len(ready) && j < len(newlyReady) {
			if bytes.Compare(ready[i][:], newlyReady[j][:]) <= 0 {
				merged = append(merged, ready[i])
				i++
			} else {
				merged = append(merged, newlyReady[j])
				j++
			}
		}
		merged = append(merged, ready[i:]...)
		merged = append(merged, newlyReady[j:]...)
		ready = merged
	}

	if len(order) != len(c.blocks) {
		return order // a cycle would be a chain bug, not a payload error; surfaced via length mismatch to callers that check it
	}
	return order
}

func sortIDs(ids []BlockID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
