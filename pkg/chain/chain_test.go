package chain_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbmxgo/pbmx/pkg/chain"
	"github.com/pbmxgo/pbmx/pkg/vtmf"
)

func genKey(t *testing.T) (vtmf.PrivateKey, vtmf.PublicKey) {
	t.Helper()
	sk, pk, err := vtmf.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return sk, pk
}

func TestBlockIDIgnoresParentOrder(t *testing.T) {
	sk, pk := genKey(t)

	genesis, err := chain.NewBuilder(nil).
		AddPayload(chain.Payload{Kind: chain.KindPublishKey, PublishKey: &chain.PublishKey{PK: pk}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	b1, err := chain.NewBuilder([]chain.BlockID{genesis.ID()}).
		AddPayload(chain.Payload{Kind: chain.KindText, Text: &chain.TextPayload{Text: "a"}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)
	b2, err := chain.NewBuilder([]chain.BlockID{genesis.ID()}).
		AddPayload(chain.Payload{Kind: chain.KindText, Text: &chain.TextPayload{Text: "b"}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	merge1, err := chain.NewBuilder([]chain.BlockID{b1.ID(), b2.ID()}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)
	merge2, err := chain.NewBuilder([]chain.BlockID{b2.ID(), b1.ID()}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	assert.Equal(t, merge1.ID(), merge2.ID(), "block id must not depend on caller-supplied parent order")
}

func TestBlockTamperedSignatureRejected(t *testing.T) {
	sk, pk := genKey(t)
	blk, err := chain.NewBuilder(nil).
		AddPayload(chain.Payload{Kind: chain.KindPublishKey, PublishKey: &chain.PublishKey{PK: pk}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, blk.Verify())

	_, otherPk := genKey(t)
	blk.Signer = otherPk
	assert.Error(t, blk.Verify())
}

func TestChainBuffersOutOfOrderBlocks(t *testing.T) {
	sk, pk := genKey(t)
	genesis, err := chain.NewBuilder(nil).
		AddPayload(chain.Payload{Kind: chain.KindPublishKey, PublishKey: &chain.PublishKey{PK: pk}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	child, err := chain.NewBuilder([]chain.BlockID{genesis.ID()}).
		AddPayload(chain.Payload{Kind: chain.KindText, Text: &chain.TextPayload{Text: "hi"}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	c := chain.New()
	require.NoError(t, c.Ingest(child)) // arrives before its parent
	assert.Equal(t, 1, c.Pending())
	_, ok := c.Get(child.ID())
	assert.False(t, ok, "a block with a missing parent must not be admitted yet")

	require.NoError(t, c.Ingest(genesis))
	assert.Equal(t, 0, c.Pending())
	_, ok = c.Get(child.ID())
	assert.True(t, ok, "buffered block must be admitted once its parent arrives")
}

func TestChainIngestDuplicateIsNoOp(t *testing.T) {
	sk, pk := genKey(t)
	genesis, err := chain.NewBuilder(nil).
		AddPayload(chain.Payload{Kind: chain.KindPublishKey, PublishKey: &chain.PublishKey{PK: pk}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	c := chain.New()
	require.NoError(t, c.Ingest(genesis))
	require.NoError(t, c.Ingest(genesis))
	assert.Len(t, c.Walk(), 1)
}

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	sk, pk := genKey(t)
	blk, err := chain.NewBuilder(nil).
		AddPayload(chain.Payload{Kind: chain.KindPublishKey, PublishKey: &chain.PublishKey{PK: pk}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	enc, err := chain.Encode(blk)
	require.NoError(t, err)

	got, err := chain.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, blk.ID(), got.ID())
	require.NoError(t, got.Verify())
}

func TestParseBlockIDRoundTrip(t *testing.T) {
	sk, pk := genKey(t)
	blk, err := chain.NewBuilder(nil).
		AddPayload(chain.Payload{Kind: chain.KindPublishKey, PublishKey: &chain.PublishKey{PK: pk}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	id := blk.ID()
	parsed, err := chain.ParseBlockID("  " + id.String() + "\n")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = chain.ParseBlockID("not-hex")
	assert.Error(t, err)
}

func TestWalkRespectsParentOrder(t *testing.T) {
	sk, pk := genKey(t)
	genesis, err := chain.NewBuilder(nil).
		AddPayload(chain.Payload{Kind: chain.KindPublishKey, PublishKey: &chain.PublishKey{PK: pk}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	child, err := chain.NewBuilder([]chain.BlockID{genesis.ID()}).
		AddPayload(chain.Payload{Kind: chain.KindText, Text: &chain.TextPayload{Text: "x"}}).
		Finalize(sk, pk, rand.Reader)
	require.NoError(t, err)

	c := chain.New()
	require.NoError(t, c.Ingest(genesis))
	require.NoError(t, c.Ingest(child))

	order := c.Walk()
	require.Len(t, order, 2)
	assert.Equal(t, genesis.ID(), order[0].ID())
	assert.Equal(t, child.ID(), order[1].ID())
}
