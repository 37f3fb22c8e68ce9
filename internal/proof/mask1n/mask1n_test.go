package mask1n_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/proof/mask1n"
)

func remask(t *testing.T, cand mask1n.Mask, h curve.Point, rho curve.Scalar) mask1n.Mask {
	t.Helper()
	return mask1n.Mask{
		C0: cand.C0.Add(curve.ScalarBaseMult(rho)),
		C1: cand.C1.Add(h.ScalarMult(rho)),
	}
}

func TestMask1NCompleteness(t *testing.T) {
	x, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	h := curve.ScalarBaseMult(x)

	candidates := make([]mask1n.Mask, 4)
	for i := range candidates {
		c0, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		c1, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		candidates[i] = mask1n.Mask{C0: c0, C1: c1}
	}

	const trueIndex = 2
	rho, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	m := remask(t, candidates[trueIndex], h, rho)

	proof, err := mask1n.Prove(candidates, m, h, trueIndex, rho, rand.Reader, nil)
	require.NoError(t, err)
	assert.True(t, proof.Verify(candidates, m, h, nil))
}

func TestMask1NRejectsNonMember(t *testing.T) {
	x, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	h := curve.ScalarBaseMult(x)

	candidates := make([]mask1n.Mask, 3)
	for i := range candidates {
		c0, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		c1, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		candidates[i] = mask1n.Mask{C0: c0, C1: c1}
	}

	// m is not a remasking of any candidate: the prover lies about
	// trueIndex and rho.
	foreignC0, err := curve.RandomPoint(rand.Reader)
	require.NoError(t, err)
	foreignC1, err := curve.RandomPoint(rand.Reader)
	require.NoError(t, err)
	m := mask1n.Mask{C0: foreignC0, C1: foreignC1}

	rho, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	proof, err := mask1n.Prove(candidates, m, h, 0, rho, rand.Reader, nil)
	require.NoError(t, err)
	assert.False(t, proof.Verify(candidates, m, h, nil))
}

func TestMask1NTamperedBranchRejected(t *testing.T) {
	x, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	h := curve.ScalarBaseMult(x)

	candidates := make([]mask1n.Mask, 3)
	for i := range candidates {
		c0, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		c1, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		candidates[i] = mask1n.Mask{C0: c0, C1: c1}
	}

	rho, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	m := remask(t, candidates[1], h, rho)

	proof, err := mask1n.Prove(candidates, m, h, 1, rho, rand.Reader, nil)
	require.NoError(t, err)

	one := curve.ScalarFromUint64(1)
	proof.Branches[0].R = proof.Branches[0].R.Add(one)
	assert.False(t, proof.Verify(candidates, m, h, nil))
}

func TestMask1NContextBinding(t *testing.T) {
	x, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	h := curve.ScalarBaseMult(x)

	candidates := make([]mask1n.Mask, 3)
	for i := range candidates {
		c0, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		c1, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		candidates[i] = mask1n.Mask{C0: c0, C1: c1}
	}

	rho, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	m := remask(t, candidates[1], h, rho)

	context := []byte("caller-bound-commitment")
	proof, err := mask1n.Prove(candidates, m, h, 1, rho, rand.Reader, context)
	require.NoError(t, err)

	assert.True(t, proof.Verify(candidates, m, h, context))
	assert.False(t, proof.Verify(candidates, m, h, []byte("tampered-commitment")))
}
