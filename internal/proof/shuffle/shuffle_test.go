package shuffle_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbmxgo/pbmx/internal/curve"
	"github.com/pbmxgo/pbmx/internal/perm"
	"github.com/pbmxgo/pbmx/internal/proof/shuffle"
)

func randomStack(t *testing.T, n int) []shuffle.Mask {
	t.Helper()
	out := make([]shuffle.Mask, n)
	for i := range out {
		c0, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		c1, err := curve.RandomPoint(rand.Reader)
		require.NoError(t, err)
		out[i] = shuffle.Mask{C0: c0, C1: c1}
	}
	return out
}

func remaskAll(t *testing.T, src []shuffle.Mask, pi perm.Permutation, h curve.Point) ([]shuffle.Mask, []curve.Scalar) {
	t.Helper()
	n := pi.Len()
	dst := make([]shuffle.Mask, n)
	rho := make([]curve.Scalar, n)
	for i := 0; i < n; i++ {
		r, err := curve.RandomScalar(rand.Reader)
		require.NoError(t, err)
		rho[i] = r
		s := src[pi.At(i)]
		dst[i] = shuffle.Mask{C0: s.C0.Add(curve.ScalarBaseMult(r)), C1: s.C1.Add(h.ScalarMult(r))}
	}
	return dst, rho
}

func jointKey(t *testing.T) curve.Point {
	t.Helper()
	x, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	return curve.ScalarBaseMult(x)
}

func TestKnownShuffleRoundTrip(t *testing.T) {
	h := jointKey(t)
	src := randomStack(t, 5)
	pi, err := perm.Random(5, rand.Reader)
	require.NoError(t, err)
	dst, rho := remaskAll(t, src, pi, h)

	proof, err := shuffle.ProveKnown(src, dst, pi, rho, h, rand.Reader)
	require.NoError(t, err)
	assert.True(t, shuffle.VerifyKnown(src, dst, pi, h, proof))
}

func TestKnownShuffleWrongPermutationRejected(t *testing.T) {
	h := jointKey(t)
	src := randomStack(t, 4)
	pi, err := perm.Random(4, rand.Reader)
	require.NoError(t, err)
	dst, rho := remaskAll(t, src, pi, h)

	proof, err := shuffle.ProveKnown(src, dst, pi, rho, h, rand.Reader)
	require.NoError(t, err)

	wrong := perm.Shift(4, 1)
	assert.False(t, shuffle.VerifyKnown(src, dst, wrong, h, proof))
}

func TestSecretShuffleRoundTrip(t *testing.T) {
	h := jointKey(t)
	src := randomStack(t, 6)
	pi, err := perm.Random(6, rand.Reader)
	require.NoError(t, err)
	dst, rho := remaskAll(t, src, pi, h)

	proof, err := shuffle.ProveSecret(src, dst, pi, rho, h, rand.Reader)
	require.NoError(t, err)
	assert.True(t, shuffle.VerifySecret(src, dst, h, proof))
}

func TestSecretShuffleTamperedOutputRejected(t *testing.T) {
	h := jointKey(t)
	src := randomStack(t, 3)
	pi, err := perm.Random(3, rand.Reader)
	require.NoError(t, err)
	dst, rho := remaskAll(t, src, pi, h)

	proof, err := shuffle.ProveSecret(src, dst, pi, rho, h, rand.Reader)
	require.NoError(t, err)

	foreign, err := curve.RandomPoint(rand.Reader)
	require.NoError(t, err)
	dst[0].C0 = foreign
	assert.False(t, shuffle.VerifySecret(src, dst, h, proof))
}

func TestSecretShuffleTamperedPermCommitRejected(t *testing.T) {
	h := jointKey(t)
	src := randomStack(t, 3)
	pi, err := perm.Random(3, rand.Reader)
	require.NoError(t, err)
	dst, rho := remaskAll(t, src, pi, h)

	proof, err := shuffle.ProveSecret(src, dst, pi, rho, h, rand.Reader)
	require.NoError(t, err)

	foreign, err := curve.RandomPoint(rand.Reader)
	require.NoError(t, err)
	proof.PermCommit = foreign
	assert.False(t, shuffle.VerifySecret(src, dst, h, proof))
}
