package perm_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbmxgo/pbmx/internal/perm"
)

func TestNewValidatesPermutation(t *testing.T) {
	_, err := perm.New([]int{0, 1, 1})
	assert.ErrorIs(t, err, perm.ErrNotPermutation)

	_, err = perm.New([]int{0, 2})
	assert.ErrorIs(t, err, perm.ErrNotPermutation)

	p, err := perm.New([]int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
}

func TestApplyAndInverse(t *testing.T) {
	p, err := perm.New([]int{2, 0, 1})
	require.NoError(t, err)

	x := []string{"a", "b", "c"}
	y, err := perm.Apply(p, x)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, y)

	back, err := perm.Apply(p.Inverse(), y)
	require.NoError(t, err)
	assert.Equal(t, x, back)
}

func TestShift(t *testing.T) {
	p := perm.Shift(5, 2)
	x := []int{0, 1, 2, 3, 4}
	y, err := perm.Apply(p, x)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 0, 1}, y)
}

func TestRandomIsPermutation(t *testing.T) {
	p, err := perm.Random(52, rand.Reader)
	require.NoError(t, err)
	seen := make([]bool, 52)
	for i := 0; i < 52; i++ {
		seen[p.At(i)] = true
	}
	for i, s := range seen {
		assert.True(t, s, "index %d missing from permutation", i)
	}
}
