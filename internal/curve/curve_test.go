package curve_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbmxgo/pbmx/internal/curve"
)

func TestScalarRoundTrip(t *testing.T) {
	s, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	decoded, err := curve.DecodeScalar(s.Bytes())
	require.NoError(t, err)
	assert.True(t, s.Equal(decoded))
}

func TestScalarArithmetic(t *testing.T) {
	a, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	b, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	sum := a.Add(b)
	back := sum.Sub(b)
	assert.True(t, a.Equal(back))

	inv := a.Invert()
	one := a.Mul(inv)
	assert.True(t, one.Equal(curve.ScalarFromUint64(1)))
}

func TestPointHomomorphism(t *testing.T) {
	a, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	b, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	pa := curve.ScalarBaseMult(a)
	pb := curve.ScalarBaseMult(b)
	sum := curve.ScalarBaseMult(a.Add(b))

	assert.True(t, pa.Add(pb).Equal(sum))
}

func TestDecodePointRejectsGarbage(t *testing.T) {
	_, err := curve.DecodePoint(make([]byte, 31))
	assert.Error(t, err)
}
