package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanceBounds(t *testing.T) {
	got, err := Chance(0, NewSeeded(1))
	require.NoError(t, err)
	assert.False(t, got, "p=0 should never hit")

	got, err = Chance(1, NewSeeded(1))
	require.NoError(t, err)
	assert.True(t, got, "p=1 should always hit")

	_, err = Chance(-0.1, nil)
	assert.ErrorIs(t, err, ErrInvalidProb)
	_, err = Chance(1.1, nil)
	assert.ErrorIs(t, err, ErrInvalidProb)
	_, err = Chance(math.NaN(), nil)
	assert.ErrorIs(t, err, ErrInvalidProb)
}

func TestChanceStatApprox(t *testing.T) {
	const p = 0.3
	const n = 100_000
	src := NewSeeded(42)
	hits := 0
	for i := 0; i < n; i++ {
		ok, err := Chance(p, src)
		require.NoError(t, err)
		if ok {
			hits++
		}
	}
	freq := float64(hits) / n
	assert.InDelta(t, p, freq, 0.01)
}

func TestSeededDeterminism(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestDefaultRange(t *testing.T) {
	src := Default()
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestInt64N(t *testing.T) {
	src := NewSeeded(3)
	assert.Zero(t, Int64N(0, src))
	assert.Zero(t, Int64N(-5, src))
	for i := 0; i < 1000; i++ {
		v := Int64N(10, src)
		assert.GreaterOrEqual(t, v, int64(0))
		assert.Less(t, v, int64(10))
	}
}
