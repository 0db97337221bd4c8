package rng

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
)

var ErrInvalidProb = errors.New("invalid probability p; must be 0..1")

// Source yields uniform floats in [0, 1). Every probability roll in the
// engine goes through a Source so tests can substitute a deterministic one.
type Source interface {
	Float64() float64
}

// crypto random: default generation method
type cryptoSource struct{}

func (cryptoSource) Float64() float64 {
	// read 53 random bits => [0, 1)
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func Default() Source { return cryptoSource{} }

// Replicable source (tests, Monte Carlo runs).
type seededSource struct{ r *rand.Rand }

func NewSeeded(seed uint64) Source {
	return &seededSource{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededSource) Float64() float64 { return s.r.Float64() }

// Chance performs one Bernoulli roll at probability p.
// p <= 0 => never hits. p >= 1 => always hits. Otherwise src.Float64() < p.
func Chance(p float64, src Source) (bool, error) {
	if err := validateProb(p); err != nil {
		return false, err
	}
	if p <= 0 {
		return false, nil
	}
	if p >= 1 {
		return true, nil
	}
	if src == nil {
		src = Default()
	}
	return src.Float64() < p, nil
}

// Int64N returns a uniform integer in [0, n). n <= 0 returns 0.
func Int64N(n int64, src Source) int64 {
	if n <= 0 {
		return 0
	}
	if src == nil {
		src = Default()
	}
	return int64(src.Float64() * float64(n))
}

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}
