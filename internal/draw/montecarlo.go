package draw

import "github.com/manekigames/merit-engine/internal/rng"

// Simulate rolls the bucket selection n times with a seeded source and
// returns the per-rarity counts. Used to confirm the shipped odds.
func Simulate(n int, seed uint64) map[Rarity]int {
	src := rng.NewSeeded(seed)
	counts := make(map[Rarity]int, 4)
	for i := 0; i < n; i++ {
		counts[pick(src.Float64())]++
	}
	return counts
}
