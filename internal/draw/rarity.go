package draw

// Rarity orders the reward tiers of a fortune draw, ascending.
type Rarity int

const (
	Common Rarity = iota
	Rare
	SuperRare
	UltraRare
)

func (r Rarity) String() string {
	switch r {
	case UltraRare:
		return "ultra_rare"
	case SuperRare:
		return "super_rare"
	case Rare:
		return "rare"
	default:
		return "common"
	}
}

// Payout is a deterministic function of rarity only.
func (r Rarity) Payout() int64 {
	switch r {
	case UltraRare:
		return 500
	case SuperRare:
		return 200
	case Rare:
		return 50
	default:
		return 10
	}
}

// Cumulative probability thresholds over one uniform roll in [0,1),
// matched first-in-order: UltraRare 5%, SuperRare next 15%, Rare next
// 30%, Common the remaining 50%.
var buckets = []struct {
	limit  float64
	rarity Rarity
}{
	{0.05, UltraRare},
	{0.20, SuperRare},
	{0.50, Rare},
	{1.00, Common},
}

func pick(roll float64) Rarity {
	for _, b := range buckets {
		if roll < b.limit {
			return b.rarity
		}
	}
	return Common
}
