package tap

import (
	"math"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/manekigames/merit-engine/internal/rng"
	"github.com/manekigames/merit-engine/internal/session"
)

// Summary condenses integer samples from a simulation run.
type Summary struct {
	Mean   float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
}

func summarize(xs []int64) Summary {
	n := len(xs)
	if n == 0 {
		return Summary{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	stddev := math.Sqrt(acc / float64(n))

	cp := append([]int64(nil), xs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	percentile := func(p float64) float64 {
		if p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Summary{
		Mean:   mean,
		StdDev: stddev,
		P50:    percentile(0.50),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
	}
}

// SimulateConsolation rolls the consolation lottery n times and
// summarizes the credited amounts. The mean should sit near 0.85x the
// tap cost.
func SimulateConsolation(cfg Config, n int, seed uint64) Summary {
	cfg = cfg.withDefaults()
	src := rng.NewSeeded(seed)
	e := &Engine{cfg: cfg, rng: src}
	samples := make([]int64, n)
	for i := range samples {
		samples[i] = e.rollConsolation()
	}
	return summarize(samples)
}

// SimulateTapsToCrit runs full cost-mode tap sequences (bypass, fresh
// state per trial) and summarizes how many taps each trial needed to
// land a crit.
func SimulateTapsToCrit(cfg Config, trials int, seed uint64) Summary {
	cfg = cfg.withDefaults()
	cfg.Bypass = true
	src := rng.NewSeeded(seed)
	clk := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	samples := make([]int64, trials)
	for i := range samples {
		e := NewEngine(cfg, src, clk, session.NewState(), session.NewMemStore(), nil, nil)
		var taps int64
		for {
			taps++
			out, err := e.Tap(Cost, false)
			if err != nil {
				return Summary{}
			}
			if out.Hit {
				break
			}
		}
		samples[i] = taps
	}
	return summarize(samples)
}
