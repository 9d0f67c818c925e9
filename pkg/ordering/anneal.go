package ordering

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/level"
)

// Simulated annealing defaults.
const (
	DefaultT0           = 10.0
	DefaultTEnd         = 0.01
	DefaultAlpha        = 0.95
	DefaultStepsPerTemp = 10
	DefaultSeed         = 42
)

// Annealing limits. Options come from untrusted API requests, so every
// parameter that scales the work is bounded.
const (
	MaxStepsPerTemp     = 10_000
	MaxTemperatureSteps = 10_000
	MaxAnnealSteps      = 1_000_000

	// cancelCheckEvery is how many swap attempts run between context checks.
	cancelCheckEvery = 1024
)

// AnnealOptions configures [Anneal].
type AnnealOptions struct {
	T0           float64 // starting temperature
	TEnd         float64 // stop once the temperature drops below this
	Alpha        float64 // cooling factor applied after each temperature step
	StepsPerTemp int     // swap attempts per temperature
	Seed         uint64  // PRNG seed; equal seeds give equal results
}

func (o AnnealOptions) withDefaults() AnnealOptions {
	if o.T0 <= 0 {
		o.T0 = DefaultT0
	}
	if o.TEnd <= 0 {
		o.TEnd = DefaultTEnd
	}
	if o.Alpha <= 0 || o.Alpha >= 1 {
		o.Alpha = DefaultAlpha
	}
	if o.StepsPerTemp <= 0 {
		o.StepsPerTemp = DefaultStepsPerTemp
	}
	return o
}

// TemperatureSteps returns how many temperatures the cooling schedule
// visits, after defaults.
func (o AnnealOptions) TemperatureSteps() int {
	o = o.withDefaults()
	if o.T0 < o.TEnd {
		return 0
	}
	return int(math.Floor(math.Log(o.TEnd/o.T0)/math.Log(o.Alpha))) + 1
}

// Validate rejects schedules above the annealing limits with INVALID_CONFIG.
func (o AnnealOptions) Validate() error {
	o = o.withDefaults()
	if o.StepsPerTemp > MaxStepsPerTemp {
		return errors.New(errors.ErrCodeInvalidConfig, "steps_per_temp must be at most %d, got %d", MaxStepsPerTemp, o.StepsPerTemp)
	}
	temps := o.TemperatureSteps()
	if temps > MaxTemperatureSteps {
		return errors.New(errors.ErrCodeInvalidConfig,
			"cooling from %g to %g by %g takes %d temperatures, at most %d allowed", o.T0, o.TEnd, o.Alpha, temps, MaxTemperatureSteps)
	}
	if total := temps * o.StepsPerTemp; total > MaxAnnealSteps {
		return errors.New(errors.ErrCodeInvalidConfig, "annealing schedule needs %d steps, at most %d allowed", total, MaxAnnealSteps)
	}
	return nil
}

// AnnealStats summarizes one annealing run.
type AnnealStats struct {
	Steps       int
	Accepted    int
	InitialCost float64
	FinalCost   float64
	Stopped     bool // context was cancelled before cooling finished
}

// Cost is the annealing objective: half the summed successor wire length
// plus half the number of strict crossings.
func Cost(g *circuit.Graph, h level.Hierarchy) float64 {
	return 0.5*float64(Wirelength(g)) + 0.5*float64(CountCrossings(g, h))
}

// Anneal refines the rows produced by [Order] with simulated annealing.
//
// Each step swaps the rows of two random devices in one random level with at
// least two devices. Worse states are accepted with probability exp(-Δ/T).
// The best state seen is restored at the end, so the cost never increases.
// Cancelling ctx stops the search early without error; the best state found
// so far is kept.
func Anneal(ctx context.Context, g *circuit.Graph, h level.Hierarchy, opts AnnealOptions) AnnealStats {
	opts = opts.withDefaults()

	var candidates []int
	for i, l := range h.Levels {
		if len(l) >= 2 {
			candidates = append(candidates, i)
		}
	}

	cost := Cost(g, h)
	stats := AnnealStats{InitialCost: cost, FinalCost: cost}
	if len(candidates) == 0 {
		return stats
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))
	best, bestCost := Rows(g), cost

cooling:
	for t := opts.T0; t >= opts.TEnd; t *= opts.Alpha {
		for range opts.StepsPerTemp {
			if stats.Steps%cancelCheckEvery == 0 && ctx.Err() != nil {
				stats.Stopped = true
				break cooling
			}
			ids := h.Levels[candidates[rng.IntN(len(candidates))]]
			i := rng.IntN(len(ids))
			j := rng.IntN(len(ids) - 1)
			if j >= i {
				j++
			}
			a, b := g.Device(ids[i]), g.Device(ids[j])
			a.Row, b.Row = b.Row, a.Row

			next := Cost(g, h)
			delta := next - cost
			stats.Steps++
			if delta <= 0 || rng.Float64() < math.Exp(-delta/t) {
				cost = next
				stats.Accepted++
				if cost < bestCost {
					best, bestCost = Rows(g), cost
				}
				continue
			}
			a.Row, b.Row = b.Row, a.Row
		}
	}

	SetRows(g, best)
	stats.FinalCost = bestCost
	return stats
}
