package cbmetrics

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/exp/slices"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// PinRequest asks TunePinMetric to bring Metric within Tolerance of Target
// while Guard stays within GuardTolerance of its start value.
type PinRequest struct {
	Metric         Metric // PinDiversity or PinHomogeneity
	Target         float64
	Tolerance      float64
	Guard          Metric // hamming-family metric to hold; MetricNone means WireHomogeneity
	GuardTolerance float64
}

// change is one candidate edit of the track map that can be undone.
type change struct {
	a, b       []int // slot lists touched; b is nil for a reassignment
	i, j       int
	oldA, oldB int
}

func (c change) undo() {
	c.a[c.i] = c.oldA
	if c.b != nil {
		c.b[c.j] = c.oldB
	}
}

// TunePinMetric greedily moves the track map toward a pin-family target. A
// move is kept only when it does not increase the distance to the target and
// the guard metric has not drifted past GuardTolerance. With MoveSwap two
// pins on one side exchange a connection; swaps between tracks of the same
// wire type cannot change a pin metric and are skipped.
func TunePinMetric(ctx context.Context, cb ConnBlock, req PinRequest, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultPinOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("cbmetrics: invalid options: %w", err)
	}
	if !req.Metric.IsPinFamily() {
		return nil, fmt.Errorf("%w: %s", ErrMetricFamily, req.Metric)
	}
	guard := req.Guard
	if guard == MetricNone {
		guard = WireHomogeneity
	}
	if !guard.IsHammingFamily() {
		return nil, fmt.Errorf("%w: guard %s", ErrMetricFamily, guard)
	}

	base, defined, err := evaluate(cb)
	if err != nil {
		return nil, err
	}
	res := &Result{Initial: base, Final: base}

	oldDiff := math.Abs(base.Get(req.Metric) - req.Target)
	if oldDiff <= req.Tolerance {
		res.Success = true
		return res, nil
	}
	if !defined {
		opts.tracef("%s is undefined for block %s, nothing to tune\n", req.Metric, cb.Type.Name)
		return res, nil
	}

	fc := arch.MaxFc(cb.Fc, cb.Type, cb.Direction)
	if opts.Move == MoveReassign && fc >= cb.ChannelWidth {
		return nil, fmt.Errorf("%w: Fc %d, channel width %d", ErrChannelSaturated, fc, cb.ChannelWidth)
	}
	need := 1
	if opts.Move == MoveSwap {
		need = 2
	}
	sites := mutableSites(cb, opts.PinGroup)
	sides := sidesWith(sites, need)
	if len(sides) == 0 {
		return nil, ErrNoMutablePins
	}

	rng := opts.Rand
	guard0 := base.Get(guard)
	noLuck := 0
	reject := func() bool {
		noLuck++
		return opts.StagnationLimit > 0 && noLuck >= opts.StagnationLimit
	}
	opts.progress(Progress{Phase: "init", Max: opts.MaxIterations, Metric: base.Get(req.Metric), Diff: oldDiff})

	for i := 0; i < opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations++
		if res.Iterations%opts.ProgressEvery == 0 {
			opts.progress(Progress{Phase: "search", Iteration: i, Max: opts.MaxIterations, Moves: res.Moves,
				Metric: res.Final.Get(req.Metric), Diff: oldDiff})
		}

		side := sides[rng.IntN(len(sides))]
		var c change
		var ok bool
		if opts.Move == MoveSwap {
			c, ok = proposeSwap(cb, sites[side], fc, base.NumWireTypes, opts.SwapAttempts, rng)
		} else {
			c, ok = proposeReassign(cb, sites[side], fc, rng)
		}
		if !ok {
			if reject() {
				break
			}
			continue
		}

		m, err := Compute(cb)
		if err != nil {
			c.undo()
			return res, err
		}
		newDiff := math.Abs(m.Get(req.Metric) - req.Target)

		if newDiff <= oldDiff && math.Abs(m.Get(guard)-guard0) <= req.GuardTolerance {
			res.Moves++
			res.Final = m
			noLuck = 0
			if newDiff <= req.Tolerance {
				res.Success = true
				break
			}
			oldDiff = newDiff
		} else {
			c.undo()
			if reject() {
				opts.tracef("no improvement in %d moves\n", noLuck)
				break
			}
		}
	}

	if !res.Success {
		opts.tracef("failed to adjust %s: reached %f, target %f\n", req.Metric, res.Final.Get(req.Metric), req.Target)
	}
	opts.progress(Progress{Phase: "done", Iteration: res.Iterations, Max: opts.MaxIterations, Moves: res.Moves,
		Metric: res.Final.Get(req.Metric), Diff: math.Abs(res.Final.Get(req.Metric) - req.Target)})
	return res, nil
}

// proposeReassign moves one used slot of a random site to a free track.
func proposeReassign(cb ConnBlock, sites []site, fc int, rng *rand.Rand) (change, bool) {
	slots := slotsOf(cb, sites[rng.IntN(len(sites))], fc)
	used := usedSlots(slots)
	if len(used) == 0 {
		return change{}, false
	}
	i := used[rng.IntN(len(used))]
	c := change{a: slots, i: i, oldA: slots[i]}
	slots[i] = freeTrack(slots, cb.ChannelWidth, rng)
	return c, true
}

// proposeSwap exchanges one connection between two different sites of a
// side. Neither pin may end up on a track it already uses.
func proposeSwap(cb ConnBlock, sites []site, fc, numWireTypes, attempts int, rng *rand.Rand) (change, bool) {
	for try := 0; try < attempts; try++ {
		p := rng.IntN(len(sites))
		q := rng.IntN(len(sites) - 1)
		if q >= p {
			q++
		}
		a := slotsOf(cb, sites[p], fc)
		b := slotsOf(cb, sites[q], fc)
		usedA, usedB := usedSlots(a), usedSlots(b)
		if len(usedA) == 0 || len(usedB) == 0 {
			continue
		}
		i := usedA[rng.IntN(len(usedA))]
		j := usedB[rng.IntN(len(usedB))]
		ta, tb := a[i], b[j]
		if slices.Contains(a, tb) || slices.Contains(b, ta) {
			continue
		}
		if ta%numWireTypes == tb%numWireTypes {
			return change{}, false
		}
		a[i], b[j] = tb, ta
		return change{a: a, b: b, i: i, j: j, oldA: ta, oldB: tb}, true
	}
	return change{}, false
}
