package cbmetrics

import (
	"context"
	"fmt"
	"math"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// HammingRequest asks TuneHamming to bring Metric within Tolerance of
// Target while pin diversity stays within PinTolerance of its start value.
type HammingRequest struct {
	Metric       Metric // HammingDistance, HammingProximity or WireHomogeneity
	Target       float64
	Tolerance    float64
	PinTolerance float64
}

// fastForwardGap is the gap between threshold and distance above which an
// accepted move advances the annealing schedule.
const fastForwardGap = 0.05

// TuneHamming anneals the track map toward a hamming-family target.
//
// Each step moves one connection of a random pin group pin to a random free
// track. A move is kept when it beats the decaying threshold
// initialDiff*(1-i/MaxIterations) or improves on the last kept distance, and
// pin diversity has not drifted past PinTolerance. The search stops on
// success, when the budget is spent or after StagnationLimit rejections in a
// row. Not converging is reported through Result.Success, not as an error.
func TuneHamming(ctx context.Context, cb ConnBlock, req HammingRequest, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultHammingOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("cbmetrics: invalid options: %w", err)
	}
	if !req.Metric.IsHammingFamily() {
		return nil, fmt.Errorf("%w: %s", ErrMetricFamily, req.Metric)
	}

	base, defined, err := evaluate(cb)
	if err != nil {
		return nil, err
	}
	res := &Result{Initial: base, Final: base}

	initDiff := math.Abs(base.Get(req.Metric) - req.Target)
	if initDiff <= req.Tolerance {
		res.Success = true
		return res, nil
	}
	if !defined {
		opts.tracef("%s is undefined for block %s, nothing to tune\n", req.Metric, cb.Type.Name)
		return res, nil
	}

	fc := arch.MaxFc(cb.Fc, cb.Type, cb.Direction)
	if fc >= cb.ChannelWidth {
		return nil, fmt.Errorf("%w: Fc %d, channel width %d", ErrChannelSaturated, fc, cb.ChannelWidth)
	}
	sites := mutableSites(cb, opts.PinGroup)
	sides := sidesWith(sites, 1)
	if len(sides) == 0 {
		return nil, ErrNoMutablePins
	}

	numPinTypePins, _ := cb.Type.NumPinsOf(cb.Direction)
	var use channelUse
	if opts.PreserveTracks {
		t, err := scan(cb, fc, base.NumWireTypes, numPinTypePins)
		if err != nil {
			return nil, err
		}
		use = newChannelUse(t)
	}

	rng := opts.Rand
	maxIter := opts.MaxIterations
	oldDiff := initDiff
	noLuck := 0
	opts.tracef("max_fc: %d, num_pin_type_pins: %d, channel width: %d\n", fc, numPinTypePins, cb.ChannelWidth)
	opts.progress(Progress{Phase: "init", Max: maxIter, Metric: base.Get(req.Metric), Diff: initDiff})

	for i := 0; i < maxIter; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations++
		if res.Iterations%opts.ProgressEvery == 0 {
			opts.progress(Progress{Phase: "search", Iteration: i, Max: maxIter, Moves: res.Moves,
				Metric: res.Final.Get(req.Metric), Diff: oldDiff})
		}

		side := sides[rng.IntN(len(sides))]
		s := sites[side][rng.IntN(len(sites[side]))]
		slots := slotsOf(cb, s, fc)

		candidates := usedSlots(slots)
		if opts.PreserveTracks {
			candidates = keepShared(candidates, slots, use, side)
		}
		if len(candidates) == 0 {
			noLuck++
			if opts.StagnationLimit > 0 && noLuck >= opts.StagnationLimit {
				break
			}
			continue
		}
		slot := candidates[rng.IntN(len(candidates))]
		oldTrack := slots[slot]
		newTrack := freeTrack(slots, cb.ChannelWidth, rng)
		slots[slot] = newTrack

		m, err := Compute(cb)
		if err != nil {
			slots[slot] = oldTrack
			return res, err
		}
		newDiff := math.Abs(m.Get(req.Metric) - req.Target)
		threshold := initDiff * (1 - float64(i)/float64(maxIter))

		if (newDiff < threshold || newDiff < oldDiff) &&
			math.Abs(m.PinDiversity-base.PinDiversity) <= req.PinTolerance {
			res.Moves++
			res.Final = m
			if opts.PreserveTracks {
				use.move(side, oldTrack, newTrack)
			}
			if newDiff <= req.Tolerance {
				res.Success = true
				break
			}
			oldDiff = newDiff
			if math.Abs(threshold-newDiff) >= fastForwardGap {
				if ff := int((1 - newDiff) * float64(maxIter) * 0.99); ff > i {
					i = ff
				}
			}
			noLuck = 0
		} else {
			slots[slot] = oldTrack
			noLuck++
			if opts.StagnationLimit > 0 && noLuck >= opts.StagnationLimit {
				opts.tracef("no improvement in %d moves (threshold %f, diff %f)\n", noLuck, threshold, newDiff)
				break
			}
		}
	}

	if !res.Success {
		opts.tracef("failed to adjust %s: reached %f, target %f\n", req.Metric, res.Final.Get(req.Metric), req.Target)
	}
	opts.progress(Progress{Phase: "done", Iteration: res.Iterations, Max: maxIter, Moves: res.Moves,
		Metric: res.Final.Get(req.Metric), Diff: math.Abs(res.Final.Get(req.Metric) - req.Target)})
	return res, nil
}

// keepShared drops slots whose track has no other connection on the channel.
func keepShared(candidates, slots []int, use channelUse, side arch.Side) []int {
	out := candidates[:0]
	for _, i := range candidates {
		if use[int(side)%2][slots[i]] > 1 {
			out = append(out, i)
		}
	}
	return out
}
