package cbmetrics

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// Move selects how a tuner perturbs the track map.
type Move int

const (
	// MoveReassign moves one connection of one pin to a new track.
	MoveReassign Move = iota
	// MoveSwap exchanges a connection between two pins on the same side.
	MoveSwap
)

func (m Move) String() string {
	if m == MoveSwap {
		return "swap"
	}
	return "reassign"
}

// ParseMove parses "reassign" or "swap".
func ParseMove(s string) (Move, error) {
	switch s {
	case "reassign", "":
		return MoveReassign, nil
	case "swap":
		return MoveSwap, nil
	}
	return MoveReassign, fmt.Errorf("cbmetrics: unknown move %q", s)
}

// Progress reports the state of a running search.
type Progress struct {
	Phase     string  // "init", "search", "done"
	Iteration int     // search step, after any fast-forward
	Max       int     // iteration budget
	Moves     int     // accepted moves so far
	Metric    float64 // current value of the driven metric
	Diff      float64 // distance to the target
}

// DefaultPinGroup returns the pins a tuner may change on each side: five
// driver pins per side of the standard 60-pin logic cluster, interleaved
// top, right, bottom, left.
func DefaultPinGroup() [arch.NumSides][]int {
	return [arch.NumSides][]int{
		{40, 44, 48, 52, 56},
		{41, 45, 49, 53, 57},
		{42, 46, 50, 54, 58},
		{43, 47, 51, 55, 59},
	}
}

// Options controls a tuning run.
type Options struct {
	// Search budget
	MaxIterations   int // candidate moves evaluated at most (default: 100000)
	StagnationLimit int // consecutive rejections before giving up; 0 disables

	// Mutation
	PinGroup       [arch.NumSides][]int // pins that may change, per side
	Move           Move                 // MoveReassign or MoveSwap (pin tuner only)
	PreserveTracks bool                 // never move a track's last connection on its channel
	SwapAttempts   int                  // resamples for a legal swap (default: 64)

	// Randomness. Nil seeds a generator from the wall clock.
	Rand *rand.Rand

	// Diagnostics
	Trace         io.Writer      // progress and failure notices; nil discards
	OnProgress    func(Progress) // optional callback
	ProgressEvery int            // iterations between "search" callbacks (default: 1000)
}

// DefaultHammingOptions returns the settings TuneHamming uses when given nil.
func DefaultHammingOptions() *Options {
	return &Options{
		MaxIterations:   100000,
		StagnationLimit: 10000,
		PinGroup:        DefaultPinGroup(),
		Move:            MoveReassign,
		PreserveTracks:  false,
		SwapAttempts:    64,
		ProgressEvery:   1000,
	}
}

// DefaultPinOptions returns the settings TunePinMetric uses when given nil.
// The pin search is purely greedy and never gives up early.
func DefaultPinOptions() *Options {
	o := DefaultHammingOptions()
	o.StagnationLimit = 0
	return o
}

// Validate normalises out-of-range values.
func (o *Options) Validate() error {
	if o.MaxIterations < 1 {
		o.MaxIterations = 1
	}
	if o.StagnationLimit < 0 {
		o.StagnationLimit = 0
	}
	if o.SwapAttempts < 1 {
		o.SwapAttempts = 1
	}
	if o.ProgressEvery < 1 {
		o.ProgressEvery = 1000
	}
	if o.Move != MoveReassign && o.Move != MoveSwap {
		return fmt.Errorf("cbmetrics: unknown move %d", o.Move)
	}
	for side, pins := range o.PinGroup {
		for _, pin := range pins {
			if pin < 0 {
				return fmt.Errorf("cbmetrics: negative pin %d in %s pin group", pin, arch.Side(side))
			}
		}
	}
	if o.Rand == nil {
		now := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(now, now>>32))
	}
	return nil
}

func (o *Options) tracef(format string, args ...any) {
	if o.Trace != nil {
		fmt.Fprintf(o.Trace, format, args...)
	}
}

func (o *Options) progress(p Progress) {
	if o.OnProgress != nil {
		o.OnProgress(p)
	}
}
