package cbmetrics

import (
	"math/rand/v2"

	"golang.org/x/exp/slices"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/trackmap"
)

// Result is the outcome of a tuning run. On failure the track map keeps every
// accepted move.
type Result struct {
	Success    bool        `json:"success"`
	Iterations int         `json:"iterations"` // candidate moves evaluated
	Moves      int         `json:"moves"`      // moves accepted
	Initial    Homogeneity `json:"initial"`
	Final      Homogeneity `json:"final"`
}

// site is one pin location a tuner may rewrite.
type site struct {
	pin  int
	w, h int
	side arch.Side
}

// mutableSites lists, per side, the connected locations of the pin group
// pins that have direction dir.
func mutableSites(cb ConnBlock, group [arch.NumSides][]int) [arch.NumSides][]site {
	var out [arch.NumSides][]site
	bt := cb.Type
	for side := arch.Side(0); side < arch.NumSides; side++ {
		for _, pin := range group[side] {
			if bt.PinTypeOf(pin) != cb.Direction {
				continue
			}
			for w := 0; w < bt.Width; w++ {
				for h := 0; h < bt.Height; h++ {
					if cb.Tracks.Connected(pin, w, h, side) {
						out[side] = append(out[side], site{pin: pin, w: w, h: h, side: side})
					}
				}
			}
		}
	}
	return out
}

// sidesWith returns the sides holding at least n sites.
func sidesWith(sites [arch.NumSides][]site, n int) []arch.Side {
	var sides []arch.Side
	for side, s := range sites {
		if len(s) >= n {
			sides = append(sides, arch.Side(side))
		}
	}
	return sides
}

// slotsOf returns the first fc slots of a site.
func slotsOf(cb ConnBlock, s site, fc int) []int {
	slots := cb.Tracks.Slots(s.pin, s.w, s.h, s.side)
	if fc < len(slots) {
		slots = slots[:fc]
	}
	return slots
}

// usedSlots lists the slot indices holding a track.
func usedSlots(slots []int) []int {
	var idx []int
	for i, t := range slots {
		if t != trackmap.Open {
			idx = append(idx, i)
		}
	}
	return idx
}

// freeTrack draws a track the pin does not use yet. The caller guarantees
// the pin uses fewer tracks than the channel has.
func freeTrack(slots []int, channelWidth int, rng *rand.Rand) int {
	for {
		track := rng.IntN(channelWidth)
		if !slices.Contains(slots, track) {
			return track
		}
	}
}

// channelUse counts connections per track on the horizontal (top, bottom)
// and vertical (right, left) channels.
type channelUse [2][]int

func newChannelUse(t *tally) channelUse {
	var cu channelUse
	for ch := range cu {
		cu[ch] = make([]int, t.channelWidth)
	}
	for side := range t.trackConns {
		for track, n := range t.trackConns[side] {
			cu[side%2][track] += n
		}
	}
	return cu
}

func (cu channelUse) move(side arch.Side, from, to int) {
	ch := int(side) % 2
	if from >= 0 {
		cu[ch][from]--
	}
	cu[ch][to]++
}
