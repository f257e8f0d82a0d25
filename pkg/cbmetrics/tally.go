package cbmetrics

import (
	"fmt"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/trackmap"
)

// tally is what one scan of the track map produces.
type tally struct {
	fc             int
	numWireTypes   int
	numPinTypePins int
	channelWidth   int
	bothSides      bool

	// trackConns[side][track] counts connections onto each track
	trackConns [arch.NumSides][]int
	// wireTypeConns[pin][type] counts a pin's connections per wire type
	wireTypeConns [][]int
	connected     []bool
	// sidePins[side][pin] lists the tracks a pin uses on that side, nil
	// when it has none there
	sidePins       [arch.NumSides][][]int
	countedPerSide [arch.NumSides]int
	connectedPins  int
}

// scan walks side, height, width and pin, counting at most numPinTypePins
// connected pin locations. A location counts when its first slot is used.
func scan(cb ConnBlock, fc, numWireTypes, numPinTypePins int) (*tally, error) {
	bt := cb.Type
	t := &tally{
		fc:             fc,
		numWireTypes:   numWireTypes,
		numPinTypePins: numPinTypePins,
		channelWidth:   cb.ChannelWidth,
		bothSides:      bt.Name == arch.CoreLogicName,
		wireTypeConns:  make([][]int, bt.NumPins),
		connected:      make([]bool, bt.NumPins),
	}
	for side := range t.trackConns {
		t.trackConns[side] = make([]int, cb.ChannelWidth)
		t.sidePins[side] = make([][]int, bt.NumPins)
	}

	slotsUsed := fc
	if cb.Tracks.Fc() < slotsUsed {
		slotsUsed = cb.Tracks.Fc()
	}

	counted := 0
	for side := arch.Side(0); side < arch.NumSides; side++ {
		for h := 0; h < bt.Height; h++ {
			for w := 0; w < bt.Width; w++ {
				for pin := 0; pin < bt.NumPins; pin++ {
					if bt.PinTypeOf(pin) != cb.Direction {
						continue
					}
					// some block types bring pins out on every side but
					// only use one of them
					if counted == numPinTypePins {
						break
					}
					if !cb.Tracks.Connected(pin, w, h, side) {
						continue
					}
					slots := cb.Tracks.Slots(pin, w, h, side)[:slotsUsed]
					tracks := make([]int, 0, slotsUsed)
					for i, track := range slots {
						if track == trackmap.Open {
							continue
						}
						if track < 0 || track >= cb.ChannelWidth {
							return nil, fmt.Errorf("%w: pin %d side %s slot %d uses track %d outside channel of %d",
								ErrInvalidInput, pin, side, i, track, cb.ChannelWidth)
						}
						tracks = append(tracks, track)
						t.trackConns[side][track]++
						if t.wireTypeConns[pin] == nil {
							t.wireTypeConns[pin] = make([]int, numWireTypes)
						}
						t.wireTypeConns[pin][track%numWireTypes]++
					}
					t.sidePins[side][pin] = tracks
					if !t.connected[pin] {
						t.connected[pin] = true
						t.connectedPins++
					}
					counted++
					t.countedPerSide[side]++
				}
			}
		}
	}
	return t, nil
}

// sideGroups lists the sides each side-level metric is evaluated over. In
// both-sides mode a side is paired with the opposite one.
func (t *tally) sideGroups() [][]arch.Side {
	if t.bothSides {
		return [][]arch.Side{{arch.Top, arch.Bottom}, {arch.Right, arch.Left}}
	}
	return [][]arch.Side{{arch.Top}, {arch.Right}, {arch.Bottom}, {arch.Left}}
}

// groupPins returns the track lists of every connected pin in a side group.
func (t *tally) groupPins(group []arch.Side) [][]int {
	var pins [][]int
	for _, side := range group {
		for _, tracks := range t.sidePins[side] {
			if len(tracks) > 0 {
				pins = append(pins, tracks)
			}
		}
	}
	return pins
}
