// Package trackmap holds the connection map of a connection block: for every
// pin, cell of the block footprint and side, the list of channel tracks the
// pin is switched onto.
package trackmap

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// Open marks an unused connection slot.
const Open = -1

var (
	// ErrOutOfRange is returned for an index outside the map dimensions.
	ErrOutOfRange = errors.New("trackmap: index out of range")
	// ErrBadTrack is returned when a slot holds a track outside the channel.
	ErrBadTrack = errors.New("trackmap: track outside channel")
	// ErrDuplicateTrack is returned when one pin uses the same track twice
	// on a side.
	ErrDuplicateTrack = errors.New("trackmap: pin connects to a track more than once")
)

// Map is a dense pin x width x height x side x slot array of track indices
// kept in a single buffer.
type Map struct {
	pins   int
	width  int
	height int
	fc     int
	tracks []int
}

// New returns a map with every slot open.
func New(numPins, width, height, fc int) *Map {
	if numPins < 0 || width < 0 || height < 0 || fc < 0 {
		numPins, width, height, fc = 0, 0, 0, 0
	}
	m := &Map{
		pins:   numPins,
		width:  width,
		height: height,
		fc:     fc,
		tracks: make([]int, numPins*width*height*arch.NumSides*fc),
	}
	m.Clear()
	return m
}

// ForBlock returns an open map sized for bt with fc slots per pin.
func ForBlock(bt *arch.BlockType, fc int) *Map {
	return New(bt.NumPins, bt.Width, bt.Height, fc)
}

// NumPins returns the number of pins the map covers.
func (m *Map) NumPins() int { return m.pins }

// Width returns the footprint width.
func (m *Map) Width() int { return m.width }

// Height returns the footprint height.
func (m *Map) Height() int { return m.height }

// Fc returns the number of slots per pin location.
func (m *Map) Fc() int { return m.fc }

func (m *Map) offset(pin, w, h int, side arch.Side) (int, bool) {
	if pin < 0 || pin >= m.pins || w < 0 || w >= m.width || h < 0 || h >= m.height || side < 0 || side >= arch.NumSides {
		return 0, false
	}
	return (((pin*m.width+w)*m.height+h)*arch.NumSides + int(side)) * m.fc, true
}

// Contains reports whether the location is inside the map.
func (m *Map) Contains(pin, w, h int, side arch.Side) bool {
	_, ok := m.offset(pin, w, h, side)
	return ok
}

// At returns the track in a slot, or Open for any slot outside the map.
func (m *Map) At(pin, w, h int, side arch.Side, slot int) int {
	off, ok := m.offset(pin, w, h, side)
	if !ok || slot < 0 || slot >= m.fc {
		return Open
	}
	return m.tracks[off+slot]
}

// Set stores track in a slot.
func (m *Map) Set(pin, w, h int, side arch.Side, slot, track int) error {
	off, ok := m.offset(pin, w, h, side)
	if !ok || slot < 0 || slot >= m.fc {
		return fmt.Errorf("%w: pin %d cell (%d,%d) side %s slot %d", ErrOutOfRange, pin, w, h, side, slot)
	}
	m.tracks[off+slot] = track
	return nil
}

// Slots returns the slots of one pin location. The slice aliases the map.
func (m *Map) Slots(pin, w, h int, side arch.Side) []int {
	off, ok := m.offset(pin, w, h, side)
	if !ok {
		return nil
	}
	return m.tracks[off : off+m.fc : off+m.fc]
}

// Connected reports whether the pin has a connection at the location. Only
// slot 0 is looked at.
func (m *Map) Connected(pin, w, h int, side arch.Side) bool {
	return m.fc > 0 && m.At(pin, w, h, side, 0) != Open
}

// Clear opens every slot.
func (m *Map) Clear() {
	for i := range m.tracks {
		m.tracks[i] = Open
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	c := *m
	c.tracks = slices.Clone(m.tracks)
	return &c
}

// Equal reports whether both maps have the same shape and content.
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.pins == o.pins && m.width == o.width && m.height == o.height &&
		m.fc == o.fc && slices.Equal(m.tracks, o.tracks)
}

// CopyFrom overwrites m with the content of o, which must have the same shape.
func (m *Map) CopyFrom(o *Map) error {
	if m.pins != o.pins || m.width != o.width || m.height != o.height || m.fc != o.fc {
		return fmt.Errorf("%w: shape %s vs %s", ErrOutOfRange, m.shape(), o.shape())
	}
	copy(m.tracks, o.tracks)
	return nil
}

func (m *Map) shape() string {
	return fmt.Sprintf("%dx%dx%dx%dx%d", m.pins, m.width, m.height, arch.NumSides, m.fc)
}

// Validate checks that every slot is open or a track in [0, channelWidth)
// and that no pin location repeats a track.
func (m *Map) Validate(channelWidth int) error {
	for pin := 0; pin < m.pins; pin++ {
		for w := 0; w < m.width; w++ {
			for h := 0; h < m.height; h++ {
				for side := arch.Side(0); side < arch.NumSides; side++ {
					slots := m.Slots(pin, w, h, side)
					for i, track := range slots {
						if track == Open {
							continue
						}
						if track < 0 || track >= channelWidth {
							return fmt.Errorf("%w: pin %d side %s slot %d track %d (width %d)",
								ErrBadTrack, pin, side, i, track, channelWidth)
						}
						if slices.Contains(slots[:i], track) {
							return fmt.Errorf("%w: pin %d side %s track %d", ErrDuplicateTrack, pin, side, track)
						}
					}
				}
			}
		}
	}
	return nil
}
