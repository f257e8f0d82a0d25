package trackmap

import (
	"fmt"
	"math/rand/v2"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// Generate builds a random map for the dir pins of bt. Every location the
// block's pin locations bring such a pin out on gets fc distinct tracks drawn
// uniformly from [0, channelWidth).
func Generate(bt *arch.BlockType, dir arch.PinType, fc, channelWidth int, rng *rand.Rand) (*Map, error) {
	if dir != arch.Driver && dir != arch.Receiver {
		return nil, arch.ErrInvalidPinType
	}
	if fc < 1 {
		return nil, fmt.Errorf("trackmap: Fc must be positive, got %d", fc)
	}
	if fc > channelWidth {
		return nil, fmt.Errorf("trackmap: Fc %d exceeds channel width %d", fc, channelWidth)
	}
	if rng == nil {
		return nil, fmt.Errorf("trackmap: nil random source")
	}

	m := ForBlock(bt, fc)
	for _, pin := range bt.PinsOf(dir) {
		for _, loc := range bt.PinSides(pin) {
			slots := m.Slots(pin, loc[0], loc[1], arch.Side(loc[2]))
			fillDistinct(slots, channelWidth, rng)
		}
	}
	return m, nil
}

// Randomize redraws the tracks of every connected location of the dir pins,
// keeping which locations are connected.
func (m *Map) Randomize(bt *arch.BlockType, dir arch.PinType, channelWidth int, rng *rand.Rand) error {
	if dir != arch.Driver && dir != arch.Receiver {
		return arch.ErrInvalidPinType
	}
	if m.fc > channelWidth {
		return fmt.Errorf("trackmap: Fc %d exceeds channel width %d", m.fc, channelWidth)
	}
	for _, pin := range bt.PinsOf(dir) {
		for w := 0; w < m.width; w++ {
			for h := 0; h < m.height; h++ {
				for side := arch.Side(0); side < arch.NumSides; side++ {
					if !m.Connected(pin, w, h, side) {
						continue
					}
					fillDistinct(m.Slots(pin, w, h, side), channelWidth, rng)
				}
			}
		}
	}
	return nil
}

// fillDistinct draws len(slots) different tracks. Callers guarantee
// len(slots) <= channelWidth.
func fillDistinct(slots []int, channelWidth int, rng *rand.Rand) {
	for i := range slots {
		for {
			track := rng.IntN(channelWidth)
			dup := false
			for _, t := range slots[:i] {
				if t == track {
					dup = true
					break
				}
			}
			if !dup {
				slots[i] = track
				break
			}
		}
	}
}
