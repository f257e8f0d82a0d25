package arch

import "fmt"

// Segment describes one wire segment type of the routing channel.
type Segment struct {
	Name      string
	Length    int
	Frequency float64
}

// NumWireTypes returns how many wire start-point classes a channel built from
// segs has. Only a single segment of length L is classified, giving L start
// offsets. An empty set, more than one segment or a negative length yield 0
// (undefined).
func NumWireTypes(segs []Segment) int {
	if len(segs) != 1 || segs[0].Length < 0 {
		return 0
	}
	return segs[0].Length
}

// MaxFc returns the largest fan-out among the pins of dir.
func MaxFc(fc []int, bt *BlockType, dir PinType) int {
	max := 0
	for pin := 0; pin < bt.NumPins && pin < len(fc); pin++ {
		if bt.PinTypeOf(pin) == dir && fc[pin] > max {
			max = fc[pin]
		}
	}
	return max
}

// CheckUniformFc fails if two pins of dir have different non-zero Fc values.
// The metric engine assumes every pin of a direction has the same fan-out.
func CheckUniformFc(fc []int, bt *BlockType, dir PinType) error {
	if dir != Driver && dir != Receiver {
		return ErrInvalidPinType
	}
	want := 0
	for pin := 0; pin < bt.NumPins && pin < len(fc); pin++ {
		if bt.PinTypeOf(pin) != dir || fc[pin] == 0 {
			continue
		}
		if want == 0 {
			want = fc[pin]
			continue
		}
		if fc[pin] != want {
			return fmt.Errorf("%w: block %s pin %d has Fc %d, expected %d", ErrMixedFc, bt.Name, pin, fc[pin], want)
		}
	}
	return nil
}
