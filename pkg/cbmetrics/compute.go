package cbmetrics

import (
	"fmt"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// Compute derives the five metrics of a connection block.
//
// The direction must be driver or receiver. The empty block type, a type
// without pins, an undefined wire-type count and Fc of 0 all give a zero
// result without error.
func Compute(cb ConnBlock) (Homogeneity, error) {
	h, _, err := evaluate(cb)
	return h, err
}

// evaluate is Compute that also reports whether the metrics are defined.
func evaluate(cb ConnBlock) (Homogeneity, bool, error) {
	if cb.Direction != arch.Driver && cb.Direction != arch.Receiver {
		return Homogeneity{}, false, fmt.Errorf("cbmetrics: direction %s: %w", cb.Direction, arch.ErrInvalidPinType)
	}
	if cb.Type == nil {
		return Homogeneity{}, false, fmt.Errorf("%w: nil block type", ErrInvalidInput)
	}

	bt := cb.Type
	numWireTypes := arch.NumWireTypes(cb.Segments)
	fc := arch.MaxFc(cb.Fc, bt, cb.Direction)
	numPinTypePins, _ := bt.NumPinsOf(cb.Direction)

	if bt.IsEmpty() || bt.NumPins == 0 || numWireTypes == 0 || fc == 0 || numPinTypePins == 0 {
		return Homogeneity{NumWireTypes: numWireTypes}, false, nil
	}

	if cb.Tracks == nil {
		return Homogeneity{}, false, fmt.Errorf("%w: nil track map", ErrInvalidInput)
	}
	if cb.Tracks.NumPins() < bt.NumPins || cb.Tracks.Width() < bt.Width || cb.Tracks.Height() < bt.Height {
		return Homogeneity{}, false, fmt.Errorf("%w: track map %dx%dx%d smaller than block %s (%d pins, %dx%d)",
			ErrInvalidInput, cb.Tracks.NumPins(), cb.Tracks.Width(), cb.Tracks.Height(),
			bt.Name, bt.NumPins, bt.Width, bt.Height)
	}
	if cb.ChannelWidth < 1 {
		return Homogeneity{}, false, fmt.Errorf("%w: channel width %d", ErrInvalidInput, cb.ChannelWidth)
	}

	t, err := scan(cb, fc, numWireTypes, numPinTypePins)
	if err != nil {
		return Homogeneity{}, false, err
	}

	return Homogeneity{
		PinHomogeneity:   t.pinHomogeneity(),
		WireHomogeneity:  t.wireHomogeneity(),
		HammingDistance:  t.hammingDistance(),
		HammingProximity: t.hammingProximity(),
		PinDiversity:     t.pinDiversity(),
		NumWireTypes:     numWireTypes,
	}, true, nil
}
