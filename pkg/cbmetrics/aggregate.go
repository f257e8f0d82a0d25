package cbmetrics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// FabricHomogeneity is the pin-weighted homogeneity of a whole fabric.
type FabricHomogeneity struct {
	PinHomogeneity  float64 `json:"pin_homogeneity"`
	WireHomogeneity float64 `json:"wire_homogeneity"`
	TotalPins       int     `json:"total_pins"`
	Instances       []int   `json:"instances"` // per type index
}

// Census counts block instances per type index. Only anchor tiles count,
// each contributing max(usage, 1).
func Census(g *arch.Grid, numTypes int) ([]int, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInvalidInput)
	}
	counts := make([]int, numTypes)
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			tile := g.Tiles[x][y]
			if !tile.IsAnchor() {
				continue
			}
			if tile.Type == nil {
				return nil, fmt.Errorf("%w: tile (%d,%d) has no block type", ErrInvalidInput, x, y)
			}
			idx := tile.Type.Index
			if idx < 0 || idx >= numTypes {
				return nil, fmt.Errorf("%w: tile (%d,%d) type index %d outside [0,%d)", ErrInvalidInput, x, y, idx, numTypes)
			}
			counts[idx] += max(tile.Usage, 1)
		}
	}
	return counts, nil
}

// AggregateFabric combines per-type metrics into fabric-wide pin and wire
// homogeneity. Each type is weighted by instances times its pins of dir.
// perType[i] and types[i] describe type index i.
func AggregateFabric(perType []Homogeneity, types []*arch.BlockType, g *arch.Grid, dir arch.PinType) (FabricHomogeneity, error) {
	if dir != arch.Driver && dir != arch.Receiver {
		return FabricHomogeneity{}, fmt.Errorf("cbmetrics: direction %s: %w", dir, arch.ErrInvalidPinType)
	}
	if len(perType) != len(types) {
		return FabricHomogeneity{}, fmt.Errorf("%w: %d metric sets for %d block types", ErrInvalidInput, len(perType), len(types))
	}
	for i, bt := range types {
		if bt == nil || bt.Index != i {
			return FabricHomogeneity{}, fmt.Errorf("%w: block type at position %d has wrong index", ErrInvalidInput, i)
		}
	}

	counts, err := Census(g, len(types))
	if err != nil {
		return FabricHomogeneity{}, err
	}

	weights := make([]float64, len(types))
	ph := make([]float64, len(types))
	wh := make([]float64, len(types))
	totalPins := 0
	for i, bt := range types {
		pins, _ := bt.NumPinsOf(dir)
		blockPins := counts[i] * pins
		totalPins += blockPins
		weights[i] = float64(blockPins)
		ph[i] = perType[i].PinHomogeneity
		wh[i] = perType[i].WireHomogeneity
	}

	out := FabricHomogeneity{TotalPins: totalPins, Instances: counts}
	if totalPins == 0 {
		return out, nil
	}
	// w/total is exactly 1 when one type holds every pin
	for i := range weights {
		weights[i] /= float64(totalPins)
	}
	out.PinHomogeneity = floats.Dot(ph, weights)
	out.WireHomogeneity = floats.Dot(wh, weights)
	return out, nil
}
