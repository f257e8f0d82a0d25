// Package arch describes the parts of an FPGA architecture that connection
// block analysis needs: block types with their pin classes and locations,
// wire segments, the channel width and the placement grid.
package arch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPinType is returned when an operation needs a driver or
	// receiver pin type and got something else.
	ErrInvalidPinType = errors.New("arch: pin type must be driver or receiver")
	// ErrUnknownBlock is returned when a block type name is not defined.
	ErrUnknownBlock = errors.New("arch: unknown block type")
	// ErrMixedFc is returned when pins of one type disagree on Fc.
	ErrMixedFc = errors.New("arch: pins of the same type have different Fc values")
)

// EmptyTypeIndex is the index of the fabric's empty block type.
const EmptyTypeIndex = 0

// EmptyTypeName is the name given to the implicit empty block type.
const EmptyTypeName = "EMPTY"

// CoreLogicName names the core logic tile. Core tiles sit next to each other,
// so their metrics are computed over both channel sides.
const CoreLogicName = "clb"

// PinType is the direction of a pin class.
type PinType int

const (
	// Open marks an unused pin class.
	Open PinType = iota
	// Driver is an output pin class.
	Driver
	// Receiver is an input pin class.
	Receiver
)

func (p PinType) String() string {
	switch p {
	case Driver:
		return "driver"
	case Receiver:
		return "receiver"
	default:
		return "open"
	}
}

// ParsePinType accepts "driver"/"out"/"output" and "receiver"/"in"/"input".
func ParsePinType(s string) (PinType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "driver", "out", "output":
		return Driver, nil
	case "receiver", "in", "input":
		return Receiver, nil
	case "open":
		return Open, nil
	}
	return Open, fmt.Errorf("arch: unknown pin type %q", s)
}

// Side is a tile edge. The order matters: opposite sides are two apart.
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

// NumSides is the number of tile edges.
const NumSides = 4

func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// ParseSide parses a side name or its numeric index.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "0":
		return Top, nil
	case "right", "1":
		return Right, nil
	case "bottom", "2":
		return Bottom, nil
	case "left", "3":
		return Left, nil
	}
	return 0, fmt.Errorf("arch: unknown side %q", s)
}

// PinClass groups pins that share a direction.
type PinClass struct {
	Type PinType
	Pins []int
}

// BlockType is an immutable description of one kind of logic block.
type BlockType struct {
	Index  int
	Name   string
	Width  int
	Height int

	NumPins  int
	PinClass []int      // pin -> class index
	Classes  []PinClass // class index -> class

	NumDrivers   int
	NumReceivers int

	// PinLoc[width][height][side][pin] reports whether the pin is brought
	// out at that edge of that cell.
	PinLoc [][][NumSides][]bool
}

// NewBlockType builds a block type from its classes. Pins not listed by any
// class are open. Pin locations start empty; see SpreadPins and SetPinLoc.
func NewBlockType(index int, name string, width, height, numPins int, classes []PinClass) (*BlockType, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("arch: block %s: footprint %dx%d must be at least 1x1", name, width, height)
	}
	if numPins < 0 {
		return nil, fmt.Errorf("arch: block %s: negative pin count", name)
	}
	bt := &BlockType{
		Index:    index,
		Name:     name,
		Width:    width,
		Height:   height,
		NumPins:  numPins,
		PinClass: make([]int, numPins),
	}
	// class 0 is reserved for pins nobody claimed
	bt.Classes = append(bt.Classes, PinClass{Type: Open})
	for _, c := range classes {
		idx := len(bt.Classes)
		pins := append([]int(nil), c.Pins...)
		for _, pin := range pins {
			if pin < 0 || pin >= numPins {
				return nil, fmt.Errorf("arch: block %s: pin %d out of range [0,%d)", name, pin, numPins)
			}
			if bt.PinClass[pin] != 0 {
				return nil, fmt.Errorf("arch: block %s: pin %d listed by two classes", name, pin)
			}
			bt.PinClass[pin] = idx
		}
		bt.Classes = append(bt.Classes, PinClass{Type: c.Type, Pins: pins})
		switch c.Type {
		case Driver:
			bt.NumDrivers += len(pins)
		case Receiver:
			bt.NumReceivers += len(pins)
		}
	}
	bt.PinLoc = make([][][NumSides][]bool, width)
	for w := range bt.PinLoc {
		bt.PinLoc[w] = make([][NumSides][]bool, height)
		for h := range bt.PinLoc[w] {
			for s := 0; s < NumSides; s++ {
				bt.PinLoc[w][h][s] = make([]bool, numPins)
			}
		}
	}
	return bt, nil
}

// EmptyBlockType returns the pinless type that fills unused grid cells.
func EmptyBlockType() *BlockType {
	bt, _ := NewBlockType(EmptyTypeIndex, EmptyTypeName, 1, 1, 0, nil)
	return bt
}

// PinTypeOf returns the direction of a pin.
func (bt *BlockType) PinTypeOf(pin int) PinType {
	if pin < 0 || pin >= bt.NumPins {
		return Open
	}
	return bt.Classes[bt.PinClass[pin]].Type
}

// NumPinsOf returns the number of driver or receiver pins.
func (bt *BlockType) NumPinsOf(dir PinType) (int, error) {
	switch dir {
	case Driver:
		return bt.NumDrivers, nil
	case Receiver:
		return bt.NumReceivers, nil
	}
	return 0, ErrInvalidPinType
}

// PinsOf lists the pins of a direction in increasing order.
func (bt *BlockType) PinsOf(dir PinType) []int {
	var pins []int
	for pin := 0; pin < bt.NumPins; pin++ {
		if bt.PinTypeOf(pin) == dir {
			pins = append(pins, pin)
		}
	}
	return pins
}

// IsEmpty reports whether this is the fabric's empty type.
func (bt *BlockType) IsEmpty() bool {
	return bt.Index == EmptyTypeIndex
}

// SetPinLoc brings pin out at the given cell edge.
func (bt *BlockType) SetPinLoc(width, height int, side Side, pin int) error {
	if width < 0 || width >= bt.Width || height < 0 || height >= bt.Height {
		return fmt.Errorf("arch: block %s: cell (%d,%d) outside %dx%d footprint", bt.Name, width, height, bt.Width, bt.Height)
	}
	if side < 0 || side >= NumSides {
		return fmt.Errorf("arch: block %s: bad side %d", bt.Name, side)
	}
	if pin < 0 || pin >= bt.NumPins {
		return fmt.Errorf("arch: block %s: pin %d out of range [0,%d)", bt.Name, pin, bt.NumPins)
	}
	bt.PinLoc[width][height][side][pin] = true
	return nil
}

// HasPinLocs reports whether any pin location was assigned.
func (bt *BlockType) HasPinLocs() bool {
	for w := range bt.PinLoc {
		for h := range bt.PinLoc[w] {
			for s := 0; s < NumSides; s++ {
				for _, on := range bt.PinLoc[w][h][s] {
					if on {
						return true
					}
				}
			}
		}
	}
	return false
}

// SpreadPins places every non-open pin on exactly one perimeter edge,
// walking the perimeter round-robin in pin order.
func (bt *BlockType) SpreadPins() {
	type edge struct {
		w, h int
		side Side
	}
	var edges []edge
	for w := 0; w < bt.Width; w++ {
		edges = append(edges, edge{w, bt.Height - 1, Top})
	}
	for h := bt.Height - 1; h >= 0; h-- {
		edges = append(edges, edge{bt.Width - 1, h, Right})
	}
	for w := bt.Width - 1; w >= 0; w-- {
		edges = append(edges, edge{w, 0, Bottom})
	}
	for h := 0; h < bt.Height; h++ {
		edges = append(edges, edge{0, h, Left})
	}
	next := 0
	for pin := 0; pin < bt.NumPins; pin++ {
		if bt.PinTypeOf(pin) == Open {
			continue
		}
		e := edges[next%len(edges)]
		bt.PinLoc[e.w][e.h][e.side][pin] = true
		next++
	}
}

// PinSides returns every (width, height, side) location of a pin.
func (bt *BlockType) PinSides(pin int) [][3]int {
	var out [][3]int
	for w := range bt.PinLoc {
		for h := range bt.PinLoc[w] {
			for s := 0; s < NumSides; s++ {
				if pin < len(bt.PinLoc[w][h][s]) && bt.PinLoc[w][h][s][pin] {
					out = append(out, [3]int{w, h, s})
				}
			}
		}
	}
	return out
}
