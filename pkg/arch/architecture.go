package arch

import (
	"fmt"
	"strings"
)

// Architecture is the fully resolved content of a description file.
type Architecture struct {
	ChannelWidth int
	Segments     []Segment
	Types        []*BlockType // Types[i].Index == i; Types[0] is EMPTY
	Grid         *Grid        // nil when the file has no grid statement

	fc [][]int // type index -> per-pin Fc
}

// NewArchitecture returns an architecture holding only the empty type.
func NewArchitecture(channelWidth int) *Architecture {
	return &Architecture{
		ChannelWidth: channelWidth,
		Types:        []*BlockType{EmptyBlockType()},
		fc:           [][]int{nil},
	}
}

// AddType appends bt, assigning it the next type index.
func (a *Architecture) AddType(bt *BlockType) error {
	if _, err := a.Lookup(bt.Name); err == nil {
		return fmt.Errorf("arch: block type %q defined twice", bt.Name)
	}
	bt.Index = len(a.Types)
	a.Types = append(a.Types, bt)
	a.fc = append(a.fc, make([]int, bt.NumPins))
	return nil
}

// Lookup finds a block type by name, ignoring case.
func (a *Architecture) Lookup(name string) (*BlockType, error) {
	for _, bt := range a.Types {
		if strings.EqualFold(bt.Name, name) {
			return bt, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlock, name)
}

// SetFc sets the fan-out of every pin of dir in bt.
func (a *Architecture) SetFc(bt *BlockType, dir PinType, fc int) error {
	if dir != Driver && dir != Receiver {
		return ErrInvalidPinType
	}
	if fc < 0 {
		return fmt.Errorf("arch: block %s: negative Fc %d", bt.Name, fc)
	}
	arr := a.FcArray(bt)
	for pin := 0; pin < bt.NumPins; pin++ {
		if bt.PinTypeOf(pin) == dir {
			arr[pin] = fc
		}
	}
	return nil
}

// FcArray returns the per-pin fan-out of bt. The slice is shared with the
// architecture.
func (a *Architecture) FcArray(bt *BlockType) []int {
	if bt.Index < 0 || bt.Index >= len(a.fc) {
		return nil
	}
	if a.fc[bt.Index] == nil && bt.NumPins > 0 {
		a.fc[bt.Index] = make([]int, bt.NumPins)
	}
	return a.fc[bt.Index]
}

// NumWireTypes classifies the architecture's segments.
func (a *Architecture) NumWireTypes() int {
	return NumWireTypes(a.Segments)
}

// Build resolves a parsed file into an Architecture.
func (f *ArchFile) Build() (*Architecture, error) {
	a := NewArchitecture(0)

	for _, stmt := range f.Stmts {
		switch {
		case stmt.Channel != nil:
			if stmt.Channel.Width < 1 {
				return nil, fmt.Errorf("%s: channel width must be positive", stmt.Channel.Pos)
			}
			a.ChannelWidth = stmt.Channel.Width
		case stmt.Segment != nil:
			seg := Segment{Name: stmt.Segment.Name, Length: stmt.Segment.Length, Frequency: 1}
			if stmt.Segment.Freq != nil {
				seg.Frequency = *stmt.Segment.Freq
			}
			a.Segments = append(a.Segments, seg)
		case stmt.Block != nil:
			if err := a.buildBlock(stmt.Block); err != nil {
				return nil, err
			}
		}
	}

	// grids reference block types, so they are resolved after every block
	for _, stmt := range f.Stmts {
		if stmt.Grid == nil {
			continue
		}
		if a.Grid != nil {
			return nil, fmt.Errorf("%s: more than one grid statement", stmt.Grid.Pos)
		}
		g, err := a.buildGrid(stmt.Grid)
		if err != nil {
			return nil, err
		}
		a.Grid = g
	}

	return a, nil
}

func (a *Architecture) buildBlock(bs *BlockStmt) error {
	width, height := 1, 1
	if bs.Size != nil {
		width, height = bs.Size.Width, bs.Size.Height
	}

	var classes []PinClass
	numPins := 0
	for _, item := range bs.Items {
		if item.Class == nil {
			continue
		}
		dir, err := ParsePinType(item.Class.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", item.Class.Pos, err)
		}
		pins := expandRanges(item.Class.Pins)
		for _, p := range pins {
			if p+1 > numPins {
				numPins = p + 1
			}
		}
		classes = append(classes, PinClass{Type: dir, Pins: pins})
	}
	if bs.Pins != nil {
		if *bs.Pins < numPins {
			return fmt.Errorf("%s: block %s declares %d pins but classes use %d", bs.Pos, bs.Name, *bs.Pins, numPins)
		}
		numPins = *bs.Pins
	}

	bt, err := NewBlockType(0, bs.Name, width, height, numPins, classes)
	if err != nil {
		return fmt.Errorf("%s: %w", bs.Pos, err)
	}
	if err := a.AddType(bt); err != nil {
		return fmt.Errorf("%s: %w", bs.Pos, err)
	}

	for _, item := range bs.Items {
		switch {
		case item.Fc != nil:
			dir, err := ParsePinType(item.Fc.Type)
			if err != nil {
				return fmt.Errorf("%s: %w", item.Fc.Pos, err)
			}
			if err := a.SetFc(bt, dir, item.Fc.Value); err != nil {
				return fmt.Errorf("%s: %w", item.Fc.Pos, err)
			}
		case item.PinLoc != nil:
			side, err := ParseSide(item.PinLoc.Side)
			if err != nil {
				return fmt.Errorf("%s: %w", item.PinLoc.Pos, err)
			}
			x, y := 0, 0
			if item.PinLoc.Cell != nil {
				x, y = item.PinLoc.Cell.X, item.PinLoc.Cell.Y
			}
			for _, pin := range expandRanges(item.PinLoc.Pins) {
				if err := bt.SetPinLoc(x, y, side, pin); err != nil {
					return fmt.Errorf("%s: %w", item.PinLoc.Pos, err)
				}
			}
		}
	}

	if !bt.HasPinLocs() {
		bt.SpreadPins()
	}
	return nil
}

func (a *Architecture) buildGrid(gs *GridStmt) (*Grid, error) {
	if gs.Width < 1 || gs.Height < 1 {
		return nil, fmt.Errorf("%s: grid must be at least 1 x 1", gs.Pos)
	}
	empty := a.Types[EmptyTypeIndex]
	g := NewGrid(gs.Width, gs.Height, empty)

	for _, item := range gs.Items {
		switch {
		case item.Fill != nil:
			bt, err := a.Lookup(item.Fill.Name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", item.Fill.Pos, err)
			}
			fillInterior(g, bt)
		case item.Perimeter != nil:
			bt, err := a.Lookup(item.Perimeter.Name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", item.Perimeter.Pos, err)
			}
			if err := g.FillPerimeter(bt, empty); err != nil {
				return nil, fmt.Errorf("%s: %w", item.Perimeter.Pos, err)
			}
		case item.Place != nil:
			bt, err := a.Lookup(item.Place.Block)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", item.Place.Pos, err)
			}
			if err := g.Place(bt, item.Place.X, item.Place.Y); err != nil {
				return nil, fmt.Errorf("%s: %w", item.Place.Pos, err)
			}
			if item.Place.Usage != nil {
				g.Tiles[item.Place.X][item.Place.Y].Usage = *item.Place.Usage
			}
		}
	}
	return g, nil
}

// fillInterior tiles bt over the cells inside the perimeter ring, stepping
// by the block footprint and skipping spots where it would not fit.
func fillInterior(g *Grid, bt *BlockType) {
	for x := 1; x+bt.Width <= g.Width-1; x += bt.Width {
		for y := 1; y+bt.Height <= g.Height-1; y += bt.Height {
			_ = g.Place(bt, x, y)
		}
	}
}
