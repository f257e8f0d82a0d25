package arch

import "github.com/alecthomas/participle/v2/lexer"

// ArchFile is a parsed architecture description.
type ArchFile struct {
	Stmts []*Statement `@@*`
}

// Statement is one top-level declaration.
type Statement struct {
	Channel *ChannelStmt `  @@`
	Segment *SegmentStmt `| @@`
	Block   *BlockStmt   `| @@`
	Grid    *GridStmt    `| @@`
}

// ChannelStmt sets the number of tracks per channel.
// Example: channel 32;
type ChannelStmt struct {
	Pos   lexer.Position
	Width int `KwChannel @Integer ";"`
}

// SegmentStmt declares a wire segment type.
// Example: segment L4 length 4 freq 1.0;
type SegmentStmt struct {
	Pos    lexer.Position
	Name   string   `KwSegment @Ident`
	Length int      `KwLength @Integer`
	Freq   *float64 `( KwFreq @( Real | Integer ) )? ";"`
}

// BlockStmt declares a block type.
// Example: block clb size 1 x 1 pins 60 { ... }
type BlockStmt struct {
	Pos   lexer.Position
	Name  string       `KwBlock @Ident`
	Size  *SizeSpec    `( KwSize @@ )?`
	Pins  *int         `( KwPins @Integer )?`
	Items []*BlockItem `"{" @@* "}"`
}

// SizeSpec is a block footprint in grid cells.
type SizeSpec struct {
	Width  int `@Integer "x"`
	Height int `@Integer`
}

// BlockItem is a declaration inside a block body.
type BlockItem struct {
	Class  *ClassItem  `  @@`
	Fc     *FcItem     `| @@`
	PinLoc *PinLocItem `| @@`
}

// ClassItem declares a pin class.
// Example: class driver pins 40..59;
type ClassItem struct {
	Pos  lexer.Position
	Type string      `KwClass @Ident`
	Pins []*PinRange `KwPins @@ ( ","? @@ )* ";"`
}

// FcItem sets the fan-out of every pin of one direction.
// Example: fc driver 4;
type FcItem struct {
	Pos   lexer.Position
	Type  string `KwFc @Ident`
	Value int    `@Integer ";"`
}

// PinLocItem brings pins out on one side of a cell.
// Example: pinloc top at 0 0 40 44 48;
type PinLocItem struct {
	Pos  lexer.Position
	Side string      `KwPinloc @Ident`
	Cell *CellRef    `( KwAt @@ )?`
	Pins []*PinRange `@@ ( ","? @@ )* ";"`
}

// CellRef addresses a cell inside a block footprint.
type CellRef struct {
	X int `@Integer`
	Y int `@Integer`
}

// PinRange is a single pin or an inclusive range.
type PinRange struct {
	From int  `@Integer`
	To   *int `( Range @Integer )?`
}

// Expand lists the pins covered by the range.
func (r *PinRange) Expand() []int {
	if r.To == nil {
		return []int{r.From}
	}
	lo, hi := r.From, *r.To
	if hi < lo {
		lo, hi = hi, lo
	}
	pins := make([]int, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		pins = append(pins, p)
	}
	return pins
}

// GridStmt describes the placement grid.
// Example: grid 6 x 6 { perimeter io; fill clb; }
type GridStmt struct {
	Pos    lexer.Position
	Width  int         `KwGrid @Integer "x"`
	Height int         `@Integer`
	Items  []*GridItem `"{" @@* "}"`
}

// GridItem is applied to the grid in file order.
type GridItem struct {
	Fill      *NamedItem `  KwFill @@`
	Perimeter *NamedItem `| KwPerimeter @@`
	Place     *PlaceItem `| @@`
}

// NamedItem references a block type by name.
type NamedItem struct {
	Pos  lexer.Position
	Name string `@Ident ";"`
}

// PlaceItem places one block with its anchor at (X, Y).
// Example: place ram at 2 2 usage 1;
type PlaceItem struct {
	Pos   lexer.Position
	Block string `KwPlace @Ident KwAt`
	X     int    `@Integer`
	Y     int    `@Integer`
	Usage *int   `( KwUsage @Integer )? ";"`
}

func expandRanges(ranges []*PinRange) []int {
	var pins []int
	for _, r := range ranges {
		pins = append(pins, r.Expand()...)
	}
	return pins
}
