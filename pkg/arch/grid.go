package arch

import "fmt"

// Tile is one cell of the placement grid.
type Tile struct {
	Type         *BlockType
	Usage        int
	WidthOffset  int
	HeightOffset int
}

// IsAnchor reports whether the tile is the origin cell of its block. The
// other cells of a multi-cell block carry non-zero offsets.
func (t Tile) IsAnchor() bool {
	return t.WidthOffset == 0 && t.HeightOffset == 0
}

// Grid is a Width x Height array of tiles indexed Tiles[x][y].
type Grid struct {
	Width  int
	Height int
	Tiles  [][]Tile
}

// NewGrid returns a grid with every tile set to fill.
func NewGrid(width, height int, fill *BlockType) *Grid {
	g := &Grid{Width: width, Height: height, Tiles: make([][]Tile, width)}
	for x := range g.Tiles {
		g.Tiles[x] = make([]Tile, height)
		for y := range g.Tiles[x] {
			g.Tiles[x][y] = Tile{Type: fill}
		}
	}
	return g
}

// Place puts bt with its anchor at (x, y), marking the covered cells with
// their offsets from the anchor.
func (g *Grid) Place(bt *BlockType, x, y int) error {
	if x < 0 || y < 0 || x+bt.Width > g.Width || y+bt.Height > g.Height {
		return fmt.Errorf("arch: block %s at (%d,%d) does not fit in %dx%d grid", bt.Name, x, y, g.Width, g.Height)
	}
	for dx := 0; dx < bt.Width; dx++ {
		for dy := 0; dy < bt.Height; dy++ {
			g.Tiles[x+dx][y+dy] = Tile{Type: bt, WidthOffset: dx, HeightOffset: dy}
		}
	}
	return nil
}

// FillPerimeter places bt on every edge cell except the corners, which are
// left empty as in island-style fabrics.
func (g *Grid) FillPerimeter(bt, corner *BlockType) error {
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			edgeX := x == 0 || x == g.Width-1
			edgeY := y == 0 || y == g.Height-1
			switch {
			case edgeX && edgeY:
				g.Tiles[x][y] = Tile{Type: corner}
			case edgeX || edgeY:
				if err := g.Place(bt, x, y); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// At returns the tile at (x, y).
func (g *Grid) At(x, y int) (Tile, bool) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return Tile{}, false
	}
	return g.Tiles[x][y], true
}
