package trackmap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chewxy/sexp"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// WriteSexp writes every connected location of m as an s-expression:
//
//	(trackmap (pins 60) (width 1) (height 1) (fc 4)
//	  (conn 40 0 0 0 3 7 12 20))
//
// Each conn lists pin, width, height, side and then the fc slots.
func WriteSexp(w io.Writer, m *Map) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "(trackmap (pins %d) (width %d) (height %d) (fc %d)", m.pins, m.width, m.height, m.fc)
	for pin := 0; pin < m.pins; pin++ {
		for wi := 0; wi < m.width; wi++ {
			for hi := 0; hi < m.height; hi++ {
				for side := arch.Side(0); side < arch.NumSides; side++ {
					if !m.Connected(pin, wi, hi, side) {
						continue
					}
					fmt.Fprintf(bw, "\n  (conn %d %d %d %d", pin, wi, hi, int(side))
					for _, track := range m.Slots(pin, wi, hi, side) {
						fmt.Fprintf(bw, " %d", track)
					}
					bw.WriteString(")")
				}
			}
		}
	}
	bw.WriteString(")\n")
	return bw.Flush()
}

// ReadSexp reads a map written by WriteSexp.
func ReadSexp(r io.Reader) (*Map, error) {
	sexps, err := sexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("trackmap: parse error: %w", err)
	}
	if len(sexps) == 0 {
		return nil, fmt.Errorf("trackmap: empty input")
	}
	root := sexps[0]
	if root.IsLeaf() || atom(root.Head()) != "trackmap" {
		return nil, fmt.Errorf("trackmap: expected (trackmap ...), got %s", root)
	}

	dims := map[string]int{}
	var conns [][]int
	for _, node := range elements(root.Tail()) {
		if node.IsLeaf() {
			return nil, fmt.Errorf("trackmap: unexpected atom %s", node)
		}
		key := atom(node.Head())
		vals, err := ints(node.Tail())
		if err != nil {
			return nil, fmt.Errorf("trackmap: (%s ...): %w", key, err)
		}
		switch key {
		case "pins", "width", "height", "fc":
			if len(vals) != 1 || vals[0] < 0 {
				return nil, fmt.Errorf("trackmap: (%s ...) needs one non-negative value", key)
			}
			dims[key] = vals[0]
		case "conn":
			conns = append(conns, vals)
		default:
			return nil, fmt.Errorf("trackmap: unknown field %q", key)
		}
	}
	for _, key := range []string{"pins", "width", "height", "fc"} {
		if _, ok := dims[key]; !ok {
			return nil, fmt.Errorf("trackmap: missing (%s ...)", key)
		}
	}

	m := New(dims["pins"], dims["width"], dims["height"], dims["fc"])
	for _, c := range conns {
		if len(c) < 4 || len(c)-4 > m.fc {
			return nil, fmt.Errorf("trackmap: conn %v: want pin width height side and up to %d tracks", c, m.fc)
		}
		for slot, track := range c[4:] {
			if err := m.Set(c[0], c[1], c[2], arch.Side(c[3]), slot, track); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// elements flattens a list into its members. Tail is never taken past the
// last element.
func elements(s sexp.Sexp) []sexp.Sexp {
	var out []sexp.Sexp
	for cur := s; cur != nil && !cur.IsLeaf(); cur = cur.Tail() {
		n := cur.LeafCount()
		if n == 0 {
			break
		}
		if head := cur.Head(); head != nil {
			out = append(out, head)
		}
		if n <= 1 {
			break
		}
	}
	return out
}

func atom(s sexp.Sexp) string {
	if s == nil || !s.IsLeaf() {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(s))
}

func ints(s sexp.Sexp) ([]int, error) {
	var vals []int
	for _, e := range elements(s) {
		v, err := strconv.Atoi(atom(e))
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}
