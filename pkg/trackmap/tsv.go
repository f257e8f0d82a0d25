package trackmap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

// TSVHeader is the first line of a tab separated track map.
const TSVHeader = "pin\twidth\theight\tside\tconn\ttrack"

// WriteTSV writes one row per slot of every connected dir pin, in the order
// the metric engine scans them: side, width, height, pin. At most as many
// pins are written as bt has pins of that direction.
func WriteTSV(w io.Writer, m *Map, bt *arch.BlockType, dir arch.PinType) error {
	numPins, err := bt.NumPinsOf(dir)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, TSVHeader)

	counted := 0
	for side := arch.Side(0); side < arch.NumSides; side++ {
		for wi := 0; wi < bt.Width; wi++ {
			for hi := 0; hi < bt.Height; hi++ {
				for pin := 0; pin < bt.NumPins; pin++ {
					if bt.PinTypeOf(pin) != dir {
						continue
					}
					if counted == numPins {
						break
					}
					if !m.Connected(pin, wi, hi, side) {
						continue
					}
					for slot, track := range m.Slots(pin, wi, hi, side) {
						fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\t%d\n", pin, wi, hi, int(side), slot, track)
					}
					counted++
				}
			}
		}
	}
	return bw.Flush()
}

// ReadTSV reads a map written by WriteTSV. Slots not listed stay open. When
// fc is 0 it is taken from the largest slot index in the input.
func ReadTSV(r io.Reader, bt *arch.BlockType, fc int) (*Map, error) {
	type row struct{ pin, w, h, side, slot, track int }
	var rows []row
	maxSlot := -1

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 || line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, fmt.Errorf("trackmap: line %d: expected 6 fields, got %d", lineNo, len(fields))
		}
		var vals [6]int
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("trackmap: line %d: %w", lineNo, err)
			}
			vals[i] = v
		}
		rw := row{vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]}
		if rw.slot > maxSlot {
			maxSlot = rw.slot
		}
		rows = append(rows, rw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trackmap: %w", err)
	}

	if fc == 0 {
		fc = maxSlot + 1
	}
	m := ForBlock(bt, fc)
	for _, rw := range rows {
		if err := m.Set(rw.pin, rw.w, rw.h, arch.Side(rw.side), rw.slot, rw.track); err != nil {
			return nil, err
		}
	}
	return m, nil
}
