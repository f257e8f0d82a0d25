package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/cbmetrics"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/trackmap"
)

var (
	// Flags shared by the block level commands
	blockName  string
	dirName    string
	mapPath    string
	outPath    string
	seed       uint64
	jsonOutput bool
)

// loadBlock loads the architecture and looks up the selected block type and
// direction.
func loadBlock(path string) (*arch.Architecture, *arch.BlockType, arch.PinType, error) {
	a, err := arch.Load(path)
	if err != nil {
		return nil, nil, arch.Open, fmt.Errorf("failed to load architecture: %w", err)
	}
	bt, err := a.Lookup(blockName)
	if err != nil {
		return nil, nil, arch.Open, err
	}
	dir, err := parseDirection(dirName)
	if err != nil {
		return nil, nil, arch.Open, err
	}
	if verbose {
		fmt.Printf("Loaded %s: channel width %d, %d block type(s)\n", path, a.ChannelWidth, len(a.Types))
	}
	return a, bt, dir, nil
}

func parseDirection(s string) (arch.PinType, error) {
	dir, err := arch.ParsePinType(s)
	if err != nil {
		return arch.Open, err
	}
	if dir != arch.Driver && dir != arch.Receiver {
		return arch.Open, fmt.Errorf("direction must be driver or receiver, got %q", s)
	}
	return dir, nil
}

// newRand returns a generator for seed, or one seeded from the clock when
// seed is 0.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>32|1))
}

func isSexp(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sexp")
}

// readMap reads a track map in the format implied by the file extension.
func readMap(path string, bt *arch.BlockType, fc int) (*trackmap.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track map: %w", err)
	}
	defer f.Close()

	var m *trackmap.Map
	if isSexp(path) {
		m, err = trackmap.ReadSexp(f)
	} else {
		m, err = trackmap.ReadTSV(f, bt, fc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return m, nil
}

// writeMap saves a track map, creating the parent directory if needed.
func writeMap(path string, m *trackmap.Map, bt *arch.BlockType, dir arch.PinType) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if isSexp(path) {
		err = trackmap.WriteSexp(f, m)
	} else {
		err = trackmap.WriteTSV(f, m, bt, dir)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}

// connBlock assembles the metric input for one block type. Mixed Fc within a
// direction is rejected.
func connBlock(a *arch.Architecture, bt *arch.BlockType, dir arch.PinType, m *trackmap.Map) (cbmetrics.ConnBlock, error) {
	fc := a.FcArray(bt)
	if err := arch.CheckUniformFc(fc, bt, dir); err != nil {
		return cbmetrics.ConnBlock{}, err
	}
	return cbmetrics.ConnBlock{
		Type:         bt,
		Tracks:       m,
		Direction:    dir,
		Fc:           fc,
		ChannelWidth: a.ChannelWidth,
		Segments:     a.Segments,
	}, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to export JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printHomogeneity(h cbmetrics.Homogeneity) {
	fmt.Printf("Wire types:          %d\n", h.NumWireTypes)
	fmt.Printf("Pin homogeneity:     %.6f\n", h.PinHomogeneity)
	fmt.Printf("Wire homogeneity:    %.6f\n", h.WireHomogeneity)
	fmt.Printf("Hamming distance:    %.6f\n", h.HammingDistance)
	fmt.Printf("Hamming proximity:   %.6f\n", h.HammingProximity)
	fmt.Printf("Pin diversity:       %.6f\n", h.PinDiversity)
}
