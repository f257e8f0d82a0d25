package cbmetrics

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/trackmap"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= eps }

// fourPinBlock is a 1x1 block with four driver pins, all on the top side.
func fourPinBlock(t *testing.T, name string) *arch.BlockType {
	t.Helper()
	bt, err := arch.NewBlockType(1, name, 1, 1, 4, []arch.PinClass{
		{Type: arch.Driver, Pins: []int{0, 1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("NewBlockType: %v", err)
	}
	for pin := 0; pin < 4; pin++ {
		if err := bt.SetPinLoc(0, 0, arch.Top, pin); err != nil {
			t.Fatal(err)
		}
	}
	return bt
}

// wire builds a map where each listed pin uses the given tracks on side.
func wire(t *testing.T, bt *arch.BlockType, fc int, conns map[int][]int, side arch.Side) *trackmap.Map {
	t.Helper()
	m := trackmap.ForBlock(bt, fc)
	for pin, tracks := range conns {
		for slot, track := range tracks {
			if err := m.Set(pin, 0, 0, side, slot, track); err != nil {
				t.Fatal(err)
			}
		}
	}
	return m
}

func uniformFc(bt *arch.BlockType, fc int) []int {
	out := make([]int, bt.NumPins)
	for pin := range out {
		if bt.PinTypeOf(pin) != arch.Open {
			out[pin] = fc
		}
	}
	return out
}

func TestComputeFullyOverlappingPins(t *testing.T) {
	bt := fourPinBlock(t, "blk")
	m := wire(t, bt, 2, map[int][]int{0: {0, 1}, 1: {0, 1}, 2: {0, 1}, 3: {0, 1}}, arch.Top)

	h, err := Compute(ConnBlock{
		Type:         bt,
		Tracks:       m,
		Direction:    arch.Driver,
		Fc:           uniformFc(bt, 2),
		ChannelWidth: 8,
		Segments:     []arch.Segment{{Name: "L1", Length: 1}},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	want := Homogeneity{
		PinHomogeneity:   0,
		WireHomogeneity:  1,
		HammingDistance:  1,
		HammingProximity: 1,
		PinDiversity:     1 - math.Exp(-3.3),
		NumWireTypes:     1,
	}
	if diff := cmp.Diff(want, h, cmp.Comparer(near)); diff != "" {
		t.Errorf("Compute mismatch (-want +got):\n%s", diff)
	}
}

func TestPinHomogeneityBounds(t *testing.T) {
	bt := fourPinBlock(t, "blk")
	segs := []arch.Segment{{Name: "L2", Length: 2}}

	tests := []struct {
		name   string
		tracks []int
		want   float64
	}{
		// tracks 0 and 2 share wire type 0
		{"one wire type", []int{0, 2}, 1},
		{"even spread", []int{0, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conns := map[int][]int{0: tt.tracks, 1: tt.tracks, 2: tt.tracks, 3: tt.tracks}
			h, err := Compute(ConnBlock{
				Type: bt, Tracks: wire(t, bt, 2, conns, arch.Top), Direction: arch.Driver,
				Fc: uniformFc(bt, 2), ChannelWidth: 8, Segments: segs,
			})
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !near(h.PinHomogeneity, tt.want) {
				t.Errorf("PinHomogeneity = %v, want %v", h.PinHomogeneity, tt.want)
			}
		})
	}
}

func TestHammingBothSides(t *testing.T) {
	conns := map[int][]int{0: {0, 1}, 1: {0, 1}, 2: {2, 3}, 3: {2, 3}}
	build := func(name string) ConnBlock {
		bt := fourPinBlock(t, name)
		m := trackmap.ForBlock(bt, 2)
		for pin, tracks := range conns {
			side := arch.Top
			if pin >= 2 {
				side = arch.Bottom
			}
			for slot, track := range tracks {
				m.Set(pin, 0, 0, side, slot, track)
			}
		}
		return ConnBlock{Type: bt, Tracks: m, Direction: arch.Driver, Fc: uniformFc(bt, 2),
			ChannelWidth: 8, Segments: []arch.Segment{{Length: 1}}}
	}

	single, err := Compute(build("blk"))
	if err != nil {
		t.Fatal(err)
	}
	paired, err := Compute(build(arch.CoreLogicName))
	if err != nil {
		t.Fatal(err)
	}

	// one fully overlapping pair per side
	if !near(single.HammingDistance, 1) {
		t.Errorf("single-side HammingDistance = %v, want 1", single.HammingDistance)
	}
	// top and bottom pooled: two overlapping pairs at cost 1, four disjoint
	// pairs at cost 1/16
	if want := (2 + 4.0/16) / 6; !near(paired.HammingDistance, want) {
		t.Errorf("both-sides HammingDistance = %v, want %v", paired.HammingDistance, want)
	}
	if !near(single.HammingProximity, 1) {
		t.Errorf("single-side HammingProximity = %v, want 1", single.HammingProximity)
	}
	// 2*(4+4)/(3*4) over 4 pins
	if want := 1.0 / 3; !near(paired.HammingProximity, want) {
		t.Errorf("both-sides HammingProximity = %v, want %v", paired.HammingProximity, want)
	}
}

func TestComputeDegenerate(t *testing.T) {
	bt := fourPinBlock(t, "blk")
	m := wire(t, bt, 2, map[int][]int{0: {0, 1}}, arch.Top)
	base := ConnBlock{Type: bt, Tracks: m, Direction: arch.Driver, Fc: uniformFc(bt, 2),
		ChannelWidth: 8, Segments: []arch.Segment{{Length: 1}}}

	tests := []struct {
		name   string
		mutate func(cb *ConnBlock)
	}{
		{"zero Fc", func(cb *ConnBlock) { cb.Fc = make([]int, 4) }},
		{"empty type", func(cb *ConnBlock) { cb.Type = arch.EmptyBlockType() }},
		{"mixed segments", func(cb *ConnBlock) { cb.Segments = []arch.Segment{{Length: 1}, {Length: 4}} }},
		{"two segments of one length", func(cb *ConnBlock) { cb.Segments = []arch.Segment{{Length: 2}, {Length: 2}} }},
		{"no segments", func(cb *ConnBlock) { cb.Segments = nil }},
		{"no receivers", func(cb *ConnBlock) { cb.Direction = arch.Receiver }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := base
			tt.mutate(&cb)
			h, err := Compute(cb)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			zero := Homogeneity{NumWireTypes: h.NumWireTypes}
			if h != zero {
				t.Errorf("expected all-zero metrics, got %+v", h)
			}
		})
	}
}

func TestComputeErrors(t *testing.T) {
	bt := fourPinBlock(t, "blk")
	base := ConnBlock{Type: bt, Tracks: wire(t, bt, 2, map[int][]int{0: {0, 1}}, arch.Top),
		Direction: arch.Driver, Fc: uniformFc(bt, 2), ChannelWidth: 8, Segments: []arch.Segment{{Length: 1}}}

	tests := []struct {
		name   string
		mutate func(cb *ConnBlock)
		want   error
	}{
		{"open direction", func(cb *ConnBlock) { cb.Direction = arch.Open }, arch.ErrInvalidPinType},
		{"nil map", func(cb *ConnBlock) { cb.Tracks = nil }, ErrInvalidInput},
		{"small map", func(cb *ConnBlock) { cb.Tracks = trackmap.New(2, 1, 1, 2) }, ErrInvalidInput},
		{"zero channel", func(cb *ConnBlock) { cb.ChannelWidth = 0 }, ErrInvalidInput},
		{"track outside channel", func(cb *ConnBlock) {
			cb.Tracks = wire(t, bt, 2, map[int][]int{0: {0, 9}}, arch.Top)
		}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := base
			tt.mutate(&cb)
			if _, err := Compute(cb); !errors.Is(err, tt.want) {
				t.Errorf("Compute error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScanLimitsCountedPins(t *testing.T) {
	bt, err := arch.NewBlockType(2, "io", 1, 1, 2, []arch.PinClass{{Type: arch.Driver, Pins: []int{0, 1}}})
	if err != nil {
		t.Fatal(err)
	}
	m := trackmap.ForBlock(bt, 2)
	// both pins appear on every side; only the first two locations count
	for side := arch.Side(0); side < arch.NumSides; side++ {
		for pin := 0; pin < 2; pin++ {
			m.Set(pin, 0, 0, side, 0, pin)
			m.Set(pin, 0, 0, side, 1, pin+2)
		}
	}
	cb := ConnBlock{Type: bt, Tracks: m, Direction: arch.Driver, Fc: []int{2, 2}, ChannelWidth: 4}

	tl, err := scan(cb, 2, 1, 2)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if diff := cmp.Diff([arch.NumSides]int{2, 0, 0, 0}, tl.countedPerSide); diff != "" {
		t.Errorf("countedPerSide mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1, 1, 1}, tl.trackConns[arch.Top]); diff != "" {
		t.Errorf("top track counts mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSkipsOpenSlots(t *testing.T) {
	bt := fourPinBlock(t, "blk")
	m := wire(t, bt, 3, map[int][]int{0: {5, trackmap.Open, 6}}, arch.Top)
	cb := ConnBlock{Type: bt, Tracks: m, Direction: arch.Driver, Fc: uniformFc(bt, 3), ChannelWidth: 8}

	tl, err := scan(cb, 3, 1, 4)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if diff := cmp.Diff([]int{5, 6}, tl.sidePins[arch.Top][0]); diff != "" {
		t.Errorf("pin 0 tracks mismatch (-want +got):\n%s", diff)
	}
	if tl.wireTypeConns[0][0] != 2 {
		t.Errorf("pin 0 wire type count = %d, want 2", tl.wireTypeConns[0][0])
	}
}

// clbArch has a 60-pin cluster whose drivers are brought out five per side.
const clbArch = `
channel 16;
segment L4 length 4;
block clb {
	class receiver pins 0..39;
	class driver pins 40..59;
	fc receiver 4;
	fc driver 4;
	pinloc top 40 44 48 52 56;
	pinloc right 41 45 49 53 57;
	pinloc bottom 42 46 50 54 58;
	pinloc left 43 47 51 55 59;
}
grid 5 x 5 {
	fill clb;
}
`

func clbConnBlock(t *testing.T, seed uint64) (ConnBlock, *arch.Architecture) {
	t.Helper()
	a, err := arch.LoadString(clbArch)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	clb, err := a.Lookup("clb")
	if err != nil {
		t.Fatal(err)
	}
	m, err := trackmap.Generate(clb, arch.Driver, 4, a.ChannelWidth, rand.New(rand.NewPCG(seed, seed+1)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return ConnBlock{
		Type:         clb,
		Tracks:       m,
		Direction:    arch.Driver,
		Fc:           a.FcArray(clb),
		ChannelWidth: a.ChannelWidth,
		Segments:     a.Segments,
	}, a
}

func TestMetricsInUnitRange(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		cb, _ := clbConnBlock(t, seed)
		h, err := Compute(cb)
		if err != nil {
			t.Fatalf("seed %d: Compute: %v", seed, err)
		}
		for _, m := range []Metric{HammingDistance, HammingProximity, WireHomogeneity, PinDiversity, PinHomogeneity} {
			if v := h.Get(m); v < 0 || v > 1 || math.IsNaN(v) {
				t.Errorf("seed %d: %s = %v outside [0,1]", seed, m, v)
			}
		}
		if h.NumWireTypes != 4 {
			t.Errorf("seed %d: NumWireTypes = %d, want 4", seed, h.NumWireTypes)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	cb, _ := clbConnBlock(t, 42)
	first, err := Compute(cb)
	if err != nil {
		t.Fatal(err)
	}
	before := cb.Tracks.Clone()
	for i := 0; i < 3; i++ {
		again, err := Compute(cb)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
	if !cb.Tracks.Equal(before) {
		t.Error("Compute modified the track map")
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want Metric
	}{
		{"hd", HammingDistance},
		{"hamming-proximity", HammingProximity},
		{"WH", WireHomogeneity},
		{"pin-diversity", PinDiversity},
		{"ph", PinHomogeneity},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseMetric(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if back, _ := ParseMetric(got.String()); back != got {
			t.Errorf("ParseMetric(%q.String()) = %v", got, back)
		}
	}
	if _, err := ParseMetric("fanout"); err == nil {
		t.Error("ParseMetric(fanout) should fail")
	}
}
