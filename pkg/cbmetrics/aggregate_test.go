package cbmetrics

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
)

func driverType(t *testing.T, index int, name string, w, h, drivers int) *arch.BlockType {
	t.Helper()
	pins := make([]int, drivers)
	for i := range pins {
		pins[i] = i
	}
	bt, err := arch.NewBlockType(index, name, w, h, drivers, []arch.PinClass{{Type: arch.Driver, Pins: pins}})
	if err != nil {
		t.Fatalf("NewBlockType: %v", err)
	}
	return bt
}

func TestCensus(t *testing.T) {
	empty := arch.EmptyBlockType()
	small := driverType(t, 1, "small", 1, 1, 2)
	tall := driverType(t, 2, "tall", 1, 2, 4)

	g := arch.NewGrid(4, 4, empty)
	for _, xy := range [][2]int{{0, 0}, {1, 0}} {
		if err := g.Place(small, xy[0], xy[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Place(tall, 2, 1); err != nil {
		t.Fatal(err)
	}
	if err := g.Place(tall, 3, 2); err != nil {
		t.Fatal(err)
	}
	g.Tiles[3][2].Usage = 3

	got, err := Census(g, 3)
	if err != nil {
		t.Fatalf("Census: %v", err)
	}
	// 16 cells: 2 small, 4 covered by two tall blocks, 10 empty
	want := []int{10, 2, 1 + 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Census mismatch (-want +got):\n%s", diff)
	}
}

func TestCensusErrors(t *testing.T) {
	if _, err := Census(nil, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil grid = %v, want ErrInvalidInput", err)
	}

	g := arch.NewGrid(2, 2, arch.EmptyBlockType())
	g.Place(driverType(t, 5, "far", 1, 1, 1), 0, 0)
	if _, err := Census(g, 2); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("index out of range = %v, want ErrInvalidInput", err)
	}

	g = arch.NewGrid(1, 1, nil)
	if _, err := Census(g, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("tile without type = %v, want ErrInvalidInput", err)
	}
}

func TestAggregateSingleTypeIsExact(t *testing.T) {
	empty := arch.EmptyBlockType()
	clb := driverType(t, 1, "clb", 1, 1, 7)
	g := arch.NewGrid(7, 7, clb)

	h := Homogeneity{PinHomogeneity: 0.123456789, WireHomogeneity: 0.987654321}
	got, err := AggregateFabric([]Homogeneity{{}, h}, []*arch.BlockType{empty, clb}, g, arch.Driver)
	if err != nil {
		t.Fatalf("AggregateFabric: %v", err)
	}
	if got.PinHomogeneity != h.PinHomogeneity || got.WireHomogeneity != h.WireHomogeneity {
		t.Errorf("got %v/%v, want exactly %v/%v",
			got.PinHomogeneity, got.WireHomogeneity, h.PinHomogeneity, h.WireHomogeneity)
	}
	if got.TotalPins != 49*7 {
		t.Errorf("TotalPins = %d, want %d", got.TotalPins, 49*7)
	}
}

func TestAggregateWeighting(t *testing.T) {
	empty := arch.EmptyBlockType()
	a := driverType(t, 1, "a", 1, 1, 2)
	b := driverType(t, 2, "b", 1, 1, 4)

	g := arch.NewGrid(3, 1, empty)
	g.Place(a, 0, 0)
	g.Place(a, 1, 0)
	g.Place(b, 2, 0)
	g.Tiles[2][0].Usage = 3

	perType := []Homogeneity{
		{PinHomogeneity: 1, WireHomogeneity: 1}, // empty carries no pins
		{PinHomogeneity: 0.5, WireHomogeneity: 0.25},
		{PinHomogeneity: 0.25, WireHomogeneity: 0.5},
	}
	got, err := AggregateFabric(perType, []*arch.BlockType{empty, a, b}, g, arch.Driver)
	if err != nil {
		t.Fatalf("AggregateFabric: %v", err)
	}
	// weights: a 2*2=4, b 3*4=12
	want := FabricHomogeneity{
		PinHomogeneity:  (0.5*4 + 0.25*12) / 16,
		WireHomogeneity: (0.25*4 + 0.5*12) / 16,
		TotalPins:       16,
		Instances:       []int{0, 2, 3},
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(near)); diff != "" {
		t.Errorf("AggregateFabric mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateNoPins(t *testing.T) {
	empty := arch.EmptyBlockType()
	got, err := AggregateFabric([]Homogeneity{{PinHomogeneity: 1}}, []*arch.BlockType{empty},
		arch.NewGrid(2, 2, empty), arch.Receiver)
	if err != nil {
		t.Fatalf("AggregateFabric: %v", err)
	}
	if got.PinHomogeneity != 0 || got.WireHomogeneity != 0 || got.TotalPins != 0 {
		t.Errorf("expected zero result, got %+v", got)
	}
}

func TestAggregateErrors(t *testing.T) {
	empty := arch.EmptyBlockType()
	clb := driverType(t, 1, "clb", 1, 1, 2)
	g := arch.NewGrid(2, 2, clb)
	types := []*arch.BlockType{empty, clb}
	perType := []Homogeneity{{}, {}}

	if _, err := AggregateFabric(perType, types, g, arch.Open); !errors.Is(err, arch.ErrInvalidPinType) {
		t.Errorf("open direction = %v, want ErrInvalidPinType", err)
	}
	if _, err := AggregateFabric(perType[:1], types, g, arch.Driver); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("length mismatch = %v, want ErrInvalidInput", err)
	}
	if _, err := AggregateFabric(perType, []*arch.BlockType{clb, empty}, g, arch.Driver); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("misordered types = %v, want ErrInvalidInput", err)
	}
}

func TestAggregateFromArchitecture(t *testing.T) {
	cb, a := clbConnBlock(t, 7)
	h, err := Compute(cb)
	if err != nil {
		t.Fatal(err)
	}
	perType := make([]Homogeneity, len(a.Types))
	perType[cb.Type.Index] = h

	got, err := AggregateFabric(perType, a.Types, a.Grid, arch.Driver)
	if err != nil {
		t.Fatalf("AggregateFabric: %v", err)
	}
	// the clb is the only type with drivers
	if got.PinHomogeneity != h.PinHomogeneity || got.WireHomogeneity != h.WireHomogeneity {
		t.Errorf("fabric %+v does not match clb metrics %+v", got, h)
	}
	if got.Instances[cb.Type.Index] == 0 {
		t.Error("no clb instances counted")
	}
}
