package cbmetrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/trackmap"
)

var (
	// ErrInvalidInput is returned for malformed connection blocks.
	ErrInvalidInput = errors.New("cbmetrics: invalid input")
	// ErrMetricFamily is returned when a tuner is asked to drive a metric it
	// does not handle.
	ErrMetricFamily = errors.New("cbmetrics: metric not supported by this tuner")
	// ErrChannelSaturated is returned when Fc leaves no free track to move a
	// connection to.
	ErrChannelSaturated = errors.New("cbmetrics: Fc leaves no free track in the channel")
	// ErrNoMutablePins is returned when none of the pins a tuner may change
	// is connected.
	ErrNoMutablePins = errors.New("cbmetrics: no connected pin in the mutable pin group")
)

// Metric selects one of the five connection block metrics.
type Metric int

const (
	MetricNone Metric = iota
	HammingDistance
	HammingProximity
	WireHomogeneity
	PinDiversity
	PinHomogeneity
)

var metricNames = map[Metric]string{
	HammingDistance:  "hamming-distance",
	HammingProximity: "hamming-proximity",
	WireHomogeneity:  "wire-homogeneity",
	PinDiversity:     "pin-diversity",
	PinHomogeneity:   "pin-homogeneity",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return "none"
}

// ParseMetric accepts the names printed by String plus the short forms
// hd, hp, wh, pd and ph.
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "hd":
		return HammingDistance, nil
	case "hp":
		return HammingProximity, nil
	case "wh":
		return WireHomogeneity, nil
	case "pd":
		return PinDiversity, nil
	case "ph":
		return PinHomogeneity, nil
	}
	for m, name := range metricNames {
		if s == name {
			return m, nil
		}
	}
	return MetricNone, fmt.Errorf("cbmetrics: unknown metric %q", s)
}

// IsHammingFamily reports whether TuneHamming can drive the metric.
func (m Metric) IsHammingFamily() bool {
	return m == HammingDistance || m == HammingProximity || m == WireHomogeneity
}

// IsPinFamily reports whether TunePinMetric can drive the metric.
func (m Metric) IsPinFamily() bool {
	return m == PinDiversity || m == PinHomogeneity
}

// Homogeneity holds the metrics of one block type and pin direction.
type Homogeneity struct {
	PinHomogeneity   float64 `json:"pin_homogeneity"`
	WireHomogeneity  float64 `json:"wire_homogeneity"`
	HammingDistance  float64 `json:"hamming_distance"`
	HammingProximity float64 `json:"hamming_proximity"`
	PinDiversity     float64 `json:"pin_diversity"`
	NumWireTypes     int     `json:"num_wire_types"`
}

// Get returns the value of one metric.
func (h Homogeneity) Get(m Metric) float64 {
	switch m {
	case HammingDistance:
		return h.HammingDistance
	case HammingProximity:
		return h.HammingProximity
	case WireHomogeneity:
		return h.WireHomogeneity
	case PinDiversity:
		return h.PinDiversity
	case PinHomogeneity:
		return h.PinHomogeneity
	}
	return 0
}

// ConnBlock bundles everything Compute reads.
type ConnBlock struct {
	Type         *arch.BlockType
	Tracks       *trackmap.Map
	Direction    arch.PinType
	Fc           []int // per pin
	ChannelWidth int
	Segments     []arch.Segment
}
