package cbmetrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// homogeneityExponent is applied to every deviation and overlap term.
const homogeneityExponent = 2

// diversityDecay sets how fast repeated connections to one wire type stop
// adding diversity.
const diversityDecay = 3.3

// pinHomogeneity averages, over connected pins, the normalised squared
// deviation of each pin's per-wire-type counts from Fc/numWireTypes.
func (t *tally) pinHomogeneity() float64 {
	if t.connectedPins == 0 {
		return 0
	}
	nwt := float64(t.numWireTypes)
	fc := float64(t.fc)
	mean := fc / nwt
	norm := 2 * math.Pow(fc*(1-1/nwt), homogeneityExponent)

	perPin := make([]float64, 0, t.connectedPins)
	dev := make([]float64, t.numWireTypes)
	for pin, counts := range t.wireTypeConns {
		if !t.connected[pin] {
			continue
		}
		// with a single wire type every pin is trivially even
		if norm == 0 {
			perPin = append(perPin, 0)
			continue
		}
		for i, c := range counts {
			dev[i] = math.Pow(math.Abs(float64(c)-mean), homogeneityExponent)
		}
		perPin = append(perPin, floats.Sum(dev)/norm)
	}
	return floats.Sum(perPin) / float64(t.connectedPins)
}

// wireHomogeneity measures, per side group, how far the per-track
// connection counts are from an even spread over the used tracks.
func (t *tally) wireHomogeneity() float64 {
	width := float64(t.channelWidth)
	fc := float64(t.fc)
	total := 0.0

	for _, group := range t.sideGroups() {
		pinsOnSide := 0
		for _, side := range group {
			pinsOnSide += t.countedPerSide[side]
		}
		if pinsOnSide == 0 {
			continue
		}
		p := float64(pinsOnSide)
		conns := p * fc
		unconnected := math.Max(0, width-conns)
		mean := conns / (width - unconnected)

		dev := make([]float64, t.channelWidth)
		for track := range dev {
			used := 0
			for _, side := range group {
				if t.countedPerSide[side] > 0 {
					used += t.trackConns[side][track]
				}
			}
			dev[track] = math.Pow(math.Abs(float64(used)-mean), homogeneityExponent)
		}

		norm := (fc*math.Pow(p-mean, homogeneityExponent) + (width-fc)*math.Pow(mean, homogeneityExponent)) / p
		if norm == 0 {
			continue
		}
		total += (floats.Sum(dev) - unconnected*mean) / norm
	}
	return total / float64(t.numPinTypePins)
}

// sharedTracks counts the tracks two pins have in common.
func sharedTracks(a, b []int) int {
	shared := 0
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				shared++
			}
		}
	}
	return shared
}

// hammingDistance applies Lemieux's cost (1/(2(Fc-shared)))^2 to every pin
// pair of a side group, normalises by the number of pairs, then averages
// over the groups that have at least one pair. Groups with fewer than two
// checked pins are left out of the average rather than counted as zero, so a
// block whose pins use fewer sides is judged on those sides alone.
func (t *tally) hammingDistance() float64 {
	fc := float64(t.fc)
	var perSide []float64
	for _, group := range t.sideGroups() {
		pins := t.groupPins(group)
		n := len(pins)
		if n < 2 {
			continue
		}
		sum := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				d := 2 * (fc - float64(sharedTracks(pins[i], pins[j])))
				if d < 1 {
					d = 1
				}
				sum += math.Pow(1/d, homogeneityExponent)
			}
		}
		perSide = append(perSide, sum/(0.5*float64(n)*float64(n-1)))
	}
	if len(perSide) == 0 {
		return 0
	}
	return stat.Mean(perSide, nil)
}

// hammingProximity sums the squared overlap of every pin pair per side
// group, scaled by 2/((n-1)Fc^2), and divides the total by the number of
// pins of the direction.
func (t *tally) hammingProximity() float64 {
	fc := float64(t.fc)
	total := 0.0
	for _, group := range t.sideGroups() {
		pins := t.groupPins(group)
		n := len(pins)
		if n < 2 {
			continue
		}
		sum := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				sum += math.Pow(float64(sharedTracks(pins[i], pins[j])), homogeneityExponent)
			}
		}
		total += sum * 2 / (float64(n-1) * math.Pow(fc, homogeneityExponent))
	}
	return total / float64(t.numPinTypePins)
}

// pinDiversity credits each wire type a pin reaches with
// (1 - exp(-3.3*count/mean))/numWireTypes.
func (t *tally) pinDiversity() float64 {
	nwt := float64(t.numWireTypes)
	mean := float64(t.fc) / nwt
	total := 0.0
	for pin, counts := range t.wireTypeConns {
		if !t.connected[pin] {
			continue
		}
		for _, c := range counts {
			total += (1 / nwt) * (1 - math.Exp(-diversityDecay*float64(c)/mean))
		}
	}
	return total / float64(t.numPinTypePins)
}
