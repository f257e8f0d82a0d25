// Package cbmetrics measures how a connection block wires logic block pins
// onto routing tracks, and tunes that wiring toward a target metric value.
//
// # Overview
//
// For one block type and pin direction, Compute scans the track map and
// derives five metrics, each roughly in [0,1]:
//   - pin homogeneity: how evenly each pin spreads over the wire types
//   - wire homogeneity: how evenly the tracks of a channel are used
//   - hamming distance: Lemieux's pairwise cost between pins on a side
//   - hamming proximity: normalised pairwise track overlap
//   - pin diversity: saturating count of the wire types each pin reaches
//
// AggregateFabric weights per-type results by the number of pins each type
// contributes to the placement grid.
//
// TuneHamming and TunePinMetric run a randomised local search that rewrites
// slots of the track map in place. A search that does not converge keeps
// every accepted move; the map is valid but not restored.
//
// # Usage
//
//	a, err := arch.Load("fabric.arch")
//	clb, _ := a.Lookup("clb")
//	fc := arch.MaxFc(a.FcArray(clb), clb, arch.Driver)
//	tracks, err := trackmap.Generate(clb, arch.Driver, fc, a.ChannelWidth, rng)
//
//	cb := cbmetrics.ConnBlock{
//		Type:         clb,
//		Tracks:       tracks,
//		Direction:    arch.Driver,
//		Fc:           a.FcArray(clb),
//		ChannelWidth: a.ChannelWidth,
//		Segments:     a.Segments,
//	}
//	h, err := cbmetrics.Compute(cb)
//
//	opts := cbmetrics.DefaultHammingOptions()
//	opts.Rand = rand.New(rand.NewPCG(1, 2))
//	res, err := cbmetrics.TuneHamming(ctx, cb, cbmetrics.HammingRequest{
//		Metric:       cbmetrics.HammingDistance,
//		Target:       0.1,
//		Tolerance:    0.01,
//		PinTolerance: 0.05,
//	}, opts)
//
// The search is single threaded and owns cb.Tracks for the duration of the
// call.
package cbmetrics
