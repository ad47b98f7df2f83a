package align

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/glycanlab/glycandia/pkg/core"
)

// ErrAmbiguousFragment reports more than one peak matching a single fragment
// mass within one MS2 spectrum, which violates the aggregation contract.
var ErrAmbiguousFragment = errors.New("align: multiple peaks match one fragment in one spectrum")

// Aggregator builds per-fragment intensity/RT/scan-number traces from the
// MS2 spectra sharing a selected precursor bucket.
type Aggregator struct {
	// Fragments are the target fragment masses, in reporting order.
	Fragments []float64
	// Tolerances are the per-fragment matching windows, index-aligned with
	// Fragments.
	Tolerances []float64
	// MinMatched is the minimum number of distinct fragments that must be
	// found in a spectrum for it to contribute at all.
	MinMatched int

	Log *slog.Logger
}

// NewAggregator computes per-fragment ppm tolerances for the target list.
func NewAggregator(fragments []float64, ppm float64, minMatched int, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tolerances := make([]float64, len(fragments))
	for i, mass := range fragments {
		tolerances[i] = core.Tolerance(mass, ppm)
	}
	return &Aggregator{
		Fragments:  fragments,
		Tolerances: tolerances,
		MinMatched: minMatched,
		Log:        log,
	}
}

// Aggregate visits the bucket's spectra in order and returns one trace per
// target fragment, index-aligned with Fragments. A spectrum below the
// co-occurrence bar contributes to no trace; in a qualifying spectrum only
// the fragments actually found contribute an entry.
func (a *Aggregator) Aggregate(spectra []core.Spectrum, bucket []int) ([]core.Trace, error) {
	traces := make([]core.Trace, len(a.Fragments))

	for _, specIdx := range bucket {
		spec := &spectra[specIdx]

		peakIdx := make([]int, len(a.Fragments))
		found := 0
		for i, mass := range a.Fragments {
			matched := spec.MatchPeaks(mass, a.Tolerances[i])
			switch len(matched) {
			case 0:
				peakIdx[i] = -1
			case 1:
				peakIdx[i] = matched[0]
				found++
			default:
				return nil, fmt.Errorf("%w: fragment %.4f matched %d peaks in scan %d",
					ErrAmbiguousFragment, mass, len(matched), spec.ScanNumber)
			}
		}

		if found < a.MinMatched {
			continue
		}
		for i, idx := range peakIdx {
			if idx >= 0 {
				traces[i].Append(spec.RetentionTime, spec.ScanNumber, spec.Peaks[idx].Intensity)
			}
		}
	}

	for i := range traces {
		a.Log.Debug("fragment trace built", "fragment", a.Fragments[i], "points", traces[i].Len())
	}
	return traces, nil
}
