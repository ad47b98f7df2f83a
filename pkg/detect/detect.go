// Package detect extracts validated chromatographic peaks from noisy
// retention-time/intensity traces.
//
// Detection runs in four stages: Gaussian smoothing, strict local-maximum
// search, prominence-baseline validation, and single-pass deduplication of
// peaks closer than the configured retention-time separation.
package detect

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Options configures peak detection.
type Options struct {
	// Sigma is the Gaussian kernel width in trace samples.
	Sigma float64
	// MinHeight is the absolute smoothed-intensity floor.
	MinHeight float64
	// Threshold is the relative floor as a fraction of the smoothed maximum.
	Threshold float64
	// DeltaRT is the minimum retention-time separation between peaks.
	DeltaRT float64
}

// DefaultOptions returns the detection defaults: sigma 1.0, no intensity
// floors, 0.2 time-unit separation.
func DefaultOptions() Options {
	return Options{Sigma: 1.0, DeltaRT: 0.2}
}

// minProminenceRatio is the required ratio of a peak's smoothed intensity to
// the higher of its two flanking valley levels.
const minProminenceRatio = 2.0

// Result holds the detected peaks of one trace.
type Result struct {
	// Indices are the final peak positions in the trace, ascending.
	Indices []int
	// Smoothed is the Gaussian-filtered intensity sequence.
	Smoothed []float64
	// Baselines holds the prominence baseline per peak, aligned with Indices.
	Baselines []float64
}

// FindPeaks smooths the intensity trace and returns every validated peak.
// rt and intensity must have equal length. An empty result is valid.
func FindPeaks(rt, intensity []float64, opt Options) Result {
	smoothed := GaussianSmooth(intensity, opt.Sigma)
	if len(smoothed) == 0 {
		return Result{Smoothed: smoothed}
	}

	minIntensity := math.Max(opt.MinHeight, opt.Threshold*floats.Max(smoothed))

	var indices []int
	var baselines []float64
	for _, idx := range localMaxima(smoothed) {
		baseline := prominenceBaseline(smoothed, idx)
		if smoothed[idx]/baseline >= minProminenceRatio && smoothed[idx] >= minIntensity {
			indices = append(indices, idx)
			baselines = append(baselines, baseline)
		}
	}

	kept := dedupeClosePeaks(indices, rt, smoothed, opt.DeltaRT)
	final := Result{Smoothed: smoothed}
	for i, idx := range indices {
		if kept[idx] {
			final.Indices = append(final.Indices, idx)
			final.Baselines = append(final.Baselines, baselines[i])
		}
	}
	return final
}

// GaussianSmooth filters the sequence with a normalized Gaussian kernel of
// the given width, reflecting the sequence at both edges. The kernel radius
// is int(4*sigma + 0.5), so results reproduce the indices produced by a
// truncate-at-4-sigma filter.
func GaussianSmooth(x []float64, sigma float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	if sigma <= 0 {
		copy(out, x)
		return out
	}

	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		kernel[i+radius] = math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	for i := range x {
		acc := 0.0
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * x[reflectIndex(i+k, len(x))]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0,n) by reflecting at
// the array edges without repeating the edge sample's mirror twin:
// -1 maps to 0, -2 to 1, n to n-1.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// localMaxima returns the indices of samples strictly greater than both
// immediate neighbors. Boundary samples never qualify.
func localMaxima(x []float64) []int {
	var idx []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] > x[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// prominenceBaseline walks outward from the peak in both directions,
// tracking the lowest value seen until a sample higher than the peak itself
// (or the trace boundary) is reached, and returns the higher of the two
// per-side minima.
func prominenceBaseline(x []float64, peak int) float64 {
	left := x[peak]
	for i := peak - 1; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < left {
			left = x[i]
		}
	}
	right := x[peak]
	for i := peak + 1; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < right {
			right = x[i]
		}
	}
	return math.Max(left, right)
}

// dedupeClosePeaks makes a single pass over adjacent pairs of the retained
// peaks: when two peaks sit closer than deltaRT, the less intense one is
// dropped (the earlier one on ties). The pass is not iterated to a fixed
// point, so a run of three or more mutually-close peaks can retain more than
// one survivor.
func dedupeClosePeaks(indices []int, rt, smoothed []float64, deltaRT float64) map[int]bool {
	kept := make(map[int]bool, len(indices))
	for _, idx := range indices {
		kept[idx] = true
	}
	for i := 0; i+1 < len(indices); i++ {
		a, b := indices[i], indices[i+1]
		if math.Abs(rt[b]-rt[a]) >= deltaRT {
			continue
		}
		if smoothed[b] >= smoothed[a] {
			kept[a] = false
		} else {
			kept[b] = false
		}
	}
	return kept
}
