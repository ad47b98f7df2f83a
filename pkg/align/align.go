package align

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// FragmentPeaks holds the detected peaks of one fragment's MS2 trace.
type FragmentPeaks struct {
	ScanNumbers []int
	Intensities []float64 // smoothed intensity at each peak, index-aligned
}

// Alignment is the MS2 corroboration score of one MS1 peak.
type Alignment struct {
	// MatchedCount is the total number of aligned (fragment, peak) pairs,
	// uncapped. A single fragment can contribute several pairs.
	MatchedCount int
	// AggregatedIntensity sums the top MaxRecords aligned intensities.
	AggregatedIntensity float64
	// MatchPercent is MatchedCount relative to the number of target
	// fragments, in percent. It can exceed 100.
	MatchPercent float64
}

// Aligner correlates MS1 peaks with detected MS2 fragment peaks by
// scan-number proximity.
type Aligner struct {
	// Margin is the scan-number alignment window.
	Margin int
	// MaxRecords caps how many aligned intensities feed the aggregate score;
	// 0 or negative means unlimited. Matches beyond the cap still count
	// toward MatchedCount.
	MaxRecords int
}

// DefaultScanMargin is the scan-number alignment window used when the
// configuration does not override it.
const DefaultScanMargin = 100

// Align scores every MS1 peak against all fragments' MS2 peaks. The result
// is index-aligned with ms1ScanNumbers. Fragments with empty peak lists
// contribute nothing, so a run with no MS2 peaks yields all-zero alignments.
func (a *Aligner) Align(ms1ScanNumbers []int, fragments []FragmentPeaks) []Alignment {
	out := make([]Alignment, len(ms1ScanNumbers))

	for i, ms1Scan := range ms1ScanNumbers {
		var intensities []float64
		for _, frag := range fragments {
			for j, ms2Scan := range frag.ScanNumbers {
				if absInt(ms1Scan-ms2Scan) <= a.Margin {
					intensities = append(intensities, frag.Intensities[j])
				}
			}
		}

		count := len(intensities)
		keep := count
		if a.MaxRecords > 0 && keep > a.MaxRecords {
			keep = a.MaxRecords
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(intensities)))

		out[i] = Alignment{
			MatchedCount:        count,
			AggregatedIntensity: floats.Sum(intensities[:keep]),
		}
		if len(fragments) > 0 {
			out[i].MatchPercent = float64(count) / float64(len(fragments)) * 100
		}
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
