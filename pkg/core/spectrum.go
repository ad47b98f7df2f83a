package core

import "sort"

// Peak is a single m/z, intensity pair.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Spectrum represents a single acquired scan. Peaks are kept sorted by m/z
// so target masses can be located by binary search.
type Spectrum struct {
	RetentionTime float64 // minutes
	ScanNumber    int
	MSLevel       int
	PrecursorMZ   float64 // isolation m/z; 0 for MS1 spectra
	Peaks         []Peak
}

// MatchPeaks returns the indices of every peak whose m/z lies within tol of
// target, in ascending m/z order. Callers that expect a unique match decide
// how to treat multiple hits.
func (s *Spectrum) MatchPeaks(target, tol float64) []int {
	lo := sort.Search(len(s.Peaks), func(i int) bool {
		return s.Peaks[i].MZ >= target-tol
	})
	var matched []int
	for i := lo; i < len(s.Peaks) && s.Peaks[i].MZ <= target+tol; i++ {
		matched = append(matched, i)
	}
	return matched
}

// ArePeaksSorted reports whether peaks are sorted by m/z in ascending order.
func (s *Spectrum) ArePeaksSorted() bool {
	for i := 1; i < len(s.Peaks); i++ {
		if s.Peaks[i].MZ < s.Peaks[i-1].MZ {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order.
func (s *Spectrum) SortPeaks() {
	sort.Slice(s.Peaks, func(i, j int) bool {
		return s.Peaks[i].MZ < s.Peaks[j].MZ
	})
}
