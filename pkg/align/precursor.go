// Package align maps MS1 target masses to MS2 precursor buckets, aggregates
// diagnostic-fragment traces, and scores MS1 peaks against aligned MS2
// fragment peaks.
package align

import (
	"errors"
	"sort"
)

// ErrEmptyPrecursorIndex reports an MS2 precursor index with no entries.
var ErrEmptyPrecursorIndex = errors.New("align: empty precursor index")

// NearestPrecursor returns the precursor-isolation m/z closest to the target
// MS1 mass. Ties break toward the numerically smallest m/z: candidates are
// visited in ascending order and a later candidate must be strictly closer
// to win.
func NearestPrecursor(index map[float64][]int, target float64) (float64, error) {
	if len(index) == 0 {
		return 0, ErrEmptyPrecursorIndex
	}

	keys := make([]float64, 0, len(index))
	for mz := range index {
		keys = append(keys, mz)
	}
	sort.Float64s(keys)

	nearest := keys[0]
	for _, mz := range keys[1:] {
		if abs(mz-target) < abs(nearest-target) {
			nearest = mz
		}
	}
	return nearest, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
