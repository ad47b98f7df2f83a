package core

import "fmt"

// Trace is one target mass's signal across a spectrum run: three
// index-aligned sequences where index i refers to the same originating
// spectrum in all three.
type Trace struct {
	RT          []float64
	ScanNumbers []int
	Intensity   []float64
}

// Append records one spectrum's contribution.
func (t *Trace) Append(rt float64, scanNumber int, intensity float64) {
	t.RT = append(t.RT, rt)
	t.ScanNumbers = append(t.ScanNumbers, scanNumber)
	t.Intensity = append(t.Intensity, intensity)
}

// Len returns the number of recorded points.
func (t *Trace) Len() int {
	return len(t.RT)
}

// Validate checks the index-alignment invariant.
func (t *Trace) Validate() error {
	if len(t.ScanNumbers) != len(t.RT) || len(t.Intensity) != len(t.RT) {
		return fmt.Errorf("core: trace sequences misaligned: rt=%d scan=%d intensity=%d",
			len(t.RT), len(t.ScanNumbers), len(t.Intensity))
	}
	return nil
}

// MaxIntensity returns the greatest observed intensity, or 0 for an empty
// trace.
func (t *Trace) MaxIntensity() float64 {
	max := 0.0
	for _, v := range t.Intensity {
		if v > max {
			max = v
		}
	}
	return max
}
