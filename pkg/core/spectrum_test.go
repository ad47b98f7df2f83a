package core

import (
	"math"
	"reflect"
	"testing"
)

func TestMatchPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 100.000, Intensity: 10},
			{MZ: 200.000, Intensity: 20},
			{MZ: 200.001, Intensity: 30},
			{MZ: 300.000, Intensity: 40},
		},
	}

	tests := []struct {
		name   string
		target float64
		tol    float64
		want   []int
	}{
		{"exact single match", 100.0, 0.002, []int{0}},
		{"no match", 150.0, 0.002, nil},
		{"two peaks inside window", 200.0005, 0.002, []int{1, 2}},
		{"window edge inclusive", 300.002, 0.002, []int{3}},
		{"below all peaks", 50.0, 0.002, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spec.MatchPeaks(tt.target, tt.tol)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchPeaks(%g, %g) = %v, want %v", tt.target, tt.tol, got, tt.want)
			}
		})
	}
}

func TestSortPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 300, Intensity: 1},
			{MZ: 100, Intensity: 2},
			{MZ: 200, Intensity: 3},
		},
	}
	if spec.ArePeaksSorted() {
		t.Fatal("ArePeaksSorted() = true before sorting")
	}
	spec.SortPeaks()
	if !spec.ArePeaksSorted() {
		t.Fatal("ArePeaksSorted() = false after sorting")
	}
	if spec.Peaks[0].MZ != 100 || spec.Peaks[2].MZ != 300 {
		t.Errorf("SortPeaks() order = %v", spec.Peaks)
	}
}

func TestTrace(t *testing.T) {
	var tr Trace
	if got := tr.MaxIntensity(); got != 0 {
		t.Errorf("MaxIntensity() of empty trace = %g, want 0", got)
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() of empty trace error = %v", err)
	}

	tr.Append(1.0, 10, 100)
	tr.Append(1.5, 20, 300)
	tr.Append(2.0, 30, 200)

	if tr.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tr.Len())
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if got := tr.MaxIntensity(); math.Abs(got-300) > 1e-12 {
		t.Errorf("MaxIntensity() = %g, want 300", got)
	}

	tr.ScanNumbers = tr.ScanNumbers[:2]
	if err := tr.Validate(); err == nil {
		t.Error("Validate() of misaligned trace = nil, want error")
	}
}
