package detect

import (
	"math"
	"reflect"
	"testing"
)

// bumpTrace returns a flat trace of the given baseline with single-sample
// spikes at the requested indices.
func bumpTrace(n int, baseline float64, bumps map[int]float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = baseline
	}
	for idx, v := range bumps {
		x[idx] = v
	}
	return x
}

func rampRT(n int, step float64) []float64 {
	rt := make([]float64, n)
	for i := range rt {
		rt[i] = float64(i) * step
	}
	return rt
}

func TestGaussianSmooth(t *testing.T) {
	t.Run("constant input is invariant", func(t *testing.T) {
		x := bumpTrace(10, 5.0, nil)
		got := GaussianSmooth(x, 1.0)
		for i, v := range got {
			if math.Abs(v-5.0) > 1e-9 {
				t.Fatalf("GaussianSmooth()[%d] = %.12f, want 5.0", i, v)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := GaussianSmooth(nil, 1.0); len(got) != 0 {
			t.Errorf("GaussianSmooth(nil) = %v, want empty", got)
		}
	})

	t.Run("zero sigma copies input", func(t *testing.T) {
		x := []float64{1, 5, 2}
		got := GaussianSmooth(x, 0)
		if !reflect.DeepEqual(got, x) {
			t.Errorf("GaussianSmooth(sigma=0) = %v, want %v", got, x)
		}
	})

	t.Run("preserves total mass away from edges", func(t *testing.T) {
		x := bumpTrace(21, 0, map[int]float64{10: 100})
		got := GaussianSmooth(x, 1.0)
		sum := 0.0
		for _, v := range got {
			sum += v
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("smoothed mass = %.9f, want 100", sum)
		}
	})
}

func TestFindPeaksSingleBump(t *testing.T) {
	rt := rampRT(21, 0.5)
	intensity := bumpTrace(21, 10, map[int]float64{10: 100})

	res := FindPeaks(rt, intensity, DefaultOptions())
	if !reflect.DeepEqual(res.Indices, []int{10}) {
		t.Fatalf("FindPeaks() indices = %v, want [10]", res.Indices)
	}
	if len(res.Baselines) != 1 {
		t.Fatalf("FindPeaks() baselines = %v, want one entry", res.Baselines)
	}
	if res.Smoothed[10] <= res.Smoothed[9] || res.Smoothed[10] <= res.Smoothed[11] {
		t.Error("smoothed trace has no maximum at the bump")
	}
	// The flat shoulders set the prominence baseline.
	if math.Abs(res.Baselines[0]-10) > 0.5 {
		t.Errorf("FindPeaks() baseline = %.3f, want ~10", res.Baselines[0])
	}
}

func TestFindPeaksLowProminence(t *testing.T) {
	// A 120-on-100 bump never reaches twice its flanking valley level.
	rt := rampRT(21, 0.5)
	intensity := bumpTrace(21, 100, map[int]float64{10: 120})

	res := FindPeaks(rt, intensity, DefaultOptions())
	if len(res.Indices) != 0 {
		t.Errorf("FindPeaks() indices = %v, want none", res.Indices)
	}
}

func TestFindPeaksIntensityFloors(t *testing.T) {
	rt := rampRT(21, 0.5)
	intensity := bumpTrace(21, 1, map[int]float64{5: 100, 15: 200})

	t.Run("absolute floor drops everything", func(t *testing.T) {
		opt := DefaultOptions()
		opt.MinHeight = 1000
		res := FindPeaks(rt, intensity, opt)
		if len(res.Indices) != 0 {
			t.Errorf("FindPeaks() indices = %v, want none", res.Indices)
		}
	})

	t.Run("relative floor keeps only the tallest", func(t *testing.T) {
		opt := DefaultOptions()
		opt.Threshold = 0.9
		res := FindPeaks(rt, intensity, opt)
		if !reflect.DeepEqual(res.Indices, []int{15}) {
			t.Errorf("FindPeaks() indices = %v, want [15]", res.Indices)
		}
	})

	t.Run("no floors keep both", func(t *testing.T) {
		res := FindPeaks(rt, intensity, DefaultOptions())
		if !reflect.DeepEqual(res.Indices, []int{5, 15}) {
			t.Errorf("FindPeaks() indices = %v, want [5 15]", res.Indices)
		}
	})
}

func TestFindPeaksDeduplication(t *testing.T) {
	intensity := bumpTrace(21, 1, map[int]float64{5: 100, 15: 200})

	t.Run("close peaks keep the more intense", func(t *testing.T) {
		rt := rampRT(21, 0.01) // peaks 0.10 time units apart
		res := FindPeaks(rt, intensity, DefaultOptions())
		if !reflect.DeepEqual(res.Indices, []int{15}) {
			t.Errorf("FindPeaks() indices = %v, want [15]", res.Indices)
		}
		if len(res.Baselines) != len(res.Indices) {
			t.Errorf("baselines %v misaligned with indices %v", res.Baselines, res.Indices)
		}
	})

	t.Run("separated peaks both survive", func(t *testing.T) {
		rt := rampRT(21, 0.5)
		res := FindPeaks(rt, intensity, DefaultOptions())
		if !reflect.DeepEqual(res.Indices, []int{5, 15}) {
			t.Errorf("FindPeaks() indices = %v, want [5 15]", res.Indices)
		}
	})

	t.Run("tie drops the earlier peak", func(t *testing.T) {
		tied := bumpTrace(21, 1, map[int]float64{5: 100, 15: 100})
		rt := rampRT(21, 0.01)
		res := FindPeaks(rt, tied, DefaultOptions())
		if !reflect.DeepEqual(res.Indices, []int{15}) {
			t.Errorf("FindPeaks() indices = %v, want [15]", res.Indices)
		}
	})
}

func TestFindPeaksEmptyTrace(t *testing.T) {
	res := FindPeaks(nil, nil, DefaultOptions())
	if len(res.Indices) != 0 || len(res.Smoothed) != 0 {
		t.Errorf("FindPeaks(empty) = %+v, want empty result", res)
	}
}

func TestFindPeaksDeterministic(t *testing.T) {
	rt := rampRT(50, 0.3)
	intensity := make([]float64, 50)
	for i := range intensity {
		intensity[i] = 10 + 50*math.Sin(float64(i)/3)*math.Sin(float64(i)/3)
	}
	first := FindPeaks(rt, intensity, DefaultOptions())
	second := FindPeaks(rt, intensity, DefaultOptions())
	if !reflect.DeepEqual(first, second) {
		t.Error("FindPeaks() is not deterministic for identical input")
	}
}
