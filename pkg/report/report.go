// Package report defines the structured result records the analysis emits
// and the accumulator that rolls them up per dataset and across datasets.
//
// The accumulator replaces hidden cross-call state: the batch driver owns
// one Accumulator, feeds it every compound's isomer rows, and asks it for
// the dataset and combined roll-ups once a dataset (or the whole batch) is
// done.
package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/glycanlab/glycandia/pkg/core"
)

// Isomer is one reported MS1 peak with its MS2 corroboration score.
type Isomer struct {
	Label        string // compound label plus peak ordinal, e.g. "5_4_0_1-0(1)"
	Note         string
	RT           float64
	MZ           float64 // selected df1
	Charge       int
	HeightMS1    float64 // smoothed df1 intensity at the peak
	HeightMS2    float64 // capped aggregate of aligned MS2 intensities
	MatchedCount int
	MatchPercent float64
}

// CompositionRow is one compound's roll-up within a dataset.
type CompositionRow struct {
	Label        string
	Note         string
	HeightMS1    float64
	RelMS1       float64 // percent of the dataset's total MS1 height
	HeightMS2    float64
	RelMS2       float64
	MaxMatchPct  float64
	MeanMatchPct float64
}

// SubtypeRow is one note's (subtype's) roll-up within a dataset.
type SubtypeRow struct {
	Note      string
	HeightMS1 float64
	RelMS1    float64
	HeightMS2 float64
	RelMS2    float64
}

// CombinedRow carries one compound's (or note's) four height columns per
// dataset, in dataset order.
type CombinedRow struct {
	Label string
	Note  string
	Cells []float64 // HeightMS1, RelMS1, HeightMS2, RelMS2 per dataset
}

type datasetTotals struct {
	cpdMS1    map[string]float64
	cpdMS2    map[string]float64
	matchPcts map[string][]float64
	noteMS1   map[string]float64
	noteMS2   map[string]float64
}

func newDatasetTotals() *datasetTotals {
	return &datasetTotals{
		cpdMS1:    make(map[string]float64),
		cpdMS2:    make(map[string]float64),
		matchPcts: make(map[string][]float64),
		noteMS1:   make(map[string]float64),
		noteMS2:   make(map[string]float64),
	}
}

// Accumulator aggregates isomer rows into per-dataset composition/subtype
// roll-ups and the multi-dataset combined roll-ups. Row order follows the
// compound list; note order follows first appearance in it.
type Accumulator struct {
	labels    []string
	labelNote map[string]string
	notes     []string
	datasets  []string
	totals    map[string]*datasetTotals
}

// NewAccumulator registers the compound list, fixing the roll-up row order.
func NewAccumulator(compounds []core.Compound) *Accumulator {
	a := &Accumulator{
		labelNote: make(map[string]string),
		totals:    make(map[string]*datasetTotals),
	}
	seenNote := make(map[string]bool)
	for _, cpd := range compounds {
		a.labels = append(a.labels, cpd.Label())
		a.labelNote[cpd.Label()] = cpd.Note
		if !seenNote[cpd.Note] {
			seenNote[cpd.Note] = true
			a.notes = append(a.notes, cpd.Note)
		}
	}
	return a
}

// Add records one compound's isomer rows for a dataset.
func (a *Accumulator) Add(dataset string, cpd core.Compound, rows []Isomer) {
	t, ok := a.totals[dataset]
	if !ok {
		t = newDatasetTotals()
		a.totals[dataset] = t
		a.datasets = append(a.datasets, dataset)
	}
	label := cpd.Label()
	for _, row := range rows {
		t.cpdMS1[label] += row.HeightMS1
		t.cpdMS2[label] += row.HeightMS2
		t.matchPcts[label] = append(t.matchPcts[label], row.MatchPercent)
		t.noteMS1[cpd.Note] += row.HeightMS1
		t.noteMS2[cpd.Note] += row.HeightMS2
	}
}

// Datasets returns the dataset names in the order first seen.
func (a *Accumulator) Datasets() []string {
	return a.datasets
}

// Composition returns the per-compound roll-up for one dataset.
func (a *Accumulator) Composition(dataset string) []CompositionRow {
	t := a.totals[dataset]
	if t == nil {
		t = newDatasetTotals()
	}
	totMS1, totMS2 := a.datasetTotals(t)

	rows := make([]CompositionRow, 0, len(a.labels))
	for _, label := range a.labels {
		row := CompositionRow{
			Label:     label,
			Note:      a.labelNote[label],
			HeightMS1: t.cpdMS1[label],
			RelMS1:    percentOf(t.cpdMS1[label], totMS1),
			HeightMS2: t.cpdMS2[label],
			RelMS2:    percentOf(t.cpdMS2[label], totMS2),
		}
		if pcts := t.matchPcts[label]; len(pcts) > 0 {
			row.MaxMatchPct = floats.Max(pcts)
			row.MeanMatchPct = stat.Mean(pcts, nil)
		}
		rows = append(rows, row)
	}
	return rows
}

// Subtype returns the per-note roll-up for one dataset. Only notes with
// recorded signal appear, in compound-list order.
func (a *Accumulator) Subtype(dataset string) []SubtypeRow {
	t := a.totals[dataset]
	if t == nil {
		t = newDatasetTotals()
	}
	totMS1, totMS2 := a.datasetTotals(t)

	var rows []SubtypeRow
	for _, note := range a.notes {
		if _, ok := t.noteMS1[note]; !ok {
			continue
		}
		rows = append(rows, SubtypeRow{
			Note:      note,
			HeightMS1: t.noteMS1[note],
			RelMS1:    percentOf(t.noteMS1[note], totMS1),
			HeightMS2: t.noteMS2[note],
			RelMS2:    percentOf(t.noteMS2[note], totMS2),
		})
	}
	return rows
}

// CombinedComposition returns every compound's four height columns for each
// dataset, in dataset order.
func (a *Accumulator) CombinedComposition() []CombinedRow {
	rows := make([]CombinedRow, 0, len(a.labels))
	for _, label := range a.labels {
		row := CombinedRow{Label: label, Note: a.labelNote[label]}
		for _, dataset := range a.datasets {
			t := a.totals[dataset]
			totMS1, totMS2 := a.datasetTotals(t)
			row.Cells = append(row.Cells,
				t.cpdMS1[label], percentOf(t.cpdMS1[label], totMS1),
				t.cpdMS2[label], percentOf(t.cpdMS2[label], totMS2))
		}
		rows = append(rows, row)
	}
	return rows
}

// CombinedSubtype returns every note's four height columns for each dataset.
func (a *Accumulator) CombinedSubtype() []CombinedRow {
	rows := make([]CombinedRow, 0, len(a.notes))
	for _, note := range a.notes {
		row := CombinedRow{Label: note}
		for _, dataset := range a.datasets {
			t := a.totals[dataset]
			totMS1, totMS2 := a.datasetTotals(t)
			row.Cells = append(row.Cells,
				t.noteMS1[note], percentOf(t.noteMS1[note], totMS1),
				t.noteMS2[note], percentOf(t.noteMS2[note], totMS2))
		}
		rows = append(rows, row)
	}
	return rows
}

// datasetTotals sums the dataset-wide MS1 and MS2 heights over all
// registered compounds.
func (a *Accumulator) datasetTotals(t *datasetTotals) (float64, float64) {
	totMS1, totMS2 := 0.0, 0.0
	for _, label := range a.labels {
		totMS1 += t.cpdMS1[label]
		totMS2 += t.cpdMS2[label]
	}
	return totMS1, totMS2
}

// percentOf guards the zero-total case so empty datasets roll up to 0
// instead of NaN.
func percentOf(v, total float64) float64 {
	if total == 0 {
		return 0
	}
	return v / total * 100
}
