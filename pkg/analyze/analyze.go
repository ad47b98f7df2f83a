// Package analyze drives the per-compound search pipeline over one
// dataset's spectra: trace building and charge selection, MS1 peak
// detection, precursor-bucket selection, MS2 fragment aggregation and
// detection, and MS1/MS2 peak alignment.
package analyze

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/glycanlab/glycandia/pkg/align"
	"github.com/glycanlab/glycandia/pkg/core"
	"github.com/glycanlab/glycandia/pkg/detect"
	"github.com/glycanlab/glycandia/pkg/report"
	"github.com/glycanlab/glycandia/pkg/search"
)

// Dataset holds one run's retention-time-filtered spectra and the MS2
// precursor index. Compound analyses share it read-only; Release drops the
// spectra once every compound in the run has been analyzed.
type Dataset struct {
	Name           string
	MS1            []core.Spectrum
	MS2            []core.Spectrum
	PrecursorIndex map[float64][]int
}

// NewDataset indexes the MS2 spectra by their precursor-isolation m/z.
func NewDataset(name string, ms1, ms2 []core.Spectrum) *Dataset {
	index := make(map[float64][]int)
	for i := range ms2 {
		index[ms2[i].PrecursorMZ] = append(index[ms2[i].PrecursorMZ], i)
	}
	return &Dataset{Name: name, MS1: ms1, MS2: ms2, PrecursorIndex: index}
}

// Release frees the dataset's spectra and index to bound peak memory across
// a multi-file batch.
func (d *Dataset) Release() {
	d.MS1 = nil
	d.MS2 = nil
	d.PrecursorIndex = nil
}

// Options configures an Analyzer.
type Options struct {
	Adduct   core.Adduct
	Polarity core.Polarity
	Charges  []int // candidate charge states, in search order

	PPMMS1 float64
	PPMMS2 float64

	MinMatched int // minimum co-occurring fragments per MS2 spectrum

	MinHeight float64 // absolute MS1 peak floor
	Threshold float64 // relative MS1 peak floor

	MinMass float64 // df1 acceptance range
	MaxMass float64

	FlexMode bool

	// MaxAlignedRecords caps the intensities feeding the MS2 aggregate
	// score; 0 means unlimited.
	MaxAlignedRecords int
	// ScanMargin is the MS1/MS2 scan-number alignment window; 0 selects
	// align.DefaultScanMargin.
	ScanMargin int

	Logger *slog.Logger
}

// Analyzer runs the detection and alignment pipeline for compounds against
// one dataset at a time. It is stateless across compounds.
type Analyzer struct {
	opt      Options
	selector *search.Selector
	log      *slog.Logger
}

// New validates the chemistry configuration and assembles the pipeline.
func New(opt Options) (*Analyzer, error) {
	calc, err := core.NewMassCalculator(opt.Adduct, opt.Polarity)
	if err != nil {
		return nil, err
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opt.ScanMargin == 0 {
		opt.ScanMargin = align.DefaultScanMargin
	}

	mode := search.ModeStrict
	if opt.FlexMode {
		mode = search.ModeFlex
	}
	builder := search.NewBuilder(calc, opt.PPMMS1, mode, opt.Logger)

	return &Analyzer{
		opt:      opt,
		selector: search.NewSelector(builder, opt.MinMass, opt.MaxMass, opt.Logger),
		log:      opt.Logger,
	}, nil
}

// AnalyzeCompound runs the full pipeline for one compound and returns its
// isomer rows, one per detected and corroborated MS1 peak. Fatal conditions
// (no viable charge, empty precursor index, ambiguous MS2 fragment matches)
// abort only this compound's analysis.
func (a *Analyzer) AnalyzeCompound(ds *Dataset, cpd core.Compound) ([]report.Isomer, error) {
	cand, err := a.selector.Select(ds.MS1, cpd.Composition, cpd.AddonMass, a.opt.Charges)
	if err != nil {
		return nil, fmt.Errorf("compound %s: %w", cpd.Label(), err)
	}

	ms1Opt := detect.DefaultOptions()
	ms1Opt.MinHeight = a.opt.MinHeight
	ms1Opt.Threshold = a.opt.Threshold
	ms1Peaks := detect.FindPeaks(cand.DF1.RT, cand.DF1.Intensity, ms1Opt)
	a.log.Debug("ms1 peaks found",
		"compound", cpd.Label(), "charge", cand.Targets.Charge, "peaks", len(ms1Peaks.Indices))
	if len(ms1Peaks.Indices) == 0 {
		return nil, nil
	}

	ms1Scans := make([]int, len(ms1Peaks.Indices))
	for i, idx := range ms1Peaks.Indices {
		ms1Scans[i] = cand.DF1.ScanNumbers[idx]
	}

	precursorMZ, err := align.NearestPrecursor(ds.PrecursorIndex, cand.Targets.DF1)
	if err != nil {
		return nil, fmt.Errorf("compound %s: %w", cpd.Label(), err)
	}
	a.log.Debug("precursor bucket selected",
		"compound", cpd.Label(), "precursor_mz", precursorMZ,
		"spectra", len(ds.PrecursorIndex[precursorMZ]))

	aggregator := align.NewAggregator(cpd.Fragments, a.opt.PPMMS2, a.opt.MinMatched, a.log)
	traces, err := aggregator.Aggregate(ds.MS2, ds.PrecursorIndex[precursorMZ])
	if err != nil {
		return nil, fmt.Errorf("compound %s: %w", cpd.Label(), err)
	}

	// MS2 fragment peaks are validated against prominence only; the absolute
	// and relative intensity floors apply to the MS1 trace alone.
	fragments := make([]align.FragmentPeaks, len(traces))
	for i := range traces {
		res := detect.FindPeaks(traces[i].RT, traces[i].Intensity, detect.DefaultOptions())
		for _, idx := range res.Indices {
			fragments[i].ScanNumbers = append(fragments[i].ScanNumbers, traces[i].ScanNumbers[idx])
			fragments[i].Intensities = append(fragments[i].Intensities, res.Smoothed[idx])
		}
	}

	aligner := align.Aligner{Margin: a.opt.ScanMargin, MaxRecords: a.opt.MaxAlignedRecords}
	alignments := aligner.Align(ms1Scans, fragments)

	rows := make([]report.Isomer, len(ms1Peaks.Indices))
	for i, idx := range ms1Peaks.Indices {
		rows[i] = report.Isomer{
			Label:        fmt.Sprintf("%s(%d)", cpd.Label(), i),
			Note:         cpd.Note,
			RT:           cand.DF1.RT[idx],
			MZ:           cand.Targets.DF1,
			Charge:       cand.Targets.Charge,
			HeightMS1:    ms1Peaks.Smoothed[idx],
			HeightMS2:    alignments[i].AggregatedIntensity,
			MatchedCount: alignments[i].MatchedCount,
			MatchPercent: alignments[i].MatchPercent,
		}
		a.log.Debug("alignment computed",
			"compound", cpd.Label(), "peak", idx,
			"matched", alignments[i].MatchedCount,
			"intensity", alignments[i].AggregatedIntensity)
	}
	return rows, nil
}
