// Package search builds MS1 intensity traces for a compound's target masses
// and selects the best charge state.
package search

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/glycanlab/glycandia/pkg/core"
)

// ErrNoViableCharge reports that no candidate charge produced any signal:
// either every charge's df1 fell outside the configured mass range, or no
// in-range charge observed a single real intensity.
var ErrNoViableCharge = errors.New("search: no viable charge state")

// sentinelIntensity marks "target mass absent in this spectrum". The value 1
// (not 0) keeps the Gaussian-smoothing response continuous over absent
// regions.
const sentinelIntensity = 1.0

// Mode selects the MS1 trace-building strategy.
type Mode int

const (
	// ModeStrict records real intensities only when df1, df2 and df3 are all
	// present in the same spectrum.
	ModeStrict Mode = iota
	// ModeFlex tracks df1 alone; df2/df3 traces are not built.
	ModeFlex
)

// Candidate holds the traces built for one charge state.
type Candidate struct {
	Targets core.TargetSet
	DF1     core.Trace
	DF2     core.Trace // empty in flex mode
	DF3     core.Trace // empty in flex mode
}

// Builder scans MS1 spectra for the presence of a compound's target masses.
type Builder struct {
	calc *core.MassCalculator
	ppm  float64
	mode Mode
	log  *slog.Logger
}

// NewBuilder creates a Builder with the given MS1 ppm tolerance. A nil
// logger discards observability output.
func NewBuilder(calc *core.MassCalculator, ppm float64, mode Mode, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{calc: calc, ppm: ppm, mode: mode, log: log}
}

// Build computes the target masses for charge z and constructs the intensity
// traces across the MS1 spectra.
func (b *Builder) Build(spectra []core.Spectrum, comp core.Composition, addonMass float64, z int) Candidate {
	targets := b.calc.Targets(comp, addonMass, z)
	cand := Candidate{Targets: targets}
	switch b.mode {
	case ModeFlex:
		b.buildFlex(&cand, spectra)
	default:
		b.buildStrict(&cand, spectra)
	}
	b.log.Debug("ms1 trace built",
		"charge", z, "df1", targets.DF1, "points", cand.DF1.Len())
	return cand
}

// buildFlex records rt/scan for every spectrum and the df1 intensity when
// found, the sentinel otherwise.
func (b *Builder) buildFlex(cand *Candidate, spectra []core.Spectrum) {
	tol := core.Tolerance(cand.Targets.DF1, b.ppm)
	for i := range spectra {
		spec := &spectra[i]
		intensity := sentinelIntensity
		if idx := b.matchOne(spec, cand.Targets.DF1, tol, "df1"); idx >= 0 {
			intensity = spec.Peaks[idx].Intensity
		}
		cand.DF1.Append(spec.RetentionTime, spec.ScanNumber, intensity)
	}
}

// buildStrict records real intensities only for spectra where all three
// targets co-occur; otherwise all three traces get the sentinel.
func (b *Builder) buildStrict(cand *Candidate, spectra []core.Spectrum) {
	tol1 := core.Tolerance(cand.Targets.DF1, b.ppm)
	tol2 := core.Tolerance(cand.Targets.DF2, b.ppm)
	tol3 := core.Tolerance(cand.Targets.DF3, b.ppm)
	for i := range spectra {
		spec := &spectra[i]
		idx1 := b.matchOne(spec, cand.Targets.DF1, tol1, "df1")
		idx2 := b.matchOne(spec, cand.Targets.DF2, tol2, "df2")
		idx3 := b.matchOne(spec, cand.Targets.DF3, tol3, "df3")
		if idx1 >= 0 && idx2 >= 0 && idx3 >= 0 {
			cand.DF1.Append(spec.RetentionTime, spec.ScanNumber, spec.Peaks[idx1].Intensity)
			cand.DF2.Append(spec.RetentionTime, spec.ScanNumber, spec.Peaks[idx2].Intensity)
			cand.DF3.Append(spec.RetentionTime, spec.ScanNumber, spec.Peaks[idx3].Intensity)
		} else {
			cand.DF1.Append(spec.RetentionTime, spec.ScanNumber, sentinelIntensity)
			cand.DF2.Append(spec.RetentionTime, spec.ScanNumber, sentinelIntensity)
			cand.DF3.Append(spec.RetentionTime, spec.ScanNumber, sentinelIntensity)
		}
	}
}

// matchOne locates the target in one spectrum, returning -1 when absent.
// Multiple matches within tolerance are non-fatal: the first is used and a
// warning is emitted.
func (b *Builder) matchOne(spec *core.Spectrum, target, tol float64, name string) int {
	matched := spec.MatchPeaks(target, tol)
	if len(matched) == 0 {
		return -1
	}
	if len(matched) > 1 {
		b.log.Warn("multiple peaks match target mass, using first",
			"target", name, "mass", target, "scan", spec.ScanNumber, "matches", len(matched))
	}
	return matched[0]
}

// Selector picks the charge state whose df1 trace carries the strongest
// single observed intensity.
type Selector struct {
	builder *Builder
	// MinMass and MaxMass bound the acceptable df1; charges outside the
	// range are skipped entirely.
	MinMass float64
	MaxMass float64
	log     *slog.Logger
}

// NewSelector wraps a Builder with the df1 mass-range gate.
func NewSelector(builder *Builder, minMass, maxMass float64, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Selector{builder: builder, MinMass: minMass, MaxMass: maxMass, log: log}
}

// Select builds traces for every candidate charge and returns the winning
// candidate. It fails with ErrNoViableCharge when every charge is skipped or
// no trace observes any intensity.
func (s *Selector) Select(spectra []core.Spectrum, comp core.Composition, addonMass float64, charges []int) (Candidate, error) {
	var best *Candidate
	bestIntensity := 0.0

	for _, z := range charges {
		targets := s.builder.calc.Targets(comp, addonMass, z)
		if targets.DF1 < s.MinMass || targets.DF1 > s.MaxMass {
			s.log.Debug("charge skipped, df1 outside mass range",
				"charge", z, "df1", targets.DF1, "min", s.MinMass, "max", s.MaxMass)
			continue
		}
		cand := s.builder.Build(spectra, comp, addonMass, z)
		max := cand.DF1.MaxIntensity()
		s.log.Debug("charge candidate", "charge", z, "max_df1_intensity", max)
		if max > bestIntensity {
			bestIntensity = max
			best = &cand
		}
	}

	if best == nil {
		return Candidate{}, fmt.Errorf("%w for composition %v", ErrNoViableCharge, comp)
	}
	s.log.Debug("charge selected",
		"charge", best.Targets.Charge, "df1", best.Targets.DF1, "max_intensity", bestIntensity)
	return *best, nil
}
