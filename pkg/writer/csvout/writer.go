// Package csvout renders report records to the CSV forms the batch emits.
package csvout

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/glycanlab/glycandia/pkg/report"
)

// File names written per dataset and at the output root.
const (
	IsomersFile             = "Glycan_isomers.csv"
	CompositionFile         = "Glycan_composition.csv"
	SubtypeFile             = "Glycan_subtype.csv"
	CombinedCompositionFile = "Glycan_composition_combined.csv"
	CombinedSubtypeFile     = "Glycan_subtype_combined.csv"
)

// WriteIsomers writes per-peak isomer rows.
func WriteIsomers(path string, rows []report.Isomer) error {
	records := [][]string{{
		"Cpd-AddOnMass", "Note", "RT", "m/z", "charge",
		"Height(MS1)", "Height(MS2)", "Matched Counts", "Matched(%)",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.Label,
			row.Note,
			ftoa(row.RT),
			ftoa(row.MZ),
			strconv.Itoa(row.Charge),
			ftoa(row.HeightMS1),
			ftoa(row.HeightMS2),
			strconv.Itoa(row.MatchedCount),
			ftoa(row.MatchPercent) + "%",
		})
	}
	return writeAll(path, records)
}

// WriteComposition writes a dataset's per-compound roll-up.
func WriteComposition(path string, rows []report.CompositionRow) error {
	records := [][]string{{
		"Cpd-AddonMass", "Note", "Height (MS1)", "Relative Height (MS1 %)",
		"Height (MS2)", "Relative Height (MS2 %)", "Max Matched (%)", "Avg Matched (%)",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.Label, row.Note,
			ftoa(row.HeightMS1), ftoa(row.RelMS1),
			ftoa(row.HeightMS2), ftoa(row.RelMS2),
			ftoa(row.MaxMatchPct), ftoa(row.MeanMatchPct),
		})
	}
	return writeAll(path, records)
}

// WriteSubtype writes a dataset's per-note roll-up.
func WriteSubtype(path string, rows []report.SubtypeRow) error {
	records := [][]string{{
		"subtype", "Height (MS1)", "Relative Height (MS1 %)",
		"Height (MS2)", "Relative Height (MS2 %)",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.Note,
			ftoa(row.HeightMS1), ftoa(row.RelMS1),
			ftoa(row.HeightMS2), ftoa(row.RelMS2),
		})
	}
	return writeAll(path, records)
}

// WriteCombinedComposition writes the multi-dataset compound roll-up, four
// height columns per dataset.
func WriteCombinedComposition(path string, datasets []string, rows []report.CombinedRow) error {
	header := append([]string{"Cpd-AddonMass", "Note"}, datasetColumns(datasets)...)
	records := [][]string{header}
	for _, row := range rows {
		rec := []string{row.Label, row.Note}
		for _, cell := range row.Cells {
			rec = append(rec, ftoa(cell))
		}
		records = append(records, rec)
	}
	return writeAll(path, records)
}

// WriteCombinedSubtype writes the multi-dataset subtype roll-up.
func WriteCombinedSubtype(path string, datasets []string, rows []report.CombinedRow) error {
	header := append([]string{"Subtype"}, datasetColumns(datasets)...)
	records := [][]string{header}
	for _, row := range rows {
		rec := []string{row.Label}
		for _, cell := range row.Cells {
			rec = append(rec, ftoa(cell))
		}
		records = append(records, rec)
	}
	return writeAll(path, records)
}

func datasetColumns(datasets []string) []string {
	var cols []string
	for _, ds := range datasets {
		cols = append(cols,
			"Height (MS1)_Data File "+ds,
			"Relative Height (MS1 %)_Data File "+ds,
			"Height (MS2)_Data File "+ds,
			"Relative Height (MS2 %)_Data File "+ds,
		)
	}
	return cols
}

func writeAll(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvout: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("csvout: %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csvout: %s: %w", path, err)
	}
	return nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
