// Package mslist reads the compound list CSV that drives a batch: one row
// per compound with its composition code, subtype note, addon mass and MS2
// diagnostic fragment masses.
package mslist

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/glycanlab/glycandia/pkg/core"
)

// Read parses compound rows from r. The first row is a header. Fragment
// cells holding "N/A" or nothing are dropped.
func Read(r io.Reader) ([]core.Compound, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var compounds []core.Compound
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mslist: %w", err)
		}
		if line == 1 {
			continue
		}
		cpd, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("mslist: line %d: %w", line, err)
		}
		compounds = append(compounds, cpd)
	}
	return compounds, nil
}

// ReadFile reads the compound list from a CSV file.
func ReadFile(path string) ([]core.Compound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func parseRow(row []string) (core.Compound, error) {
	if len(row) < 3 {
		return core.Compound{}, fmt.Errorf("expected at least 3 columns, got %d", len(row))
	}

	cpd := core.Compound{
		Code:  strings.TrimSpace(row[0]),
		Note:  strings.TrimSpace(row[1]),
		Addon: strings.TrimSpace(row[2]),
	}

	var err error
	if cpd.Composition, err = core.ParseComposition(cpd.Code); err != nil {
		return core.Compound{}, err
	}
	if cpd.AddonMass, err = strconv.ParseFloat(cpd.Addon, 64); err != nil {
		return core.Compound{}, fmt.Errorf("addon mass %q: %w", cpd.Addon, err)
	}

	for _, cell := range row[3:] {
		cell = strings.TrimSpace(cell)
		if cell == "" || cell == "N/A" {
			continue
		}
		mass, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return core.Compound{}, fmt.Errorf("fragment mass %q: %w", cell, err)
		}
		cpd.Fragments = append(cpd.Fragments, mass)
	}
	return cpd, nil
}
