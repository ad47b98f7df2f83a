package mslist

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glycanlab/glycandia/pkg/core"
)

const listCSV = `Cpd,Note,AddOnMass,Frag1,Frag2,Frag3
5_4_0_1,Sialylated,0,204.0869,366.1397,657.2349
5_4,Neutral,10.5,204.0869,N/A,
3_2_1,Fucosylated,0
`

func TestRead(t *testing.T) {
	compounds, err := Read(strings.NewReader(listCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(compounds) != 3 {
		t.Fatalf("Read() compounds = %d, want 3", len(compounds))
	}

	first := compounds[0]
	if first.Code != "5_4_0_1" || first.Note != "Sialylated" {
		t.Errorf("compound 0 identity = %q/%q", first.Code, first.Note)
	}
	if first.Composition != (core.Composition{5, 4, 0, 1, 0}) {
		t.Errorf("compound 0 composition = %v", first.Composition)
	}
	if first.Label() != "5_4_0_1-0" {
		t.Errorf("compound 0 label = %q, want 5_4_0_1-0", first.Label())
	}
	if len(first.Fragments) != 3 {
		t.Errorf("compound 0 fragments = %v, want 3 masses", first.Fragments)
	}

	second := compounds[1]
	if math.Abs(second.AddonMass-10.5) > 1e-12 {
		t.Errorf("compound 1 addon mass = %g, want 10.5", second.AddonMass)
	}
	// "N/A" and empty cells are dropped, not parsed.
	if len(second.Fragments) != 1 {
		t.Errorf("compound 1 fragments = %v, want 1 mass", second.Fragments)
	}

	if len(compounds[2].Fragments) != 0 {
		t.Errorf("compound 2 fragments = %v, want none", compounds[2].Fragments)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"too few columns", "h1,h2,h3\n5_4\n"},
		{"bad composition", "h1,h2,h3\nx_y,Note,0\n"},
		{"bad addon mass", "h1,h2,h3\n5_4,Note,abc\n"},
		{"bad fragment mass", "h1,h2,h3,h4\n5_4,Note,0,abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.csv)); err == nil {
				t.Error("Read() error = nil, want parse failure")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ms_list.csv")
	if err := os.WriteFile(path, []byte(listCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	compounds, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(compounds) != 3 {
		t.Errorf("ReadFile() compounds = %d, want 3", len(compounds))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("ReadFile(missing) error = nil, want error")
	}
}
