package mzxml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/glycanlab/glycandia/pkg/core"
)

// encodePeaks32 packs (m/z, intensity) pairs the way mzXML stores them:
// interleaved 32-bit floats in network byte order, base64 encoded.
func encodePeaks32(peaks []core.Peak) string {
	var buf bytes.Buffer
	for _, p := range peaks {
		binary.Write(&buf, binary.BigEndian, float32(p.MZ))
		binary.Write(&buf, binary.BigEndian, float32(p.Intensity))
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func encodePeaks64Zlib(peaks []core.Peak) string {
	var raw bytes.Buffer
	for _, p := range peaks {
		binary.Write(&raw, binary.BigEndian, p.MZ)
		binary.Write(&raw, binary.BigEndian, p.Intensity)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(raw.Bytes())
	zw.Close()
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

const docTemplate = `<?xml version="1.0" encoding="ISO-8859-1"?>
<mzXML xmlns="http://sashimi.sourceforge.net/schema_revision/mzXML_3.2">
 <msRun scanCount="3">
  <scan num="1" msLevel="1" retentionTime="PT60S">
   <peaks precision="32" byteOrder="network">%s</peaks>
   <scan num="2" msLevel="2" retentionTime="PT61.5S">
    <precursorMz precursorIntensity="1000"> 550.25 </precursorMz>
    <peaks precision="32" byteOrder="network">%s</peaks>
   </scan>
  </scan>
  <scan num="3" msLevel="1" retentionTime="PT600S">
   <peaks precision="32" byteOrder="network">%s</peaks>
  </scan>
 </msRun>
</mzXML>
`

func testDoc() string {
	return fmt.Sprintf(docTemplate,
		encodePeaks32([]core.Peak{{MZ: 400.5, Intensity: 1000}, {MZ: 500.5, Intensity: 2000}}),
		encodePeaks32([]core.Peak{{MZ: 204.0869, Intensity: 300}}),
		encodePeaks32([]core.Peak{{MZ: 700.25, Intensity: 50}}),
	)
}

// 32-bit storage loses precision against the float64 model values.
var approx = cmpopts.EquateApprox(0, 1e-3)

func TestReadMS1(t *testing.T) {
	got, err := Read(strings.NewReader(testDoc()), Options{MSLevel: 1, MaxRT: math.Inf(1)})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := []core.Spectrum{
		{
			RetentionTime: 1.0,
			ScanNumber:    1,
			MSLevel:       1,
			Peaks:         []core.Peak{{MZ: 400.5, Intensity: 1000}, {MZ: 500.5, Intensity: 2000}},
		},
		{
			RetentionTime: 10.0,
			ScanNumber:    3,
			MSLevel:       1,
			Peaks:         []core.Peak{{MZ: 700.25, Intensity: 50}},
		},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMS2NestedScan(t *testing.T) {
	got, err := Read(strings.NewReader(testDoc()), Options{MSLevel: 2, MaxRT: math.Inf(1)})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Read() spectra = %d, want 1", len(got))
	}
	spec := got[0]
	if spec.ScanNumber != 2 {
		t.Errorf("ScanNumber = %d, want 2", spec.ScanNumber)
	}
	if math.Abs(spec.PrecursorMZ-550.25) > 1e-9 {
		t.Errorf("PrecursorMZ = %g, want 550.25", spec.PrecursorMZ)
	}
	if math.Abs(spec.RetentionTime-61.5/60) > 1e-9 {
		t.Errorf("RetentionTime = %g, want %g", spec.RetentionTime, 61.5/60)
	}
}

func TestReadRetentionTimeWindow(t *testing.T) {
	got, err := Read(strings.NewReader(testDoc()), Options{MSLevel: 1, MinRT: 5, MaxRT: 15})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 1 || got[0].ScanNumber != 3 {
		t.Errorf("Read() with RT window = %+v, want only scan 3", got)
	}
}

func TestParseRetentionTime(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"PT60S", 1.0, false},
		{"PT1432.2S", 23.87, false},
		{"PT2.5M", 2.5, false},
		{"90", 1.5, false},
		{"", 0, false},
		{"PTxS", 0, true},
	}
	for _, tt := range tests {
		got, err := parseRetentionTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRetentionTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && math.Abs(got-tt.want) > 0.01 {
			t.Errorf("parseRetentionTime(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestDecodePeaks(t *testing.T) {
	peaks := []core.Peak{{MZ: 123.456, Intensity: 789}, {MZ: 234.567, Intensity: 1011}}

	t.Run("64-bit zlib", func(t *testing.T) {
		got, err := decodePeaks(&xmlPeaks{
			Precision:       64,
			ByteOrder:       "network",
			CompressionType: "zlib",
			Value:           encodePeaks64Zlib(peaks),
		})
		if err != nil {
			t.Fatalf("decodePeaks() error = %v", err)
		}
		if diff := cmp.Diff(peaks, got); diff != "" {
			t.Errorf("decodePeaks() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty blob", func(t *testing.T) {
		got, err := decodePeaks(&xmlPeaks{Precision: 32, Value: "  "})
		if err != nil || len(got) != 0 {
			t.Errorf("decodePeaks(empty) = %v, %v", got, err)
		}
	})

	t.Run("unsupported byte order", func(t *testing.T) {
		_, err := decodePeaks(&xmlPeaks{
			Precision: 32,
			ByteOrder: "littleEndian",
			Value:     encodePeaks32(peaks),
		})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("decodePeaks() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("unsupported compression", func(t *testing.T) {
		_, err := decodePeaks(&xmlPeaks{
			Precision:       32,
			CompressionType: "gzip",
			Value:           encodePeaks32(peaks),
		})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("decodePeaks() error = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestReadFile(t *testing.T) {
	t.Run("rejects other extensions", func(t *testing.T) {
		_, err := ReadFile("run.raw", Options{MSLevel: 1})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ReadFile(run.raw) error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("reads a file on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.mzXML")
		if err := os.WriteFile(path, []byte(testDoc()), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := ReadFile(path, Options{MSLevel: 1, MaxRT: math.Inf(1)})
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("ReadFile() spectra = %d, want 2", len(got))
		}
	})
}
