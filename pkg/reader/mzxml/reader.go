// Package mzxml reads spectra from mzXML files.
//
// Only the subset of the format the search needs is decoded: scan numbers,
// MS levels, retention times, precursor isolation m/z and the base64-encoded
// peak arrays (network byte order, 32- or 64-bit, optionally zlib
// compressed).
package mzxml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/glycanlab/glycandia/pkg/core"
)

// ErrUnsupportedFormat reports an input file the reader cannot handle.
var ErrUnsupportedFormat = errors.New("mzxml: unsupported input format")

// Options restrict which spectra are returned.
type Options struct {
	// MSLevel selects the scan level, 1 or 2.
	MSLevel int
	// MinRT and MaxRT bound the retention-time window in minutes.
	MinRT float64
	MaxRT float64
}

type xmlPeaks struct {
	Precision       int    `xml:"precision,attr"`
	ByteOrder       string `xml:"byteOrder,attr"`
	CompressionType string `xml:"compressionType,attr"`
	Value           string `xml:",chardata"`
}

type xmlPrecursor struct {
	Value string `xml:",chardata"`
}

// xmlScan nests: MS2 scans commonly sit inside their survey scan.
type xmlScan struct {
	Num           int            `xml:"num,attr"`
	MSLevel       int            `xml:"msLevel,attr"`
	RetentionTime string         `xml:"retentionTime,attr"`
	PrecursorMZ   []xmlPrecursor `xml:"precursorMz"`
	Peaks         xmlPeaks       `xml:"peaks"`
	Scans         []xmlScan      `xml:"scan"`
}

type xmlMsRun struct {
	Scans []xmlScan `xml:"scan"`
}

// ReadFile reads all spectra of one MS level from an mzXML file, filtered to
// the retention-time window.
func ReadFile(path string, opt Options) ([]core.Spectrum, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mzxml") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	spectra, err := Read(f, opt)
	if err != nil {
		return nil, fmt.Errorf("mzxml: %s: %w", path, err)
	}
	return spectra, nil
}

// Read decodes an mzXML document from r.
func Read(r io.Reader, opt Options) ([]core.Spectrum, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	// The msRun element is all we need; skip the surrounding mzXML wrapper
	// and index material.
	var run xmlMsRun
	for {
		t, err := d.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if se, ok := t.(xml.StartElement); ok && se.Name.Local == "msRun" {
			if err := d.DecodeElement(&run, &se); err != nil {
				return nil, err
			}
		}
	}

	var spectra []core.Spectrum
	if err := collectScans(run.Scans, opt, &spectra); err != nil {
		return nil, err
	}
	return spectra, nil
}

func collectScans(scans []xmlScan, opt Options, out *[]core.Spectrum) error {
	for i := range scans {
		scan := &scans[i]
		rt, err := parseRetentionTime(scan.RetentionTime)
		if err != nil {
			return fmt.Errorf("scan %d: %w", scan.Num, err)
		}
		if scan.MSLevel == opt.MSLevel && rt >= opt.MinRT && rt <= opt.MaxRT {
			peaks, err := decodePeaks(&scan.Peaks)
			if err != nil {
				return fmt.Errorf("scan %d: %w", scan.Num, err)
			}
			spec := core.Spectrum{
				RetentionTime: rt,
				ScanNumber:    scan.Num,
				MSLevel:       scan.MSLevel,
				Peaks:         peaks,
			}
			if len(scan.PrecursorMZ) > 0 {
				mz, err := strconv.ParseFloat(strings.TrimSpace(scan.PrecursorMZ[0].Value), 64)
				if err != nil {
					return fmt.Errorf("scan %d: precursor m/z: %w", scan.Num, err)
				}
				spec.PrecursorMZ = mz
			}
			if !spec.ArePeaksSorted() {
				spec.SortPeaks()
			}
			*out = append(*out, spec)
		}
		if err := collectScans(scan.Scans, opt, out); err != nil {
			return err
		}
	}
	return nil
}

// parseRetentionTime converts an xs:duration retention time ("PT1432.2S")
// to minutes. A bare number is taken as seconds.
func parseRetentionTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	minutes := false
	s = strings.TrimPrefix(s, "PT")
	switch {
	case strings.HasSuffix(s, "S"):
		s = strings.TrimSuffix(s, "S")
	case strings.HasSuffix(s, "M"):
		s = strings.TrimSuffix(s, "M")
		minutes = true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("retention time %q: %w", s, err)
	}
	if minutes {
		return v, nil
	}
	return v / 60, nil
}

// decodePeaks unpacks the base64 peak blob into (m/z, intensity) pairs.
func decodePeaks(p *xmlPeaks) ([]core.Peak, error) {
	raw := strings.TrimSpace(p.Value)
	if raw == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("peak data: %w", err)
	}

	switch strings.ToLower(p.CompressionType) {
	case "", "none":
	case "zlib":
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("peak data: %w", err)
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return nil, fmt.Errorf("peak data: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupportedFormat, p.CompressionType)
	}

	// mzXML peak blobs are network (big-endian) byte order.
	if p.ByteOrder != "" && p.ByteOrder != "network" {
		return nil, fmt.Errorf("%w: byte order %q", ErrUnsupportedFormat, p.ByteOrder)
	}

	var values []float64
	switch p.Precision {
	case 64:
		for i := 0; i+8 <= len(data); i += 8 {
			values = append(values, math.Float64frombits(binary.BigEndian.Uint64(data[i:])))
		}
	case 0, 32:
		for i := 0; i+4 <= len(data); i += 4 {
			values = append(values, float64(math.Float32frombits(binary.BigEndian.Uint32(data[i:]))))
		}
	default:
		return nil, fmt.Errorf("%w: precision %d", ErrUnsupportedFormat, p.Precision)
	}

	peaks := make([]core.Peak, 0, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		peaks = append(peaks, core.Peak{MZ: values[i], Intensity: values[i+1]})
	}
	return peaks, nil
}
