package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glycanlab/glycandia/pkg/analyze"
	"github.com/glycanlab/glycandia/pkg/config"
	"github.com/glycanlab/glycandia/pkg/core"
	"github.com/glycanlab/glycandia/pkg/reader/mslist"
	"github.com/glycanlab/glycandia/pkg/reader/mzxml"
	"github.com/glycanlab/glycandia/pkg/report"
	"github.com/glycanlab/glycandia/pkg/writer/csvout"
	"github.com/glycanlab/glycandia/pkg/writer/sqlite"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the isomer search over every dataset under input_path",
	Long: `Run analyzes every mzXML dataset under input_path against the compound
list, writing per-dataset isomer/composition/subtype CSVs and the combined
roll-ups under output_path.

A compound whose analysis fails (no viable charge, empty precursor index)
is logged and skipped; the rest of the batch continues. A dataset file that
cannot be read is skipped the same way.`,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.DebugMode)

	compounds, err := mslist.ReadFile(filepath.Join(cfg.InputPath, cfg.MSListName))
	if err != nil {
		return err
	}
	files, err := discoverDatasets(cfg.InputPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no mzXML datasets found under %s", cfg.InputPath)
	}
	logger.Info("batch starting", "datasets", len(files), "compounds", len(compounds))

	analyzer, err := analyze.New(analyze.Options{
		Adduct:            cfg.Adduct,
		Polarity:          cfg.Polarity,
		Charges:           cfg.Charges(),
		PPMMS1:            cfg.PPMMS1,
		PPMMS2:            cfg.PPMMS2,
		MinMatched:        cfg.MinMatchedCounts,
		MinHeight:         cfg.MinHeight,
		Threshold:         cfg.MinRelHeight,
		MinMass:           cfg.MinMass,
		MaxMass:           cfg.MaxMass,
		FlexMode:          cfg.FlexMode,
		MaxAlignedRecords: cfg.MaxAlignedRecordMS2,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	var store *sqlite.Writer
	if dbPath != "" {
		if store, err = sqlite.NewWriter(dbPath); err != nil {
			return err
		}
	}

	acc := report.NewAccumulator(compounds)
	for _, fileName := range files {
		if err := runDataset(cfg, analyzer, acc, store, compounds, fileName, logger); err != nil {
			logger.Error("dataset failed", "file", fileName, "error", err)
		}
	}

	if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
		return err
	}
	if err := csvout.WriteCombinedComposition(
		filepath.Join(cfg.OutputPath, csvout.CombinedCompositionFile),
		acc.Datasets(), acc.CombinedComposition()); err != nil {
		return err
	}
	if err := csvout.WriteCombinedSubtype(
		filepath.Join(cfg.OutputPath, csvout.CombinedSubtypeFile),
		acc.Datasets(), acc.CombinedSubtype()); err != nil {
		return err
	}

	if store != nil {
		if err := store.Finalize(); err != nil {
			return err
		}
	}
	logger.Info("batch done", "output", cfg.OutputPath)
	return nil
}

// runDataset loads one run's spectra and analyzes every compound against
// them. Per-compound fatal conditions are logged and skipped so they cannot
// stop the rest of the batch.
func runDataset(cfg *config.Config, analyzer *analyze.Analyzer, acc *report.Accumulator,
	store *sqlite.Writer, compounds []core.Compound, fileName string, logger *slog.Logger) error {
	dataset := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	path := filepath.Join(cfg.InputPath, fileName)
	ms1, err := mzxml.ReadFile(path, mzxml.Options{
		MSLevel: 1, MinRT: cfg.MinTimeMin, MaxRT: cfg.MaxTimeMin,
	})
	if err != nil {
		return err
	}
	ms2, err := mzxml.ReadFile(path, mzxml.Options{
		MSLevel: 2, MinRT: cfg.MinTimeMin, MaxRT: cfg.MaxTimeMin,
	})
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "dataset", dataset, "ms1", len(ms1), "ms2", len(ms2))

	ds := analyze.NewDataset(dataset, ms1, ms2)
	defer ds.Release()

	datasetDir := filepath.Join(cfg.OutputPath, dataset)
	var allIsomers []report.Isomer
	for _, cpd := range compounds {
		rows, err := analyzer.AnalyzeCompound(ds, cpd)
		if err != nil {
			logger.Error("compound skipped", "dataset", dataset, "compound", cpd.Label(), "error", err)
			continue
		}
		acc.Add(dataset, cpd, rows)
		if len(rows) == 0 {
			continue
		}
		allIsomers = append(allIsomers, rows...)

		cpdDir := filepath.Join(datasetDir, cpd.Label())
		if err := os.MkdirAll(cpdDir, 0o755); err != nil {
			return err
		}
		if err := csvout.WriteIsomers(filepath.Join(cpdDir, csvout.IsomersFile), rows); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(datasetDir, 0o755); err != nil {
		return err
	}
	if err := csvout.WriteIsomers(filepath.Join(datasetDir, csvout.IsomersFile), allIsomers); err != nil {
		return err
	}
	composition := acc.Composition(dataset)
	subtype := acc.Subtype(dataset)
	if err := csvout.WriteComposition(filepath.Join(datasetDir, csvout.CompositionFile), composition); err != nil {
		return err
	}
	if err := csvout.WriteSubtype(filepath.Join(datasetDir, csvout.SubtypeFile), subtype); err != nil {
		return err
	}

	if store != nil {
		if err := store.WriteIsomers(dataset, allIsomers); err != nil {
			return err
		}
		if err := store.WriteComposition(dataset, composition); err != nil {
			return err
		}
		if err := store.WriteSubtype(dataset, subtype); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// discoverDatasets lists every mzXML file name under dir.
func discoverDatasets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".mzxml") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
