// Package sqlite persists batch results to a SQLite database, giving the
// run a queryable artifact alongside the CSV forms.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/glycanlab/glycandia/pkg/report"
)

const runDateFormat = "2006-01-02"

// Writer handles writing isomer rows and roll-ups to a SQLite database.
type Writer struct {
	db              *sql.DB
	isomerStmt      *sql.Stmt
	compositionStmt *sql.Stmt
	subtypeStmt     *sql.Stmt
	datasets        int
	isomers         int
}

// NewWriter opens (or creates) the results database and prepares the schema.
func NewWriter(path string) (*Writer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{db: db}
	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS IsomerTable (
		IsomerId INTEGER PRIMARY KEY AUTOINCREMENT,
		Dataset TEXT,
		Label TEXT,
		Note TEXT,
		RetentionTime DOUBLE,
		PrecursorMZ DOUBLE,
		Charge INTEGER,
		HeightMS1 DOUBLE,
		HeightMS2 DOUBLE,
		MatchedCount INTEGER,
		MatchedPercent DOUBLE
	);

	CREATE TABLE IF NOT EXISTS CompositionTable (
		Dataset TEXT,
		Label TEXT,
		Note TEXT,
		HeightMS1 DOUBLE,
		RelHeightMS1 DOUBLE,
		HeightMS2 DOUBLE,
		RelHeightMS2 DOUBLE,
		MaxMatchedPercent DOUBLE,
		AvgMatchedPercent DOUBLE
	);

	CREATE TABLE IF NOT EXISTS SubtypeTable (
		Dataset TEXT,
		Note TEXT,
		HeightMS1 DOUBLE,
		RelHeightMS1 DOUBLE,
		HeightMS2 DOUBLE,
		RelHeightMS2 DOUBLE
	);

	CREATE TABLE IF NOT EXISTS RunTable (
		CreationDate TEXT,
		Datasets INTEGER,
		Isomers INTEGER
	);
	`
	if _, err := w.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (w *Writer) prepareStatements() error {
	var err error

	w.isomerStmt, err = w.db.Prepare(`
		INSERT INTO IsomerTable (
			Dataset, Label, Note, RetentionTime, PrecursorMZ, Charge,
			HeightMS1, HeightMS2, MatchedCount, MatchedPercent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare isomer statement: %w", err)
	}

	w.compositionStmt, err = w.db.Prepare(`
		INSERT INTO CompositionTable (
			Dataset, Label, Note, HeightMS1, RelHeightMS1,
			HeightMS2, RelHeightMS2, MaxMatchedPercent, AvgMatchedPercent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare composition statement: %w", err)
	}

	w.subtypeStmt, err = w.db.Prepare(`
		INSERT INTO SubtypeTable (
			Dataset, Note, HeightMS1, RelHeightMS1, HeightMS2, RelHeightMS2
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare subtype statement: %w", err)
	}
	return nil
}

// WriteIsomers writes one dataset's per-peak rows.
func (w *Writer) WriteIsomers(dataset string, rows []report.Isomer) error {
	for _, row := range rows {
		_, err := w.isomerStmt.Exec(
			dataset, row.Label, row.Note, row.RT, row.MZ, row.Charge,
			row.HeightMS1, row.HeightMS2, row.MatchedCount, row.MatchPercent,
		)
		if err != nil {
			return fmt.Errorf("failed to insert isomer: %w", err)
		}
		w.isomers++
	}
	return nil
}

// WriteComposition writes one dataset's compound roll-up.
func (w *Writer) WriteComposition(dataset string, rows []report.CompositionRow) error {
	for _, row := range rows {
		_, err := w.compositionStmt.Exec(
			dataset, row.Label, row.Note,
			row.HeightMS1, row.RelMS1, row.HeightMS2, row.RelMS2,
			row.MaxMatchPct, row.MeanMatchPct,
		)
		if err != nil {
			return fmt.Errorf("failed to insert composition: %w", err)
		}
	}
	w.datasets++
	return nil
}

// WriteSubtype writes one dataset's subtype roll-up.
func (w *Writer) WriteSubtype(dataset string, rows []report.SubtypeRow) error {
	for _, row := range rows {
		_, err := w.subtypeStmt.Exec(
			dataset, row.Note,
			row.HeightMS1, row.RelMS1, row.HeightMS2, row.RelMS2,
		)
		if err != nil {
			return fmt.Errorf("failed to insert subtype: %w", err)
		}
	}
	return nil
}

// Finalize records the run summary and closes the database.
func (w *Writer) Finalize() error {
	_, err := w.db.Exec(`
		INSERT INTO RunTable (CreationDate, Datasets, Isomers) VALUES (?, ?, ?)
	`, time.Now().Format(runDateFormat), w.datasets, w.isomers)
	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}

	if w.isomerStmt != nil {
		w.isomerStmt.Close()
	}
	if w.compositionStmt != nil {
		w.compositionStmt.Close()
	}
	if w.subtypeStmt != nil {
		w.subtypeStmt.Close()
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Close closes the database connection (alias for Finalize).
func (w *Writer) Close() error {
	return w.Finalize()
}
