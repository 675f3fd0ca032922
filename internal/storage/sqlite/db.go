package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fidelfix/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		text        TEXT NOT NULL,
		source_path TEXT DEFAULT '',
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS analysis_history (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id   TEXT NOT NULL,
		quality_score REAL NOT NULL,
		finding_count INTEGER DEFAULT 0,
		script_ratio  REAL DEFAULT 0,
		failed        INTEGER DEFAULT 0,
		error         TEXT DEFAULT '',
		analyzed_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ah_document ON analysis_history(document_id);
	CREATE INDEX IF NOT EXISTS idx_ah_date ON analysis_history(analyzed_at);

	CREATE TABLE IF NOT EXISTS applied_corrections (
		document_id TEXT NOT NULL,
		span_start  INTEGER NOT NULL,
		span_end    INTEGER NOT NULL,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (document_id, span_start, span_end)
	);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// UpsertDocument inserts a document or refreshes its text in place.
func UpsertDocument(db *sql.DB, doc domain.Document, sourcePath string) error {
	_, err := db.Exec(
		`INSERT INTO documents (id, text, source_path) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET text = excluded.text, source_path = excluded.source_path`,
		doc.ID, doc.Text, sourcePath,
	)
	return err
}

func DocumentExists(db *sql.DB, id string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM documents WHERE id = ?`, id).Scan(&count)
	return count > 0, err
}

// ListDocuments returns all stored documents ordered by import time, then
// id, so batch runs see a stable order.
func ListDocuments(db *sql.DB) ([]domain.Document, error) {
	rows, err := db.Query(`SELECT id, text FROM documents ORDER BY imported_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Text); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func InsertAnalysis(db *sql.DB, a domain.DocumentAnalysis) error {
	failed := 0
	if a.Failed {
		failed = 1
	}
	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}
	_, err := db.Exec(
		`INSERT INTO analysis_history (document_id, quality_score, finding_count, script_ratio, failed, error, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.DocumentID, a.QualityScore, a.Signals.FindingCount, a.Signals.ScriptRatio, failed, a.Error, analyzedAt,
	)
	return err
}

// LatestQualityScore returns the most recent recorded score for a document.
func LatestQualityScore(db *sql.DB, documentID string) (float64, bool, error) {
	var score float64
	err := db.QueryRow(
		`SELECT quality_score FROM analysis_history WHERE document_id = ? ORDER BY analyzed_at DESC, id DESC LIMIT 1`,
		documentID,
	).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// Ledger is the persistent applied-corrections ledger backing
// apply.Ledger.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Contains(key domain.SuggestionKey) (bool, error) {
	var count int
	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM applied_corrections WHERE document_id = ? AND span_start = ? AND span_end = ?`,
		key.DocumentID, key.Start, key.End,
	).Scan(&count)
	return count > 0, err
}

func (l *Ledger) MarkApplied(key domain.SuggestionKey) error {
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO applied_corrections (document_id, span_start, span_end) VALUES (?, ?, ?)`,
		key.DocumentID, key.Start, key.End,
	)
	return err
}

func (l *Ledger) Clear(key domain.SuggestionKey) error {
	_, err := l.db.Exec(
		`DELETE FROM applied_corrections WHERE document_id = ? AND span_start = ? AND span_end = ?`,
		key.DocumentID, key.Start, key.End,
	)
	return err
}
