package incident

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages incident, analysis, and event persistence in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at the given path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS incidents (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			severity   TEXT NOT NULL,
			payload    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS analyses (
			id          TEXT PRIMARY KEY,
			incident_id TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			result      TEXT NOT NULL DEFAULT '',
			error       TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL,
			FOREIGN KEY (incident_id) REFERENCES incidents(id)
		);

		CREATE INDEX IF NOT EXISTS idx_analyses_incident_id
			ON analyses(incident_id);

		CREATE TABLE IF NOT EXISTS analysis_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id TEXT NOT NULL,
			type        TEXT NOT NULL,
			data        TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (analysis_id) REFERENCES analyses(id)
		);

		CREATE INDEX IF NOT EXISTS idx_events_analysis_id
			ON analysis_events(analysis_id);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Incidents ---

// CreateIncident inserts a new incident. The full record is stored as JSON;
// title and severity are duplicated into columns for listing.
func (s *Store) CreateIncident(inc *Incident) error {
	payload, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("encoding incident: %w", err)
	}
	// Re-running a scenario submits the same incident ID again; the latest
	// payload wins.
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO incidents (id, title, severity, payload) VALUES (?, ?, ?, ?)`,
		inc.ID, inc.Title, inc.Severity, string(payload),
	)
	return err
}

// GetIncident retrieves an incident by ID.
func (s *Store) GetIncident(id string) (*Incident, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM incidents WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return nil, err
	}
	inc := &Incident{}
	if err := json.Unmarshal([]byte(payload), inc); err != nil {
		return nil, fmt.Errorf("decoding incident: %w", err)
	}
	return inc, nil
}

// --- Analyses ---

// CreateAnalysis inserts a new analysis row.
func (s *Store) CreateAnalysis(a *Analysis) error {
	result, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO analyses (id, incident_id, status, result, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.IncidentID, a.Status, string(result), a.Error, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// GetAnalysis retrieves an analysis by ID.
func (s *Store) GetAnalysis(id string) (*Analysis, error) {
	var result string
	err := s.db.QueryRow(`SELECT result FROM analyses WHERE id = ?`, id).Scan(&result)
	if err != nil {
		return nil, err
	}
	a := &Analysis{}
	if err := json.Unmarshal([]byte(result), a); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns all analyses ordered by creation time (newest first).
func (s *Store) ListAnalyses() ([]*Analysis, error) {
	rows, err := s.db.Query(
		`SELECT result FROM analyses ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return nil, err
		}
		a := &Analysis{}
		if err := json.Unmarshal([]byte(result), a); err != nil {
			return nil, fmt.Errorf("decoding analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// UpdateAnalysis rewrites the stored analysis.
func (s *Store) UpdateAnalysis(a *Analysis) error {
	a.UpdatedAt = time.Now().UTC()
	result, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE analyses SET status = ?, result = ?, error = ?, updated_at = ? WHERE id = ?`,
		a.Status, string(result), a.Error, a.UpdatedAt, a.ID,
	)
	return err
}

// --- Events ---

// AddEvent inserts a new event and returns its ID.
func (s *Store) AddEvent(event *Event) error {
	result, err := s.db.Exec(
		`INSERT INTO analysis_events (analysis_id, type, data, created_at)
		 VALUES (?, ?, ?, ?)`,
		event.AnalysisID, event.Type, event.Data, event.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = id
	return nil
}

// GetEvents returns events for an analysis, optionally after a given event ID.
func (s *Store) GetEvents(analysisID string, afterID int64) ([]*Event, error) {
	rows, err := s.db.Query(
		`SELECT id, analysis_id, type, data, created_at
		 FROM analysis_events
		 WHERE analysis_id = ? AND id > ?
		 ORDER BY id ASC`,
		analysisID, afterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.AnalysisID, &e.Type, &e.Data, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
