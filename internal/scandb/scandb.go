// Package scandb records scan sessions and their derived meshes in a local
// SQLite database, so past runs can be listed and their artifacts located.
package scandb

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the session registry database.
type DB struct {
	*sql.DB
}

// Open opens (and if needed initializes) the registry at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scan registry %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize scan registry schema: %w", err)
	}
	return &DB{db}, nil
}

// StartSession registers a new scan run.
func (db *DB) StartSession(sessionID string, steps, scansPerStep int, logPath, notes string) error {
	query := `
		INSERT INTO scan_sessions (session_id, steps, scans_per_step, log_path, notes)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := db.Exec(query, sessionID, steps, scansPerStep, logPath, notes); err != nil {
		return fmt.Errorf("start session %s: %w", sessionID, err)
	}
	return nil
}

// EndSession closes a session and records how many samples it retained.
func (db *DB) EndSession(sessionID string, sampleCount int) error {
	query := `
		UPDATE scan_sessions
		SET ended_unix = UNIXEPOCH('subsec'), sample_count = ?
		WHERE session_id = ?
	`
	res, err := db.Exec(query, sampleCount, sessionID)
	if err != nil {
		return fmt.Errorf("end session %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("end session %s: unknown session", sessionID)
	}
	return nil
}

// RecordMesh registers a mesh reconstructed from a session's sample log.
func (db *DB) RecordMesh(sessionID, chirality string, pointCount int, meshPath string) error {
	query := `
		INSERT INTO scan_meshes (session_id, chirality, point_count, mesh_path)
		VALUES (?, ?, ?, ?)
	`
	if _, err := db.Exec(query, sessionID, chirality, pointCount, meshPath); err != nil {
		return fmt.Errorf("record mesh for session %s: %w", sessionID, err)
	}
	return nil
}

// Session is one registered scan run.
type Session struct {
	SessionID    string   `json:"session_id"`
	StartedUnix  float64  `json:"started_unix"`
	EndedUnix    *float64 `json:"ended_unix,omitempty"`
	Steps        int      `json:"steps"`
	ScansPerStep int      `json:"scans_per_step"`
	SampleCount  int      `json:"sample_count"`
	LogPath      string   `json:"log_path"`
	Notes        string   `json:"notes"`
}

// Mesh is one reconstructed artifact.
type Mesh struct {
	MeshID      int64   `json:"mesh_id"`
	SessionID   string  `json:"session_id"`
	CreatedUnix float64 `json:"created_unix"`
	Chirality   string  `json:"chirality"`
	PointCount  int     `json:"point_count"`
	MeshPath    string  `json:"mesh_path"`
}

// ListSessions returns the most recent sessions, newest first.
func (db *DB) ListSessions(limit int) ([]Session, error) {
	query := `
		SELECT session_id, started_unix, ended_unix, steps, scans_per_step,
		       sample_count, log_path, notes
		FROM scan_sessions
		ORDER BY started_unix DESC
		LIMIT ?
	`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.SessionID, &s.StartedUnix, &s.EndedUnix, &s.Steps,
			&s.ScansPerStep, &s.SampleCount, &s.LogPath, &s.Notes); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionMeshes returns the meshes reconstructed from a session, oldest
// first.
func (db *DB) SessionMeshes(sessionID string) ([]Mesh, error) {
	query := `
		SELECT mesh_id, session_id, created_unix, chirality, point_count, mesh_path
		FROM scan_meshes
		WHERE session_id = ?
		ORDER BY mesh_id
	`
	rows, err := db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list meshes for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var meshes []Mesh
	for rows.Next() {
		var m Mesh
		if err := rows.Scan(&m.MeshID, &m.SessionID, &m.CreatedUnix, &m.Chirality,
			&m.PointCount, &m.MeshPath); err != nil {
			return nil, fmt.Errorf("scan mesh row: %w", err)
		}
		meshes = append(meshes, m)
	}
	return meshes, rows.Err()
}
