package journal

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/mirror-console/internal/gate"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS gate_transitions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id             TEXT NOT NULL,
	frame              INTEGER NOT NULL,
	from_status        TEXT NOT NULL,
	to_status          TEXT NOT NULL,
	consecutive_go     INTEGER NOT NULL,
	consecutive_no_go  INTEGER NOT NULL,
	cause              TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS contradiction_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	event_id      TEXT NOT NULL,
	action        TEXT NOT NULL,
	frame         INTEGER NOT NULL,
	payload_json  TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region journal-struct
// Journal is an append-only SQLite log of gate and contradiction activity.
// It is never read back into the simulation.
type Journal struct {
	db     *sql.DB
	runID  string
	now    func() time.Time
	logger *log.Logger
}

// #endregion journal-struct

// #region constructor
// Open opens (or creates) the journal at path and starts a new run.
// ":memory:" keeps the journal in process.
func Open(path string, logger *log.Logger) (*Journal, error) {
	if logger == nil {
		logger = log.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	j := &Journal{db: db, runID: uuid.New().String(), now: time.Now, logger: logger}
	if _, err := db.Exec(`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		j.runID, j.now().UTC().Format(time.RFC3339Nano)); err != nil {
		db.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}
	logger.Printf("[JOURNAL] opened %s run=%s", path, j.runID)
	return j, nil
}

// OpenExisting opens a journal file for reading without starting a run.
// Its RunID is empty and the record methods fail.
func OpenExisting(path string) (*Journal, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db, now: time.Now, logger: log.Default()}, nil
}

// #endregion constructor

// #region accessors
// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RunID identifies this process's entries.
func (j *Journal) RunID() string {
	return j.runID
}

// #endregion accessors

// #region record
// RecordTransition appends a gate transition.
func (j *Journal) RecordTransition(t Transition) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = j.now().UTC()
	}
	_, err := j.db.Exec(
		`INSERT INTO gate_transitions (run_id, frame, from_status, to_status, consecutive_go, consecutive_no_go, cause, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, t.Frame, string(t.From), string(t.To), t.ConsecutiveGo, t.ConsecutiveNoGo, string(t.Cause),
		t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// RecordContradiction appends a contradiction raise or clear.
func (j *Journal) RecordContradiction(e ContradictionEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now().UTC()
	}
	_, err := j.db.Exec(
		`INSERT INTO contradiction_log (run_id, event_id, action, frame, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		j.runID, e.EventID, string(e.Action), e.Frame, nullIfEmpty(e.PayloadJSON),
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record contradiction: %w", err)
	}
	return nil
}

// #endregion record

// #region list
// Transitions returns the most recent gate transitions, oldest first.
// limit <= 0 returns all.
func (j *Journal) Transitions(limit int) ([]Transition, error) {
	rows, err := j.db.Query(
		`SELECT id, run_id, frame, from_status, to_status, consecutive_go, consecutive_no_go, cause, created_at
		 FROM (SELECT * FROM gate_transitions ORDER BY id DESC LIMIT ?) ORDER BY id ASC`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var from, to, cause, created string
		if err := rows.Scan(&t.ID, &t.RunID, &t.Frame, &from, &to, &t.ConsecutiveGo, &t.ConsecutiveNoGo, &cause, &created); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.From, t.To, t.Cause = gate.Status(from), gate.Status(to), Cause(cause)
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Contradictions returns the most recent contradiction entries, oldest
// first. limit <= 0 returns all.
func (j *Journal) Contradictions(limit int) ([]ContradictionEntry, error) {
	rows, err := j.db.Query(
		`SELECT id, run_id, event_id, action, frame, payload_json, created_at
		 FROM (SELECT * FROM contradiction_log ORDER BY id DESC LIMIT ?) ORDER BY id ASC`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query contradictions: %w", err)
	}
	defer rows.Close()

	var out []ContradictionEntry
	for rows.Next() {
		var e ContradictionEntry
		var action, created string
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.EventID, &action, &e.Frame, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan contradiction: %w", err)
		}
		e.Action = Action(action)
		e.PayloadJSON = payload.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs lists every run with its entry counts, oldest first.
func (j *Journal) Runs() ([]Run, error) {
	rows, err := j.db.Query(
		`SELECT r.run_id, r.started_at,
		        (SELECT COUNT(*) FROM gate_transitions g WHERE g.run_id = r.run_id),
		        (SELECT COUNT(*) FROM contradiction_log c WHERE c.run_id = r.run_id)
		 FROM runs r ORDER BY r.rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.Transitions, &r.Contradictions); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion list

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// #endregion helpers
