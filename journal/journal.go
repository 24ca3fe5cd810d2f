// Package journal records every replayed command and its outcome in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ochinchina/wlreplay/dispatch"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS replay_events (
	run_id     TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	kind       TEXT    NOT NULL,
	command    TEXT    NOT NULL DEFAULT '',
	outcome    TEXT    NOT NULL DEFAULT '',
	status     INTEGER NOT NULL DEFAULT 0,
	body       TEXT    NOT NULL DEFAULT '',
	error      TEXT    NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
)`

// Event kinds
const (
	KindCommand = "command"
	KindReset   = "reset"
	KindFlag    = "flag"
)

// Entry is one journal row
type Entry struct {
	RunID     string
	Seq       int
	Kind      string
	Command   string
	Outcome   string
	Status    int
	Body      string
	Error     string
	CreatedAt time.Time
}

// Journal appends the events of one replay run
type Journal struct {
	sync.Mutex
	sqlDB *sql.DB
	runID string
	seq   int
}

// Open opens (creating if needed) the journal database at path for the run runID
func Open(path string, runID string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Journal{sqlDB: sqlDB, runID: runID}, nil
}

// Close closes the SQLite handle
func (j *Journal) Close() error {
	if j == nil || j.sqlDB == nil {
		return nil
	}
	return j.sqlDB.Close()
}

func (j *Journal) append(e Entry) {
	j.Lock()
	defer j.Unlock()
	j.seq++
	_, err := j.sqlDB.Exec(
		`INSERT INTO replay_events (run_id, seq, kind, command, outcome, status, body, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, j.seq, e.Kind, e.Command, e.Outcome, e.Status, e.Body, e.Error, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		log.WithFields(log.Fields{log.ErrorKey: err, "run": j.runID}).Warn("fail to write journal entry")
	}
}

// CommandDone appends the outcome of a dispatched command
func (j *Journal) CommandDone(result dispatch.Result) {
	e := Entry{
		Kind:    KindCommand,
		Command: result.Cmd.String(),
		Outcome: result.Kind.String(),
		Status:  result.Status,
		Body:    result.Body,
	}
	if result.Err != nil {
		e.Error = result.Err.Error()
	}
	j.append(e)
}

// ResetDone appends a database reset
func (j *Journal) ResetDone() {
	j.append(Entry{Kind: KindReset})
}

// FlagChanged appends a change of the restart flag
func (j *Journal) FlagChanged(present bool) {
	outcome := "absent"
	if present {
		outcome = "present"
	}
	j.append(Entry{Kind: KindFlag, Outcome: outcome})
}

// Runs returns the ids of the recorded runs, oldest first
func (j *Journal) Runs(ctx context.Context) ([]string, error) {
	rows, err := j.sqlDB.QueryContext(ctx,
		`SELECT run_id FROM replay_events GROUP BY run_id ORDER BY MIN(created_at), run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, err
		}
		result = append(result, runID)
	}
	return result, rows.Err()
}

// Entries returns the rows of a run in order
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.sqlDB.QueryContext(ctx,
		`SELECT run_id, seq, kind, command, outcome, status, body, error, created_at
		 FROM replay_events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Kind, &e.Command, &e.Outcome, &e.Status, &e.Body, &e.Error, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		result = append(result, e)
	}
	return result, rows.Err()
}
