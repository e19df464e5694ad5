package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
)

// SQLiteStore implements Store using a single SQLite database file. It uses
// WAL mode for better behavior under concurrent appenders and prepared
// statements on the hot paths.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	closeOnce sync.Once

	appendStmt  *sql.Stmt
	historyStmt *sql.Stmt
	rangeStmt   *sql.Stmt
	countStmt   *sql.Stmt
	countAll    *sql.Stmt
	deleteStmt  *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite-backed audit store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite-backed audit store.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

// Backend names the backend.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// initSchema creates the audit table if it does not exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_entries (
		id          TEXT PRIMARY KEY,
		timestamp   INTEGER NOT NULL,
		agent_id    TEXT NOT NULL,
		user_id     TEXT,
		kind        TEXT NOT NULL,
		description TEXT NOT NULL,
		clearance   TEXT NOT NULL,
		context     TEXT,
		seq         INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_audit_agent_time ON audit_entries(agent_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares the hot-path SQL statements.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.appendStmt, err = s.db.Prepare(`
		INSERT INTO audit_entries (id, timestamp, agent_id, user_id, kind, description, clearance, context, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_entries WHERE agent_id = ?))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	s.historyStmt, err = s.db.Prepare(`
		SELECT id, timestamp, agent_id, user_id, kind, description, clearance, context
		FROM audit_entries
		WHERE agent_id = ?
		ORDER BY seq DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history statement: %w", err)
	}

	s.rangeStmt, err = s.db.Prepare(`
		SELECT id, timestamp, agent_id, user_id, kind, description, clearance, context
		FROM audit_entries
		WHERE agent_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY seq DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare range statement: %w", err)
	}

	s.countStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM audit_entries WHERE agent_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	s.countAll, err = s.db.Prepare(`SELECT COUNT(*) FROM audit_entries`)
	if err != nil {
		return fmt.Errorf("failed to prepare count-all statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`DELETE FROM audit_entries WHERE timestamp < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// Append persists an entry.
func (s *SQLiteStore) Append(ctx context.Context, entry *Entry) error {
	clearanceJSON, err := json.Marshal(entry.Clearance)
	if err != nil {
		return fmt.Errorf("failed to encode clearance: %w", err)
	}

	var contextJSON []byte
	if entry.Context != nil {
		contextJSON, err = json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("failed to encode context: %w", err)
		}
	}

	_, err = s.appendStmt.ExecContext(ctx,
		entry.ID,
		entry.Timestamp.UnixNano(),
		entry.AgentID,
		entry.UserID,
		string(entry.Kind),
		entry.Description,
		string(clearanceJSON),
		nullableString(contextJSON),
		entry.AgentID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// History returns the agent's entries most recent first.
func (s *SQLiteStore) History(ctx context.Context, agentID string, start, end *time.Time) ([]*Entry, error) {
	var rows *sql.Rows
	var err error

	if start == nil && end == nil {
		rows, err = s.historyStmt.QueryContext(ctx, agentID)
	} else {
		from := int64(0)
		if start != nil {
			from = start.UnixNano()
		}
		to := time.Now().Add(24 * time.Hour).UnixNano()
		if end != nil {
			to = end.UnixNano()
		}
		rows, err = s.rangeStmt.QueryContext(ctx, agentID, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history row iteration failed: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries for the agent, or all entries when
// the agent id is empty.
func (s *SQLiteStore) Count(ctx context.Context, agentID string) (int64, error) {
	var row *sql.Row
	if agentID == "" {
		row = s.countAll.QueryRowContext(ctx)
	} else {
		row = s.countStmt.QueryRowContext(ctx, agentID)
	}

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}

// DeleteBefore removes entries older than the cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.deleteStmt.ExecContext(ctx, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}

// Close closes the prepared statements and the database.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{
			s.appendStmt, s.historyStmt, s.rangeStmt,
			s.countStmt, s.countAll, s.deleteStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})
	return closeErr
}

// scanEntry reads a single entry row.
func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		entry         Entry
		ts            int64
		userID        sql.NullString
		clearanceJSON string
		contextJSON   sql.NullString
	)

	if err := rows.Scan(
		&entry.ID, &ts, &entry.AgentID, &userID,
		(*string)(&entry.Kind), &entry.Description,
		&clearanceJSON, &contextJSON,
	); err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	entry.Timestamp = time.Unix(0, ts).UTC()
	entry.UserID = userID.String

	var clearance ethics.Clearance
	if err := json.Unmarshal([]byte(clearanceJSON), &clearance); err != nil {
		return nil, fmt.Errorf("failed to decode clearance for entry %s: %w", entry.ID, err)
	}
	entry.Clearance = &clearance

	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &entry.Context); err != nil {
			return nil, fmt.Errorf("failed to decode context for entry %s: %w", entry.ID, err)
		}
	}

	return &entry, nil
}

// nullableString converts empty JSON to a SQL NULL.
func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
