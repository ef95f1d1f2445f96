package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLiteConfig contains configuration for the SQLite catalog.
type SQLiteConfig struct {
	// Path is the database file path, or a full "file:" URI.
	Path string

	// Driver is the database/sql driver name: "sqlite" (modernc, pure Go)
	// or "sqlite3" (mattn, cgo).
	// Default: "sqlite"
	Driver string

	// JournalMode is applied with PRAGMA journal_mode.
	// Default: "wal"
	JournalMode string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns is the maximum number of open connections.
	// Default: 1
	MaxOpenConns int
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "/config/opengate.db",
		Driver:       "sqlite",
		JournalMode:  "wal",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

// dsn builds a driver-specific connection string. The pragmas ride on the
// DSN so every pooled connection gets them, not only the first.
func (c *SQLiteConfig) dsn() string {
	path := c.Path
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	busy := c.BusyTimeout.Milliseconds()
	journal := strings.ToUpper(c.JournalMode)

	if c.Driver == "sqlite3" {
		return fmt.Sprintf("%s%s_busy_timeout=%d&_journal_mode=%s&_synchronous=NORMAL", path, sep, busy, journal)
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=journal_mode(%s)&_pragma=synchronous(NORMAL)",
		path, sep, busy, journal)
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// OpenSQLite opens the catalog database, creating the schema if needed.
func OpenSQLite(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite"
	}
	if config.JournalMode == "" {
		config.JournalMode = "wal"
	}

	db, err := sql.Open(config.Driver, config.dsn())
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	s := newSQLiteStore(db, config)
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("catalog opened",
		"path", config.Path,
		"driver", config.Driver,
		"journal_mode", config.JournalMode,
	)

	return s, nil
}

func newSQLiteStore(db *sql.DB, config *SQLiteConfig) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "catalog.sqlite"),
	}
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	s.logger.Debug("schema version verified", "version", version.Int64)
	return nil
}

const selectRecordings = `SELECT id, camera, path, start_time, end_time, objects, motion FROM recordings`

// StreamRecordings sends matching recordings ordered by start_time.
func (s *SQLiteStore) StreamRecordings(ctx context.Context, query *RecordingQuery) (<-chan *Recording, <-chan error, error) {
	if query == nil {
		query = &RecordingQuery{}
	}

	sqlQuery, args, err := buildRecordingQuery(query)
	if err != nil {
		return nil, nil, NewStorageError("sqlite", "stream_recordings", err)
	}

	recordsCh := make(chan *Recording, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- NewStorageError("sqlite", "stream_recordings", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecording(rows)
			if err != nil {
				errCh <- NewStorageError("sqlite", "scan_recording", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- rec:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- NewStorageError("sqlite", "stream_recordings", err)
		}
	}()

	return recordsCh, errCh, nil
}

// buildRecordingQuery renders a RecordingQuery as SQL.
// Returns the statement and its arguments.
func buildRecordingQuery(query *RecordingQuery) (string, []any, error) {
	var conditions []string
	var args []any

	if query.Camera != "" {
		conditions = append(conditions, "camera = ?")
		args = append(args, query.Camera)
	}
	if len(query.ExcludeCameras) > 0 {
		list, err := json.Marshal(query.ExcludeCameras)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, "camera NOT IN (SELECT value FROM json_each(?))")
		args = append(args, string(list))
	}
	if query.EndBefore != nil {
		conditions = append(conditions, "end_time < ?")
		args = append(args, toEpoch(*query.EndBefore))
	}
	if query.StartAfter != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, toEpoch(*query.StartAfter))
	}

	sqlQuery := selectRecordings
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY start_time ASC, id ASC" + limitClause(query.Limit, query.Offset)

	return sqlQuery, args, nil
}

func limitClause(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (*Recording, error) {
	var rec Recording
	var start, end float64
	if err := row.Scan(&rec.ID, &rec.Camera, &rec.Path, &start, &end, &rec.Objects, &rec.Motion); err != nil {
		return nil, err
	}
	rec.StartTime = fromEpoch(start)
	rec.EndTime = fromEpoch(end)
	return &rec, nil
}

// QueryEvents returns matching events ordered by start_time.
func (s *SQLiteStore) QueryEvents(ctx context.Context, query *EventQuery) ([]*Event, error) {
	if query == nil {
		query = &EventQuery{}
	}

	var conditions []string
	var args []any

	if query.Camera != "" {
		conditions = append(conditions, "camera = ?")
		args = append(args, query.Camera)
	}
	if query.StartBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, toEpoch(*query.StartBefore))
	}
	if query.ClipsOnly {
		conditions = append(conditions, "has_clip = 1")
	}

	sqlQuery := "SELECT id, camera, label, start_time, end_time, has_clip FROM event"
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY start_time ASC, id ASC" + limitClause(query.Limit, query.Offset)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query_events", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var ev Event
		var start float64
		var end sql.NullFloat64
		if err := rows.Scan(&ev.ID, &ev.Camera, &ev.Label, &start, &end, &ev.HasClip); err != nil {
			return nil, NewStorageError("sqlite", "scan_event", err)
		}
		ev.StartTime = fromEpoch(start)
		if end.Valid {
			t := fromEpoch(end.Float64)
			ev.EndTime = &t
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query_events", err)
	}

	return events, nil
}

// AddRecordings inserts recordings in one transaction. Rows whose path is
// already cataloged are skipped.
func (s *SQLiteStore) AddRecordings(ctx context.Context, recordings []*Recording) (int64, error) {
	if len(recordings) == 0 {
		return 0, nil
	}

	var inserted int64
	err := s.withTx(ctx, "add_recordings", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO recordings (id, camera, path, start_time, end_time, objects, motion)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range recordings {
			res, err := stmt.ExecContext(ctx, rec.ID, rec.Camera, rec.Path,
				toEpoch(rec.StartTime), toEpoch(rec.EndTime), rec.Objects, rec.Motion)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// AddEvents inserts or replaces events. Event creation belongs to the
// detection pipeline; this exists for imports and tests.
func (s *SQLiteStore) AddEvents(ctx context.Context, events []*Event) error {
	return s.withTx(ctx, "add_events", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO event (id, camera, label, start_time, end_time, has_clip)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, ev := range events {
			var end any
			if ev.EndTime != nil {
				end = toEpoch(*ev.EndTime)
			}
			if _, err := stmt.ExecContext(ctx, ev.ID, ev.Camera, ev.Label,
				toEpoch(ev.StartTime), end, ev.HasClip); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRecordings removes ids with one statement. The id set is bound as a
// single JSON array because SQLite caps bound parameters well below
// MaxDeleteBatch.
func (s *SQLiteStore) DeleteRecordings(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	list, err := json.Marshal(ids)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM recordings WHERE id IN (SELECT value FROM json_each(?))", string(list))
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	return count, nil
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("catalog closed")
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("sqlite", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return NewStorageError("sqlite", op, err)
	}
	if err := tx.Commit(); err != nil {
		return NewStorageError("sqlite", op, err)
	}
	return nil
}
