package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syncnest/syncnest/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the default audit store: a single events table in a SQLite
// file under the user's data directory.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path and ensures
// the events table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// Concurrent inserts from parallel requests serialize on a single
	// writer connection rather than tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT,
    name TEXT,
    action TEXT,
    time TEXT
)`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record inserts one event and returns its assigned id.
func (s *SQLiteStore) Record(ctx context.Context, class models.MediaClass, name string, action models.Action) (int64, error) {
	ctx, span := tracer.Start(ctx, "audit.record",
		trace.WithAttributes(
			attribute.String("media_class", string(class)),
			attribute.String("resource", name),
			attribute.String("action", string(action)),
		),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (type, name, action, time) VALUES (?, ?, ?, ?)`,
		string(class), name, string(action), eventTime(),
	)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("event id: %w", err)
	}
	return id, nil
}

// List returns all events, most recent first. Ordering is by id descending:
// ids are assigned at insert, so this is insertion order made strict for
// events sharing a timestamp.
func (s *SQLiteStore) List(ctx context.Context) ([]models.AuditEvent, error) {
	ctx, span := tracer.Start(ctx, "audit.list")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, name, action, time FROM events ORDER BY id DESC`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("event_count", len(events)))
	return events, nil
}

// scanEvents is shared by the SQLite and MySQL stores.
func scanEvents(rows *sql.Rows) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	for rows.Next() {
		var ev models.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Class, &ev.Name, &ev.Action, &ev.Time); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
