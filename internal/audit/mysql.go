package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/syncnest/syncnest/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MySQLStore is the audit store for deployments where a single SQLite file
// is not enough: same table, an auto-increment key, and room for indexes.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore connects to the database behind dsn and ensures the events
// table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	s := &MySQLStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS events (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    type VARCHAR(16),
    name VARCHAR(255),
    action VARCHAR(16),
    time VARCHAR(32)
)`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Record inserts one event and returns its assigned id.
func (s *MySQLStore) Record(ctx context.Context, class models.MediaClass, name string, action models.Action) (int64, error) {
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

// List returns all events, most recent first.
func (s *MySQLStore) List(ctx context.Context) ([]models.AuditEvent, error) {
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
