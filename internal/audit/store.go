// Package audit persists access events for the media library. Every
// successful read or write of a library file that is not a programmatic
// index probe produces exactly one event. Inserts are fire-and-forget from
// the caller's perspective: a failed write is logged and dropped, never
// surfaced on the request it annotates.
package audit

import (
	"context"
	"time"

	"github.com/syncnest/syncnest/internal/models"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("syncnest-audit")

// Store is the audit event store. The default implementation is SQLite; the
// MySQL implementation exists for deployments that outgrow a single file.
type Store interface {
	// Record appends one event and returns its assigned id. The timestamp
	// is taken at the moment of the call, not when the annotated transfer
	// completes.
	Record(ctx context.Context, class models.MediaClass, name string, action models.Action) (int64, error)

	// List returns all events, most recent first.
	List(ctx context.Context) ([]models.AuditEvent, error)

	Close() error
}

// eventTime formats the moment an event is accepted. ISO-8601 UTC with
// millisecond precision, matching the text column in the events table.
func eventTime() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
