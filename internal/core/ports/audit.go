package ports

import (
	"context"

	"github.com/mardens/authgate/internal/core/domain"
)

// AuditRepository persists gate decisions.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditSink accepts gate decisions without blocking the request path.
type AuditSink interface {
	Record(event domain.AuthEvent)
}

// AuditReader reads back a user's recent gate decisions.
type AuditReader interface {
	RecentEvents(ctx context.Context, username string, limit int64) ([]domain.AuthEvent, error)
}
