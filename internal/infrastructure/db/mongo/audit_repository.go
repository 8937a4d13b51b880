package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mardens/authgate/internal/core/domain"
	"github.com/mardens/authgate/internal/core/ports"
)

const auditCollection = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

var (
	_ ports.AuditRepository = (*AuditRepository)(nil)
	_ ports.AuditReader     = (*AuditRepository)(nil)
)

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuthEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username,omitempty"`
	Outcome   string             `bson:"outcome"`
	Reason    string             `bson:"reason,omitempty"`
	RemoteIP  string             `bson:"remote_ip"`
	UserAgent string             `bson:"user_agent"`
	Method    string             `bson:"method"`
	Path      string             `bson:"path"`
	At        time.Time          `bson:"at"`
}

func toMongoAuthEvent(e *domain.AuthEvent) mongoAuthEvent {
	return mongoAuthEvent{
		Username:  e.Username,
		Outcome:   string(e.Outcome),
		Reason:    e.Reason,
		RemoteIP:  e.RemoteIP,
		UserAgent: e.UserAgent,
		Method:    e.Method,
		Path:      e.Path,
		At:        e.At.UTC(),
	}
}

// EnsureIndexes creates the indexes used to look up a user's recent decisions.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "outcome", Value: 1}, {Key: "at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

// InsertEvent appends a gate decision to the audit trail.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	if _, err := r.coll.InsertOne(ctx, toMongoAuthEvent(event)); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// RecentEvents returns the latest decisions for username, newest first.
func (r *AuditRepository) RecentEvents(ctx context.Context, username string, limit int64) ([]domain.AuthEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"username": username}, opts)
	if err != nil {
		return nil, fmt.Errorf("find auth events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAuthEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode auth events: %w", err)
	}

	events := make([]domain.AuthEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.AuthEvent{
			Username:  d.Username,
			Outcome:   domain.AuthOutcome(d.Outcome),
			Reason:    d.Reason,
			RemoteIP:  d.RemoteIP,
			UserAgent: d.UserAgent,
			Method:    d.Method,
			Path:      d.Path,
			At:        d.At,
		})
	}
	return events, nil
}
