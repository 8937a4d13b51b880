package mongo

import (
	"testing"
	"time"

	"github.com/mardens/authgate/internal/core/domain"
)

func TestToMongoAuthEvent(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, loc)

	doc := toMongoAuthEvent(&domain.AuthEvent{
		Username:  "alice",
		Outcome:   domain.OutcomeRejected,
		Reason:    "invalid_token",
		RemoteIP:  "10.0.0.1",
		UserAgent: "curl/8",
		Method:    "GET",
		Path:      "/api/me",
		At:        at,
	})

	if doc.Outcome != "rejected" || doc.Reason != "invalid_token" || doc.Username != "alice" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.At.Location() != time.UTC || !doc.At.Equal(at) {
		t.Fatalf("expected UTC timestamp, got %v", doc.At)
	}
	if !doc.ID.IsZero() {
		t.Fatalf("id must be left for the server to assign")
	}
}
