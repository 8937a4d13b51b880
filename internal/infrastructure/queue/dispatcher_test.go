package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mardens/authgate/internal/core/domain"
)

type stubAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
	block  chan struct{}
}

func (r *stubAuditRepo) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return r.err
}

func (r *stubAuditRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func TestDispatcher_PersistsInOrderPerUser(t *testing.T) {
	repo := &stubAuditRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start()

	for i := 0; i < 50; i++ {
		d.Record(domain.AuthEvent{Username: "alice", At: time.Unix(int64(i), 0)})
		d.Record(domain.AuthEvent{Username: "bob", At: time.Unix(int64(i), 0)})
	}

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	last := map[string]int64{}
	counts := map[string]int{}
	for _, e := range repo.snapshot() {
		counts[e.Username]++
		if prev, ok := last[e.Username]; ok && e.At.Unix() < prev {
			t.Fatalf("events for %s out of order", e.Username)
		}
		last[e.Username] = e.At.Unix()
	}
	if counts["alice"] != 50 || counts["bob"] != 50 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestDispatcher_InsertErrorsAreNotFatal(t *testing.T) {
	repo := &stubAuditRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()

	d.Record(domain.AuthEvent{Username: "alice"})
	d.Record(domain.AuthEvent{Username: "alice"})

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(repo.snapshot()) != 2 {
		t.Fatalf("expected both inserts to be attempted")
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &stubAuditRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()

	// One event is held by the blocked worker; the rest fill the buffer.
	for i := 0; i < channelBuffer+10; i++ {
		d.Record(domain.AuthEvent{Username: "alice"})
	}
	close(repo.block)

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := len(repo.snapshot()); got >= channelBuffer+10 {
		t.Fatalf("expected some events to be dropped, all %d were stored", got)
	}
}

func TestDispatcher_RecordAfterStopIsIgnored(t *testing.T) {
	repo := &stubAuditRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	d.Start()
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	d.Record(domain.AuthEvent{Username: "late"})
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if len(repo.snapshot()) != 0 {
		t.Fatalf("expected no events after stop")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &stubAuditRepo{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	if d.shardIndex("alice") != d.shardIndex("alice") {
		t.Fatalf("shard index must be deterministic")
	}
}

func TestDispatcher_AnonymousRejectionsSpreadByAddress(t *testing.T) {
	d := NewDispatcher(4, &stubAuditRepo{}, zerolog.Nop())

	shards := map[int]bool{}
	for i := 0; i < 64; i++ {
		event := domain.AuthEvent{Outcome: domain.OutcomeRejected, RemoteIP: fmt.Sprintf("10.0.0.%d", i)}
		shards[d.shardIndex(shardKey(event))] = true
	}
	if len(shards) < 2 {
		t.Fatalf("anonymous rejections from distinct addresses all hit one worker: %v", shards)
	}

	a := domain.AuthEvent{RemoteIP: "10.0.0.1"}
	b := domain.AuthEvent{RemoteIP: "10.0.0.1", Outcome: domain.OutcomeRejected, Path: "/api/users"}
	if shardKey(a) != shardKey(b) {
		t.Fatalf("one address must map to one shard key")
	}
	if shardKey(domain.AuthEvent{Username: "alice", RemoteIP: "10.0.0.1"}) != "user:alice" {
		t.Fatalf("identified events must shard by username")
	}
}
