package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jyotish/auth-service/internal/core/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
	block  chan struct{}
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.AuthEvent) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) snapshot() []domain.AuthEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.AuthEvent(nil), p.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDispatcher_DeliversInOrderPerAccount(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(4, pub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	types := []domain.AuthEventType{
		domain.EventUserRegistered,
		domain.EventUserLoggedIn,
		domain.EventTokenRefreshed,
	}
	for _, typ := range types {
		if err := d.Publish(context.Background(), domain.AuthEvent{Type: typ, AccountID: "acc-1"}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	waitFor(t, func() bool { return len(pub.snapshot()) == len(types) })
	cancel()
	d.Wait()

	for i, e := range pub.snapshot() {
		if e.Type != types[i] {
			t.Fatalf("event %d = %s, want %s", i, e.Type, types[i])
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingPublisher{}, zerolog.Nop())

	first := d.shardIndex("acc-42")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("acc-42"); got != first {
			t.Fatalf("shard index changed: %d != %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	d := NewDispatcher(1, pub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	// One event is held by the blocked worker, channelBuffer more fill the
	// channel; everything after that is dropped without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			_ = d.Publish(context.Background(), domain.AuthEvent{Type: domain.EventUserLoggedIn, AccountID: "acc-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a full queue")
	}

	close(pub.block)
	waitFor(t, func() bool { return len(pub.snapshot()) >= channelBuffer })
	cancel()
	d.Wait()

	if got := len(pub.snapshot()); got > channelBuffer+1 {
		t.Fatalf("expected overflow to be dropped, %d events delivered", got)
	}
}

func TestDispatcher_PublisherErrorsDoNotStopWorker(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(1, pub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	_ = d.Publish(context.Background(), domain.AuthEvent{Type: domain.EventUserRegistered, AccountID: "a"})
	_ = d.Publish(context.Background(), domain.AuthEvent{Type: domain.EventUserLoggedIn, AccountID: "a"})

	waitFor(t, func() bool { return len(pub.snapshot()) == 2 })
	cancel()
	d.Wait()
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &recordingPublisher{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}
