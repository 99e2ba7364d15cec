package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/9ssi7/exponent"
	"go.uber.org/zap"

	"fanfare/internal/store"
)

type creatorRecorder struct {
	mu      sync.Mutex
	created []*store.Notification
	err     error
}

func (c *creatorRecorder) Create(_ context.Context, n *store.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.created = append(c.created, n)
	return nil
}

type tokenFake struct {
	tokens []string
	err    error
}

func (t *tokenFake) GetByUserID(context.Context, int64) ([]string, error) {
	return t.tokens, t.err
}

type pushRecorder struct {
	mu        sync.Mutex
	published [][]*exponent.Message
}

func (p *pushRecorder) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msgs)
	return nil, nil
}

func newTestDispatcher(creator *creatorRecorder, tokens TokenSource, push PushSender) *Dispatcher {
	d := NewDispatcher(creator, tokens, push, zap.NewNop().Sugar())
	d.now = func() time.Time { return time.Date(2025, 6, 14, 12, 30, 0, 0, time.UTC) }
	return d
}

func likeEvent(actor, recipient int64) Event {
	return Event{
		RecipientID: recipient,
		ActorID:     actor,
		ActorName:   "nina",
		Type:        store.NotificationLike,
		RelatedID:   77,
		RelatedType: "review",
	}
}

func TestDispatchPersistsNotification(t *testing.T) {
	t.Parallel()

	creator := &creatorRecorder{}
	d := newTestDispatcher(creator, nil, nil)

	d.Dispatch(context.Background(), likeEvent(1, 2))

	if len(creator.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(creator.created))
	}
	n := creator.created[0]
	if n.RecipientID != 2 || n.ActorID != 1 || n.Type != store.NotificationLike {
		t.Errorf("unexpected notification %+v", n)
	}
	if n.Message != "nina liked your review" {
		t.Errorf("message = %q", n.Message)
	}
	if n.DedupKey == "" {
		t.Error("dedup key not set")
	}
}

func TestDispatchSuppressesSelfAndAnonymous(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event Event
	}{
		{"self-triggered", likeEvent(2, 2)},
		{"no recipient", likeEvent(1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			creator := &creatorRecorder{}
			d := newTestDispatcher(creator, nil, nil)

			d.Dispatch(context.Background(), tt.event)

			if len(creator.created) != 0 {
				t.Errorf("created %d notifications, want 0", len(creator.created))
			}
		})
	}
}

func TestDispatchSwallowsCreateErrors(t *testing.T) {
	t.Parallel()

	creator := &creatorRecorder{err: errors.New("db down")}
	push := &pushRecorder{}
	d := newTestDispatcher(creator, &tokenFake{tokens: []string{"tok"}}, push)

	// must not panic, and must not push for a notification that never landed
	d.Dispatch(context.Background(), likeEvent(1, 2))

	if len(push.published) != 0 {
		t.Errorf("pushed %d batches after failed create, want 0", len(push.published))
	}
}

func TestDispatchDedupKeyStableWithinBucket(t *testing.T) {
	t.Parallel()

	creator := &creatorRecorder{}
	d := newTestDispatcher(creator, nil, nil)

	d.Dispatch(context.Background(), likeEvent(1, 2))
	d.Dispatch(context.Background(), likeEvent(1, 2))

	if len(creator.created) != 2 {
		t.Fatalf("created %d notifications, want 2", len(creator.created))
	}
	if creator.created[0].DedupKey != creator.created[1].DedupKey {
		t.Error("same interaction in the same bucket produced different dedup keys")
	}

	// a different related id must produce a different key
	other := likeEvent(1, 2)
	other.RelatedID = 78
	d.Dispatch(context.Background(), other)
	if creator.created[2].DedupKey == creator.created[0].DedupKey {
		t.Error("different interactions share a dedup key")
	}
}

func TestDispatchDedupKeyRotatesAcrossBuckets(t *testing.T) {
	t.Parallel()

	creator := &creatorRecorder{}
	d := newTestDispatcher(creator, nil, nil)

	d.Dispatch(context.Background(), likeEvent(1, 2))
	d.now = func() time.Time { return time.Date(2025, 6, 14, 13, 30, 0, 0, time.UTC) }
	d.Dispatch(context.Background(), likeEvent(1, 2))

	if creator.created[0].DedupKey == creator.created[1].DedupKey {
		t.Error("dedup key did not rotate across hour buckets")
	}
}

func TestDispatchPushesToEveryDistinctToken(t *testing.T) {
	t.Parallel()

	creator := &creatorRecorder{}
	push := &pushRecorder{}
	tokens := &tokenFake{tokens: []string{"tok-a", "tok-b", "tok-a"}}
	d := newTestDispatcher(creator, tokens, push)

	d.Dispatch(context.Background(), likeEvent(1, 2))

	if len(push.published) != 1 {
		t.Fatalf("published %d batches, want 1", len(push.published))
	}
	if got := len(push.published[0]); got != 2 {
		t.Errorf("batch holds %d messages, want 2 after token dedupe", got)
	}
}

func TestDispatchSkipsPushWithoutTokens(t *testing.T) {
	t.Parallel()

	creator := &creatorRecorder{}
	push := &pushRecorder{}
	d := newTestDispatcher(creator, &tokenFake{}, push)

	d.Dispatch(context.Background(), likeEvent(1, 2))

	if len(creator.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(creator.created))
	}
	if len(push.published) != 0 {
		t.Errorf("published %d batches for a recipient with no tokens", len(push.published))
	}
}
