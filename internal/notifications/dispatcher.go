package notifications

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/9ssi7/exponent"
	"go.uber.org/zap"

	"fanfare/internal/store"
)

// Event is one interaction worth telling the recipient about. The primary
// mutation emits it after committing; the dispatcher decides whether it
// becomes a notification row.
type Event struct {
	RecipientID int64
	ActorID     int64
	ActorName   string
	Type        string // store.NotificationLike, Comment, Reply, Follow
	RelatedID   int64
	RelatedType string // "review", "comment", "user"
}

// NotificationCreator is the slice of the store the dispatcher writes
// through.
type NotificationCreator interface {
	Create(context.Context, *store.Notification) error
}

// TokenSource resolves a recipient's registered push tokens.
type TokenSource interface {
	GetByUserID(ctx context.Context, userID int64) ([]string, error)
}

// Dispatcher turns interaction events into persisted notifications and
// best-effort push messages. It never fails the triggering mutation: every
// error in here is logged and swallowed.
type Dispatcher struct {
	notifications NotificationCreator
	tokens        TokenSource
	push          PushSender
	logger        *zap.SugaredLogger
	now           func() time.Time
}

func NewDispatcher(nc NotificationCreator, tokens TokenSource, push PushSender, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		notifications: nc,
		tokens:        tokens,
		push:          push,
		logger:        logger,
		now:           time.Now,
	}
}

// Dispatch persists the event as a notification. Self-triggered events
// (actor == recipient) are suppressed. Retries of the same interaction
// within the dedup bucket collapse onto the existing row.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if e.RecipientID == 0 || e.RecipientID == e.ActorID {
		return
	}

	title, message := composeMessage(e)
	n := &store.Notification{
		RecipientID: e.RecipientID,
		ActorID:     e.ActorID,
		Type:        e.Type,
		Title:       title,
		Message:     message,
		RelatedID:   e.RelatedID,
		RelatedType: e.RelatedType,
		DedupKey:    dedupKey(e, d.now()),
	}

	// Detach from the request context: the mutation already committed, and
	// a client navigating away must not abort the fan-out midway.
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, store.QueryTimeoutDuration)
	defer cancel()

	if err := d.notifications.Create(ctx, n); err != nil {
		d.logger.Errorw("notification dispatch failed",
			"type", e.Type, "recipient", e.RecipientID, "related_id", e.RelatedID, "error", err)
		return
	}

	d.pushBestEffort(ctx, n)
}

func composeMessage(e Event) (title, message string) {
	actor := e.ActorName
	if actor == "" {
		actor = "Someone"
	}
	switch e.Type {
	case store.NotificationLike:
		return "New like", fmt.Sprintf("%s liked your review", actor)
	case store.NotificationComment:
		return "New comment", fmt.Sprintf("%s commented on your review", actor)
	case store.NotificationReply:
		return "New reply", fmt.Sprintf("%s replied to your comment", actor)
	case store.NotificationFollow:
		return "New follower", fmt.Sprintf("%s started following you", actor)
	}
	return "Fanfare", fmt.Sprintf("%s interacted with you", actor)
}

// dedupKey hashes (actor, recipient, type, related, hour bucket) so a
// retried client request cannot mint a second row for the same interaction
// within the bucket.
func dedupKey(e Event, at time.Time) string {
	bucket := at.UTC().Truncate(time.Hour).Unix()
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%d|%s|%s|%d|%d",
		e.ActorID, e.RecipientID, e.Type, e.RelatedType, e.RelatedID, bucket))
	return hex.EncodeToString(sum[:])
}

func (d *Dispatcher) pushBestEffort(ctx context.Context, n *store.Notification) {
	if d.push == nil || d.tokens == nil {
		return
	}

	tokens, err := d.tokens.GetByUserID(ctx, n.RecipientID)
	if err != nil {
		d.logger.Errorw("push token lookup failed", "recipient", n.RecipientID, "error", err)
		return
	}
	tokens = dedupe(tokens)
	if len(tokens) == 0 {
		return
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: n.Title,
			Body:  n.Message,
			Data: map[string]string{
				"type":         n.Type,
				"related_id":   strconv.FormatInt(n.RelatedID, 10),
				"related_type": n.RelatedType,
			},
		})
	}

	if _, err := d.push.Publish(ctx, msgs); err != nil {
		d.logger.Errorw("push publish failed", "recipient", n.RecipientID, "error", err)
	}
}
