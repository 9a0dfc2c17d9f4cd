// Package moderation implements the topic lifecycle:
//
//	submit -> pending -> published (approve)
//	                  -> removed   (reject)
//	published -> published (edit)
//	          -> removed   (delete)
//
// There is no unpublish: a published topic never returns to pending.
package moderation

import (
	"context"

	"github.com/agora-dev/agora/internal/domain"
)

// TopicStore is the slice of the topic adapter the workflow drives.
type TopicStore interface {
	Topic(id string) (domain.Topic, bool)
	Create(ctx context.Context, draft domain.TopicDraft, status domain.TopicStatus) (string, error)
	Update(ctx context.Context, id string, changes domain.TopicChanges) error
	Publish(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type Workflow struct {
	store TopicStore
}

func New(store TopicStore) *Workflow {
	return &Workflow{store: store}
}

// Submit is the public submission surface. Everything it creates is pending
// and filed under the default category; nothing submitted here is ever
// auto-published.
func (w *Workflow) Submit(ctx context.Context, title, description string) (string, error) {
	draft := domain.TopicDraft{Title: title, Description: description}
	return w.store.Create(ctx, draft, domain.StatusPending)
}

// CreatePublished is the admin console's direct create: the topic goes live
// immediately, approval time stamped at creation.
func (w *Workflow) CreatePublished(ctx context.Context, draft domain.TopicDraft) (string, error) {
	return w.store.Create(ctx, draft, domain.StatusPublished)
}

// Approve transitions a pending topic to published. Approving an
// already-published topic changes nothing and succeeds.
func (w *Workflow) Approve(ctx context.Context, id string) error {
	t, ok := w.store.Topic(id)
	if !ok {
		// Let the store produce its not-found error so the caller sees
		// the same failure shape for every operation.
		return w.store.Publish(ctx, id)
	}
	if t.IsPublished() {
		return nil
	}
	return w.store.Publish(ctx, id)
}

// Reject removes a pending topic and its comments.
func (w *Workflow) Reject(ctx context.Context, id string) error {
	return w.store.Delete(ctx, id)
}

// Edit merges changed fields. The moderation status is untouched by edits.
func (w *Workflow) Edit(ctx context.Context, id string, changes domain.TopicChanges) error {
	return w.store.Update(ctx, id, changes)
}

// Delete removes a topic regardless of status, with the same comment
// cascade as Reject.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	return w.store.Delete(ctx, id)
}
