// Package store holds the live projections of the tree store. Each adapter
// owns exactly one current snapshot per subscribed path and replaces it
// wholesale on every push; derived views are pure recomputations over the
// current snapshot, never incremental patches.
package store

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/agora-dev/agora/internal/domain"
	internal_errors "github.com/agora-dev/agora/internal/errors"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/rtdb"
)

const (
	topicsPath   = "topics"
	commentsPath = "comments"
)

// ErrEmptyTitle is the validation failure for a blank (after trimming)
// title. It is raised before any store call is made.
var ErrEmptyTitle = &internal_errors.ErrorWithStatusCode{Message: "title cannot be empty", StatusCode: http.StatusBadRequest}

var errTopicNotFound = &internal_errors.ErrorWithStatusCode{Message: "topic not found", StatusCode: http.StatusNotFound}

// TopicAdapter maintains the projection of the whole topic collection plus
// the comment tree (needed for per-topic counts), exactly as the admin
// surface of the store subscribes to both.
type TopicAdapter struct {
	client rtdb.Client
	now    func() int64

	mu          sync.RWMutex
	topics      map[string]domain.Topic
	counts      map[string]int
	topicsVer   uint64
	commentsVer uint64

	cancels  []func()
	onChange func()
}

func NewTopicAdapter(client rtdb.Client) *TopicAdapter {
	return &TopicAdapter{
		client: client,
		now:    func() int64 { return time.Now().UnixMilli() },
		topics: make(map[string]domain.Topic),
		counts: make(map[string]int),
	}
}

// OnChange registers a callback fired after every applied snapshot.
// Must be set before Start.
func (a *TopicAdapter) OnChange(fn func()) {
	a.onChange = fn
}

// Start opens the two long-lived subscriptions and loads the initial state.
// The subscriptions open before the initial reads so a write landing between
// the two still produces a snapshot; the version guards in applyTopics and
// applyComments drop whichever of the overlapping pair arrives stale.
func (a *TopicAdapter) Start(ctx context.Context) error {
	topicsCh, cancelTopics := a.client.Subscribe(topicsPath)
	commentsCh, cancelComments := a.client.Subscribe(commentsPath)
	a.cancels = []func(){cancelTopics, cancelComments}

	topicsSnap, err := a.client.Get(ctx, topicsPath)
	if err != nil {
		a.Close()
		return err
	}
	commentsSnap, err := a.client.Get(ctx, commentsPath)
	if err != nil {
		a.Close()
		return err
	}
	a.applyTopics(topicsSnap)
	a.applyComments(commentsSnap)

	go func() {
		for snap := range topicsCh {
			a.applyTopics(snap)
		}
	}()
	go func() {
		for snap := range commentsCh {
			a.applyComments(snap)
		}
	}()
	return nil
}

func (a *TopicAdapter) Close() {
	for _, cancel := range a.cancels {
		cancel()
	}
	a.cancels = nil
}

// applyTopics replaces the topic projection with the snapshot contents.
// Snapshots older than the one already applied are discarded.
func (a *TopicAdapter) applyTopics(snap rtdb.Snapshot) {
	a.mu.Lock()
	if snap.Version <= a.topicsVer && a.topicsVer != 0 {
		a.mu.Unlock()
		return
	}
	a.topicsVer = snap.Version

	topics := make(map[string]domain.Topic, len(snap.Records))
	for id, raw := range snap.Records {
		var t domain.Topic
		if err := json.Unmarshal(raw, &t); err != nil {
			logger.Log.Warn("skipping malformed topic record", "id", id, "error", err)
			continue
		}
		if t.Title == "" {
			// The non-empty-title invariant holds for everything a view
			// can see; a record violating it never enters the projection.
			logger.Log.Warn("skipping topic without title", "id", id)
			continue
		}
		t.Id = id
		if t.Category == "" {
			t.Category = domain.DefaultCategory
		}
		topics[id] = t
	}
	a.topics = topics
	a.mu.Unlock()

	a.notify()
}

// applyComments rebuilds per-topic comment counts from the full comment tree.
// Record keys are "topicId/commentId".
func (a *TopicAdapter) applyComments(snap rtdb.Snapshot) {
	a.mu.Lock()
	if snap.Version <= a.commentsVer && a.commentsVer != 0 {
		a.mu.Unlock()
		return
	}
	a.commentsVer = snap.Version

	counts := make(map[string]int)
	for key := range snap.Records {
		if topicID, _, ok := splitKey(key); ok {
			counts[topicID]++
		}
	}
	a.counts = counts
	a.mu.Unlock()

	a.notify()
}

func (a *TopicAdapter) notify() {
	if a.onChange != nil {
		a.onChange()
	}
}

// Pending lists topics awaiting approval, most recently submitted first.
func (a *TopicAdapter) Pending() []domain.Topic {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var pending []domain.Topic
	for _, t := range a.topics {
		if !t.IsPublished() {
			pending = append(pending, t)
		}
	}
	sortByCreatedAtDesc(pending)
	return pending
}

// Published lists publicly visible topics with their comment counts, most
// recently created first.
func (a *TopicAdapter) Published() []domain.PublishedTopic {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var published []domain.PublishedTopic
	for id, t := range a.topics {
		if t.IsPublished() {
			published = append(published, domain.PublishedTopic{Topic: t, Id: id, CommentCount: a.counts[id]})
		}
	}
	sort.Slice(published, func(i, j int) bool {
		if published[i].CreatedAt != published[j].CreatedAt {
			return published[i].CreatedAt > published[j].CreatedAt
		}
		return published[i].Id < published[j].Id
	})
	return published
}

// MostActive ranks published topics by comment count, ties keeping their
// listing order, and returns the top n.
func (a *TopicAdapter) MostActive(n int) []domain.PublishedTopic {
	ranked := a.Published()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CommentCount > ranked[j].CommentCount
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Topic returns one topic from the projection.
func (a *TopicAdapter) Topic(id string) (domain.Topic, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.topics[id]
	return t, ok
}

// CommentCount returns the size of a topic's comment partition, zero when
// none exist.
func (a *TopicAdapter) CommentCount(id string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counts[id]
}

// Stats is the aggregate view behind the admin console's statistics tab.
type Stats struct {
	TotalTopics   int
	TotalComments int
	PerTopic      float64
	MostActive    []domain.PublishedTopic
}

func (a *TopicAdapter) Stats() Stats {
	a.mu.RLock()
	total := len(a.topics)
	comments := 0
	for _, c := range a.counts {
		comments += c
	}
	a.mu.RUnlock()

	s := Stats{TotalTopics: total, TotalComments: comments, MostActive: a.MostActive(5)}
	if total > 0 {
		s.PerTopic = float64(comments) / float64(total)
	}
	return s
}

// Create validates and stores a new topic. Nothing is sent to the store when
// validation fails.
func (a *TopicAdapter) Create(ctx context.Context, draft domain.TopicDraft, status domain.TopicStatus) (string, error) {
	title := sanitize(draft.Title)
	if title == "" {
		return "", ErrEmptyTitle
	}

	category := sanitize(draft.Category)
	if category == "" {
		category = domain.DefaultCategory
	}

	t := domain.Topic{
		Title:       title,
		Description: sanitize(draft.Description),
		Category:    category,
		Status:      status,
		CreatedAt:   a.now(),
	}
	if status == domain.StatusPublished {
		t.ApprovedAt = t.CreatedAt
	}

	return a.client.Push(ctx, topicsPath, t)
}

// Update merges changed fields into an existing topic. The status field is
// never part of an edit.
func (a *TopicAdapter) Update(ctx context.Context, id string, changes domain.TopicChanges) error {
	title := sanitize(changes.Title)
	if title == "" {
		return ErrEmptyTitle
	}

	category := sanitize(changes.Category)
	if category == "" {
		category = domain.DefaultCategory
	}

	err := a.client.Update(ctx, rtdb.Join(topicsPath, id), map[string]any{
		"title":       title,
		"description": sanitize(changes.Description),
		"category":    category,
		"updatedAt":   a.now(),
	})
	if err == rtdb.ErrNotFound {
		return errTopicNotFound
	}
	return err
}

// Publish flips a topic to published, stamping the approval time. Callers
// decide idempotency; this is the raw transition write.
func (a *TopicAdapter) Publish(ctx context.Context, id string) error {
	err := a.client.Update(ctx, rtdb.Join(topicsPath, id), map[string]any{
		"status":     domain.StatusPublished,
		"approvedAt": a.now(),
	})
	if err == rtdb.ErrNotFound {
		return errTopicNotFound
	}
	return err
}

// Delete removes a topic and then its comment partition. The two removals
// are independent requests: when the second fails after the first succeeded
// the comments are orphaned, which is accepted rather than made atomic.
func (a *TopicAdapter) Delete(ctx context.Context, id string) error {
	if _, ok := a.Topic(id); !ok {
		return errTopicNotFound
	}
	if err := a.client.Delete(ctx, rtdb.Join(topicsPath, id)); err != nil {
		return err
	}
	if err := a.client.Delete(ctx, rtdb.Join(commentsPath, id)); err != nil {
		logger.Log.Error("topic removed but comment cleanup failed", "topic", id, "error", err)
	}
	return nil
}

func sortByCreatedAtDesc(topics []domain.Topic) {
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].CreatedAt != topics[j].CreatedAt {
			return topics[i].CreatedAt > topics[j].CreatedAt
		}
		return topics[i].Id < topics[j].Id
	})
}

// splitKey splits a comment-tree record key into topic and comment ids.
func splitKey(key string) (topicID, commentID string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
