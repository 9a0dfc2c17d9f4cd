package store

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agora-dev/agora/internal/domain"
	internal_errors "github.com/agora-dev/agora/internal/errors"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/rtdb"
)

// ErrEmptyComment is the validation failure for a blank comment; nothing is
// sent to the store.
var ErrEmptyComment = &internal_errors.ErrorWithStatusCode{Message: "comment cannot be empty", StatusCode: http.StatusBadRequest}

// ErrAppendInFlight is returned when an append is attempted while a previous
// one is still outstanding. The attempt is dropped, not queued.
var ErrAppendInFlight = &internal_errors.ErrorWithStatusCode{Message: "a comment is already being sent", StatusCode: http.StatusConflict}

// CommentAdapter maintains the projection of a single topic's comment
// partition. Changing the topic tears the previous subscription down before
// the new one opens, so callbacks never leak and state never bleeds across
// topics.
type CommentAdapter struct {
	client rtdb.Client
	now    func() int64

	// setMu serializes SetTopic and Close end to end; interleaved calls
	// could otherwise overwrite each other's cancel and leak the earlier
	// subscription.
	setMu sync.Mutex

	mu       sync.RWMutex
	topicID  string
	comments map[string]domain.Comment
	version  uint64
	cancel   func()

	appending atomic.Bool
	onChange  func()
}

func NewCommentAdapter(client rtdb.Client) *CommentAdapter {
	return &CommentAdapter{
		client:   client,
		now:      func() int64 { return time.Now().UnixMilli() },
		comments: make(map[string]domain.Comment),
	}
}

// OnChange registers a callback fired after every applied snapshot.
// Must be set before SetTopic.
func (c *CommentAdapter) OnChange(fn func()) {
	c.onChange = fn
}

// SetTopic points the adapter at a topic's comment partition, loading its
// current state and following it live.
func (c *CommentAdapter) SetTopic(ctx context.Context, topicID string) error {
	c.setMu.Lock()
	defer c.setMu.Unlock()

	c.mu.Lock()
	if c.topicID == topicID {
		c.mu.Unlock()
		return nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.topicID = topicID
	c.comments = make(map[string]domain.Comment)
	c.version = 0
	c.mu.Unlock()

	// Subscribe before the initial read so a write landing between the two
	// still produces a snapshot; apply drops whichever of the overlapping
	// pair arrives stale.
	path := rtdb.Join(commentsPath, topicID)
	ch, cancel := c.client.Subscribe(path)

	snap, err := c.client.Get(ctx, path)
	if err != nil {
		cancel()
		c.mu.Lock()
		c.topicID = ""
		c.mu.Unlock()
		return err
	}
	c.apply(topicID, snap)

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		for snap := range ch {
			c.apply(topicID, snap)
		}
	}()
	return nil
}

// Close tears down the current subscription.
func (c *CommentAdapter) Close() {
	c.setMu.Lock()
	defer c.setMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// apply replaces the projection. Snapshots for a topic the adapter no longer
// follows, and snapshots older than the applied one, are discarded.
func (c *CommentAdapter) apply(topicID string, snap rtdb.Snapshot) {
	c.mu.Lock()
	if c.topicID != topicID || (snap.Version <= c.version && c.version != 0) {
		c.mu.Unlock()
		return
	}
	c.version = snap.Version

	comments := make(map[string]domain.Comment, len(snap.Records))
	for id, raw := range snap.Records {
		var cm domain.Comment
		if err := json.Unmarshal(raw, &cm); err != nil {
			logger.Log.Warn("skipping malformed comment record", "id", id, "error", err)
			continue
		}
		cm.Id = id
		comments[id] = cm
	}
	c.comments = comments
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange()
	}
}

// Comments returns the projection sorted most recent first.
func (c *CommentAdapter) Comments() []domain.Comment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Comment, 0, len(c.comments))
	for _, cm := range c.comments {
		out = append(out, cm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].Id < out[j].Id
	})
	return out
}

// Append stores a new comment carrying a snapshot of the author's identity,
// or the anonymous sentinels when there is none. Only one append may be in
// flight per adapter instance; a second attempt is refused outright.
func (c *CommentAdapter) Append(ctx context.Context, text string, identity *domain.Identity) error {
	text = sanitize(text)
	if text == "" {
		return ErrEmptyComment
	}

	if !c.appending.CompareAndSwap(false, true) {
		return ErrAppendInFlight
	}
	defer c.appending.Store(false)

	c.mu.RLock()
	topicID := c.topicID
	c.mu.RUnlock()

	comment := domain.Comment{
		Text:      text,
		Timestamp: c.now(),
		UserId:    domain.AnonymousUserId,
		UserEmail: domain.AnonymousName,
		UserName:  domain.AnonymousName,
	}
	if identity != nil {
		comment.UserId = identity.UID
		comment.UserEmail = identity.Email
		comment.UserName = displayName(identity)
	}

	_, err := c.client.Push(ctx, rtdb.Join(commentsPath, topicID), comment)
	return err
}

// Delete removes one comment by id. Role enforcement lives at the view
// layer; the adapter issues the removal for whoever asks.
func (c *CommentAdapter) Delete(ctx context.Context, commentID string) error {
	c.mu.RLock()
	topicID := c.topicID
	c.mu.RUnlock()

	return c.client.Delete(ctx, rtdb.Join(commentsPath, topicID, commentID))
}

func displayName(identity *domain.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	if at := strings.IndexByte(identity.Email, '@'); at > 0 {
		return identity.Email[:at]
	}
	return domain.AnonymousName
}

// CommentAdapters hands out one live adapter per topic, so every thread view
// of the same topic shares a single subscription.
type CommentAdapters struct {
	client   rtdb.Client
	onChange func()

	mu       sync.Mutex
	adapters map[string]*CommentAdapter
}

func NewCommentAdapters(client rtdb.Client, onChange func()) *CommentAdapters {
	return &CommentAdapters{
		client:   client,
		onChange: onChange,
		adapters: make(map[string]*CommentAdapter),
	}
}

func (r *CommentAdapters) ForTopic(ctx context.Context, topicID string) (*CommentAdapter, error) {
	r.mu.Lock()
	adapter, ok := r.adapters[topicID]
	if !ok {
		adapter = NewCommentAdapter(r.client)
		if r.onChange != nil {
			adapter.OnChange(r.onChange)
		}
		r.adapters[topicID] = adapter
	}
	r.mu.Unlock()

	if err := adapter.SetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return adapter, nil
}

// DropTopic closes and forgets the adapter of a removed topic.
func (r *CommentAdapters) DropTopic(topicID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if adapter, ok := r.adapters[topicID]; ok {
		adapter.Close()
		delete(r.adapters, topicID)
	}
}

func (r *CommentAdapters) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, adapter := range r.adapters {
		adapter.Close()
		delete(r.adapters, id)
	}
}
