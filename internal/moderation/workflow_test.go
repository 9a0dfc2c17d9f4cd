package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/rtdb"
	"github.com/agora-dev/agora/internal/store"
)

type mockStore struct {
	topicFunc   func(id string) (domain.Topic, bool)
	createFunc  func(ctx context.Context, draft domain.TopicDraft, status domain.TopicStatus) (string, error)
	updateFunc  func(ctx context.Context, id string, changes domain.TopicChanges) error
	publishFunc func(ctx context.Context, id string) error
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockStore) Topic(id string) (domain.Topic, bool) { return m.topicFunc(id) }
func (m *mockStore) Create(ctx context.Context, draft domain.TopicDraft, status domain.TopicStatus) (string, error) {
	return m.createFunc(ctx, draft, status)
}
func (m *mockStore) Update(ctx context.Context, id string, changes domain.TopicChanges) error {
	return m.updateFunc(ctx, id, changes)
}
func (m *mockStore) Publish(ctx context.Context, id string) error { return m.publishFunc(ctx, id) }
func (m *mockStore) Delete(ctx context.Context, id string) error  { return m.deleteFunc(ctx, id) }

func TestSubmitAlwaysCreatesPending(t *testing.T) {
	var gotStatus domain.TopicStatus
	var gotDraft domain.TopicDraft
	mock := &mockStore{
		createFunc: func(_ context.Context, draft domain.TopicDraft, status domain.TopicStatus) (string, error) {
			gotDraft = draft
			gotStatus = status
			return "t1", nil
		},
	}

	id, err := New(mock).Submit(context.Background(), "Rust vs Go", "fight")

	require.NoError(t, err)
	assert.Equal(t, "t1", id)
	assert.Equal(t, domain.StatusPending, gotStatus)
	assert.Equal(t, "Rust vs Go", gotDraft.Title)
	assert.Equal(t, "fight", gotDraft.Description)
	assert.Empty(t, gotDraft.Category, "public submissions take the default category")
}

func TestCreatePublishedGoesLiveDirectly(t *testing.T) {
	var gotStatus domain.TopicStatus
	mock := &mockStore{
		createFunc: func(_ context.Context, _ domain.TopicDraft, status domain.TopicStatus) (string, error) {
			gotStatus = status
			return "t1", nil
		},
	}

	_, err := New(mock).CreatePublished(context.Background(), domain.TopicDraft{Title: "announcement"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, gotStatus)
}

func TestApprove(t *testing.T) {
	tests := []struct {
		name        string
		topic       domain.Topic
		found       bool
		wantPublish bool
	}{
		{
			name:        "pending topic is published",
			topic:       domain.Topic{Status: domain.StatusPending},
			found:       true,
			wantPublish: true,
		},
		{
			name:        "published topic is left alone",
			topic:       domain.Topic{Status: domain.StatusPublished},
			found:       true,
			wantPublish: false,
		},
		{
			name:        "legacy topic without status counts as published",
			topic:       domain.Topic{},
			found:       true,
			wantPublish: false,
		},
		{
			name:        "unknown id falls through for the not-found error",
			found:       false,
			wantPublish: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			published := false
			mock := &mockStore{
				topicFunc:   func(string) (domain.Topic, bool) { return tt.topic, tt.found },
				publishFunc: func(context.Context, string) error { published = true; return nil },
			}

			require.NoError(t, New(mock).Approve(context.Background(), "t1"))
			assert.Equal(t, tt.wantPublish, published)
		})
	}
}

func TestRejectAndDeleteRemove(t *testing.T) {
	var deleted []string
	mock := &mockStore{
		deleteFunc: func(_ context.Context, id string) error { deleted = append(deleted, id); return nil },
	}
	w := New(mock)

	require.NoError(t, w.Reject(context.Background(), "t1"))
	require.NoError(t, w.Delete(context.Background(), "t2"))
	assert.Equal(t, []string{"t1", "t2"}, deleted)
}

func TestEditDelegates(t *testing.T) {
	var gotChanges domain.TopicChanges
	mock := &mockStore{
		updateFunc: func(_ context.Context, _ string, changes domain.TopicChanges) error {
			gotChanges = changes
			return nil
		},
	}

	require.NoError(t, New(mock).Edit(context.Background(), "t1", domain.TopicChanges{Title: "renamed"}))
	assert.Equal(t, "renamed", gotChanges.Title)
}

// TestSubmissionLifecycle walks a submission through the whole pipeline
// against a live projection.
func TestSubmissionLifecycle(t *testing.T) {
	mem := rtdb.NewMemory()
	adapter := store.NewTopicAdapter(mem)
	require.NoError(t, adapter.Start(context.Background()))
	t.Cleanup(adapter.Close)
	w := New(adapter)
	ctx := context.Background()

	id, err := w.Submit(ctx, "Rust vs Go", "which one for services")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(adapter.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, adapter.Published(), "pending submissions are invisible publicly")
	pending := adapter.Pending()[0]
	assert.Equal(t, domain.DefaultCategory, pending.Category)
	assert.NotZero(t, pending.CreatedAt)

	require.NoError(t, w.Approve(ctx, id))
	require.Eventually(t, func() bool { return len(adapter.Published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, adapter.Pending())

	live, ok := adapter.Topic(id)
	require.True(t, ok)
	assert.True(t, live.IsPublished())
	assert.NotZero(t, live.ApprovedAt)

	// Approving again is a no-op, never an error.
	require.NoError(t, w.Approve(ctx, id))

	require.NoError(t, w.Delete(ctx, id))
	require.Eventually(t, func() bool { return len(adapter.Published()) == 0 }, time.Second, 5*time.Millisecond)
}
