package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/rtdb"
)

func followedAdapter(t *testing.T, topicID string) (*CommentAdapter, *rtdb.Memory) {
	t.Helper()
	mem := rtdb.NewMemory()
	c := NewCommentAdapter(mem)
	require.NoError(t, c.SetTopic(context.Background(), topicID))
	t.Cleanup(c.Close)
	return c, mem
}

func waitComments(t *testing.T, c *CommentAdapter, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(c.Comments()) == want
	}, time.Second, 5*time.Millisecond)
}

func TestCommentsSortMostRecentFirst(t *testing.T) {
	c, mem := followedAdapter(t, "t1")
	ctx := context.Background()

	for _, ts := range []int64{100, 300, 200} {
		_, err := mem.Push(ctx, "comments/t1", domain.Comment{Text: "at", Timestamp: ts})
		require.NoError(t, err)
	}
	waitComments(t, c, 3)

	got := make([]int64, 0, 3)
	for _, cm := range c.Comments() {
		got = append(got, cm.Timestamp)
	}
	assert.Equal(t, []int64{300, 200, 100}, got)
}

func TestAppendRejectsBlankText(t *testing.T) {
	mock := &mockClient{}
	c := NewCommentAdapter(mock)

	err := c.Append(context.Background(), "  \n\t ", nil)

	assert.ErrorIs(t, err, ErrEmptyComment)
	assert.Zero(t, mock.pushCalls.Load())
}

func TestAppendAnonymousSentinels(t *testing.T) {
	c, mem := followedAdapter(t, "t1")
	ctx := context.Background()

	require.NoError(t, c.Append(ctx, "drive-by remark", nil))

	snap, err := mem.Get(ctx, "comments/t1")
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	for _, raw := range snap.Records {
		var cm domain.Comment
		require.NoError(t, json.Unmarshal(raw, &cm))
		assert.Equal(t, domain.AnonymousUserId, cm.UserId)
		assert.Equal(t, domain.AnonymousName, cm.UserName)
		assert.Equal(t, domain.AnonymousName, cm.UserEmail)
		assert.NotZero(t, cm.Timestamp)
	}
}

func TestAppendSnapshotsIdentity(t *testing.T) {
	tests := []struct {
		name     string
		identity domain.Identity
		wantName string
	}{
		{
			name:     "display name preferred",
			identity: domain.Identity{UID: "u1", Email: "ada@example.com", Name: "Ada"},
			wantName: "Ada",
		},
		{
			name:     "email local part when no name",
			identity: domain.Identity{UID: "u2", Email: "grace@example.com"},
			wantName: "grace",
		},
		{
			name:     "anonymous label when nothing usable",
			identity: domain.Identity{UID: "u3"},
			wantName: domain.AnonymousName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mem := followedAdapter(t, "t1")
			ctx := context.Background()

			require.NoError(t, c.Append(ctx, "hello", &tt.identity))

			snap, err := mem.Get(ctx, "comments/t1")
			require.NoError(t, err)
			require.Len(t, snap.Records, 1)
			for _, raw := range snap.Records {
				var cm domain.Comment
				require.NoError(t, json.Unmarshal(raw, &cm))
				assert.Equal(t, tt.identity.UID, cm.UserId)
				assert.Equal(t, tt.wantName, cm.UserName)
			}
		})
	}
}

func TestAppendRefusesConcurrentSend(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var enteredOnce sync.Once
	mock := &mockClient{
		pushFunc: func(context.Context, string, any) (string, error) {
			enteredOnce.Do(func() { close(entered) })
			<-release
			return "id", nil
		},
	}
	c := NewCommentAdapter(mock)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = c.Append(context.Background(), "slow one", nil)
	}()
	<-entered

	err := c.Append(context.Background(), "too eager", nil)
	assert.ErrorIs(t, err, ErrAppendInFlight)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, int32(1), mock.pushCalls.Load(), "refused attempt is dropped, not queued")

	// Once the first send completes the gate reopens.
	require.NoError(t, c.Append(context.Background(), "later", nil))
}

func TestSetTopicReplacesProjection(t *testing.T) {
	c, mem := followedAdapter(t, "t1")
	ctx := context.Background()

	_, err := mem.Push(ctx, "comments/t1", domain.Comment{Text: "first topic", Timestamp: 1})
	require.NoError(t, err)
	waitComments(t, c, 1)

	require.NoError(t, c.SetTopic(ctx, "t2"))
	assert.Empty(t, c.Comments(), "switching topics clears the previous thread")

	_, err = mem.Push(ctx, "comments/t2", domain.Comment{Text: "second topic", Timestamp: 2})
	require.NoError(t, err)
	waitComments(t, c, 1)

	// Writes to the abandoned topic must never reach the new projection.
	_, err = mem.Push(ctx, "comments/t1", domain.Comment{Text: "ghost", Timestamp: 3})
	require.NoError(t, err)
	_, err = mem.Push(ctx, "comments/t2", domain.Comment{Text: "still here", Timestamp: 4})
	require.NoError(t, err)
	waitComments(t, c, 2)
	for _, cm := range c.Comments() {
		assert.NotEqual(t, "ghost", cm.Text)
	}
}

func TestSetTopicSubscribesBeforeInitialRead(t *testing.T) {
	oc := &orderClient{}
	c := NewCommentAdapter(oc)

	require.NoError(t, c.SetTopic(context.Background(), "t1"))
	t.Cleanup(c.Close)

	// A comment pushed between the initial read and the subscription opening
	// would never be delivered, so the subscription must open first.
	assert.Equal(t, []string{"subscribe comments/t1", "get comments/t1"}, oc.calls)
}

// subCountClient tracks how many subscriptions are currently open.
type subCountClient struct {
	mockClient

	active atomic.Int32
}

func (s *subCountClient) Subscribe(string) (<-chan rtdb.Snapshot, func()) {
	s.active.Add(1)
	ch := make(chan rtdb.Snapshot)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.active.Add(-1)
			close(ch)
		})
	}
}

func TestSetTopicConcurrentSwitchesLeakNoSubscriptions(t *testing.T) {
	client := &subCountClient{}
	c := NewCommentAdapter(client)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		topic := fmt.Sprintf("t%d", i%3)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.SetTopic(context.Background(), topic))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), client.active.Load(), "every switch must cancel the previous subscription")
	c.Close()
	assert.Zero(t, client.active.Load())
}

func TestSetTopicSameTopicKeepsSubscription(t *testing.T) {
	c, mem := followedAdapter(t, "t1")
	ctx := context.Background()

	_, err := mem.Push(ctx, "comments/t1", domain.Comment{Text: "kept", Timestamp: 1})
	require.NoError(t, err)
	waitComments(t, c, 1)

	require.NoError(t, c.SetTopic(ctx, "t1"))
	assert.Len(t, c.Comments(), 1, "re-pointing at the same topic is a no-op")
}

func TestDeleteComment(t *testing.T) {
	c, mem := followedAdapter(t, "t1")
	ctx := context.Background()

	id, err := mem.Push(ctx, "comments/t1", domain.Comment{Text: "oops", Timestamp: 1})
	require.NoError(t, err)
	waitComments(t, c, 1)

	require.NoError(t, c.Delete(ctx, id))
	waitComments(t, c, 0)
}

func TestCommentAdaptersShareAndDrop(t *testing.T) {
	mem := rtdb.NewMemory()
	reg := NewCommentAdapters(mem, nil)
	t.Cleanup(reg.Close)
	ctx := context.Background()

	a1, err := reg.ForTopic(ctx, "t1")
	require.NoError(t, err)
	a2, err := reg.ForTopic(ctx, "t1")
	require.NoError(t, err)
	assert.Same(t, a1, a2, "one adapter per topic")

	other, err := reg.ForTopic(ctx, "t2")
	require.NoError(t, err)
	assert.NotSame(t, a1, other)

	reg.DropTopic("t1")
	replacement, err := reg.ForTopic(ctx, "t1")
	require.NoError(t, err)
	assert.NotSame(t, a1, replacement, "dropped topics get a fresh adapter")
}
