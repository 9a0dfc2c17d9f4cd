// Package rtdb is the client for the hosted realtime tree store.
//
// The store is a hierarchical key-value tree addressed by slash-separated
// paths ("topics/{id}", "comments/{topicId}/{commentId}"). Reads are
// subscription-based: every write under a subscribed path makes the store push
// a complete snapshot of that subtree, never a delta. Writes are last-write-wins
// per path; the store performs no validation of its own.
package rtdb

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned by Update when no record exists at the target path.
var ErrNotFound = errors.New("rtdb: no record at path")

// Snapshot is a complete, point-in-time copy of one subtree.
//
// Records are keyed by path relative to Path. Version increases monotonically
// with every write to the store; a consumer must discard any snapshot whose
// Version is not greater than the last one it applied, since delivery order
// is not guaranteed across goroutines.
type Snapshot struct {
	Path    string
	Version uint64
	Records map[string]json.RawMessage
}

// Client is the set of store operations the application consumes.
type Client interface {
	// Get returns the current snapshot of the subtree at path.
	Get(ctx context.Context, path string) (Snapshot, error)

	// Push appends value as a new child of path under a generated id and
	// returns that id.
	Push(ctx context.Context, path string, value any) (string, error)

	// Update merges fields into the record at path. The record must exist.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Delete removes the record at path and everything beneath it.
	// Deleting a path that holds nothing is a no-op.
	Delete(ctx context.Context, path string) error

	// Subscribe opens a live feed of snapshots for the subtree at path.
	// The first snapshot arrives after the next write; use Get for the
	// initial state. The returned func tears the subscription down and
	// must be called before the owning component goes away.
	Subscribe(path string) (<-chan Snapshot, func())
}

// Join builds a store path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// within reports whether changed lies at or under base.
func within(base, changed string) bool {
	return changed == base || strings.HasPrefix(changed, base+"/")
}

// rel strips base from a full path, yielding the snapshot record key.
func rel(base, full string) string {
	return strings.TrimPrefix(full, base+"/")
}

// topSegment returns the first path segment, which names the collection a
// pub/sub channel is keyed by.
func topSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
