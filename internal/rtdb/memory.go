package rtdb

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process store with the same contract as the hosted one.
// It backs tests and the dev-mode backend.
type Memory struct {
	mu      sync.Mutex
	records map[string]json.RawMessage // full path -> record
	version uint64
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	path string
	ch   chan Snapshot
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]json.RawMessage),
		subs:    make(map[int]*memorySub),
	}
}

func (m *Memory) Get(_ context.Context, path string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(path), nil
}

func (m *Memory) Push(_ context.Context, path string, value any) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	full := path + "/" + id
	m.records[full] = b
	m.version++
	m.notifyLocked(full)
	return id, nil
}

func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[path]
	if !ok {
		return ErrNotFound
	}

	var merged map[string]any
	if err := json.Unmarshal(existing, &merged); err != nil {
		return err
	}
	for k, v := range fields {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}

	m.records[path] = b
	m.version++
	m.notifyLocked(path)
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := false
	for full := range m.records {
		if within(path, full) {
			delete(m.records, full)
			removed = true
		}
	}
	if removed {
		m.version++
		m.notifyLocked(path)
	}
	return nil
}

func (m *Memory) Subscribe(path string) (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	sub := &memorySub{path: path, ch: make(chan Snapshot, 1)}
	m.subs[id] = sub

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if s, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// snapshotLocked assembles the current subtree at path.
func (m *Memory) snapshotLocked(path string) Snapshot {
	snap := Snapshot{
		Path:    path,
		Version: m.version,
		Records: make(map[string]json.RawMessage),
	}
	for full, b := range m.records {
		if within(path, full) && full != path {
			snap.Records[rel(path, full)] = b
		}
	}
	return snap
}

// notifyLocked pushes a fresh snapshot to every subscriber whose subtree
// contains the changed path. Delivery is latest-wins: an unread pending
// snapshot is superseded, not queued behind.
func (m *Memory) notifyLocked(changed string) {
	for _, sub := range m.subs {
		if !within(sub.path, changed) {
			continue
		}
		// Sends only happen while holding m.mu, so after the drain the
		// buffered slot is guaranteed free.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- m.snapshotLocked(sub.path)
	}
}
