package persist

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"willvault/api/internal/will"
)

// MemorySnapshots is a process-local SnapshotStore.
type MemorySnapshots struct {
	mu    sync.Mutex
	items map[string]will.Snapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{items: make(map[string]will.Snapshot)}
}

func (m *MemorySnapshots) SaveSnapshot(_ context.Context, sessionID string, snap will.Snapshot, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Document = snap.Document.Clone()
	m.items[sessionID] = snap
	return nil
}

func (m *MemorySnapshots) LoadSnapshot(_ context.Context, sessionID string) (will.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.items[sessionID]
	if !ok {
		return will.Snapshot{}, false, nil
	}
	snap.Document = snap.Document.Clone()
	return snap, true, nil
}

func (m *MemorySnapshots) DeleteSnapshot(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	return nil
}

func (m *MemorySnapshots) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// MemoryDocuments is a process-local DocumentStore.
type MemoryDocuments struct {
	mu    sync.Mutex
	items map[string]will.Document
	now   func() time.Time
}

func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{items: make(map[string]will.Document), now: time.Now}
}

func (m *MemoryDocuments) SaveDocument(_ context.Context, doc will.Document, ownerID string) (will.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	doc = doc.Clone()
	if existing, ok := m.items[ownerID]; ok {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt == nil {
		doc.CreatedAt = &now
	}
	if doc.Status == "" {
		doc.Status = will.StatusDraft
	}
	doc.UserID = ownerID
	doc.UpdatedAt = &now
	m.items[ownerID] = doc
	return doc.Clone(), nil
}

func (m *MemoryDocuments) LoadDocument(_ context.Context, ownerID string) (will.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.items[ownerID]
	if !ok {
		return will.Document{}, false, nil
	}
	return doc.Clone(), true, nil
}
