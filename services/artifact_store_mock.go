package services

import (
	"fmt"
	"sync"
)

// MockArtifactStore is an in-memory ArtifactStore for testing
type MockArtifactStore struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMockArtifactStore creates a new mock artifact store
func NewMockArtifactStore() *MockArtifactStore {
	return &MockArtifactStore{
		objects: make(map[string][]byte),
	}
}

// PutArtifact stores classifier artifact bytes in mock storage
func (m *MockArtifactStore) PutArtifact(data []byte) {
	m.mu.Lock()
	m.objects["artifact"] = data
	m.mu.Unlock()
}

// PutMetadata stores metadata bytes in mock storage
func (m *MockArtifactStore) PutMetadata(data []byte) {
	m.mu.Lock()
	m.objects["metadata"] = data
	m.mu.Unlock()
}

// FetchArtifact returns the stored artifact or an error when none was put
func (m *MockArtifactStore) FetchArtifact() ([]byte, error) {
	return m.get("artifact")
}

// FetchMetadata returns the stored metadata or an error when none was put
func (m *MockArtifactStore) FetchMetadata() ([]byte, error) {
	return m.get("metadata")
}

func (m *MockArtifactStore) get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found in mock store: %s", key)
	}
	return data, nil
}

// Clear removes everything from mock storage
func (m *MockArtifactStore) Clear() {
	m.mu.Lock()
	m.objects = make(map[string][]byte)
	m.mu.Unlock()
}
