package history

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound - в истории сессии нет набора с таким индексом
var ErrNotFound = errors.New("history: набор изменений не найден")

// Store хранит наборы изменений по сессиям
type Store interface {
	// Append добавляет набор в конец и возвращает новую длину истории
	Append(ctx context.Context, sessionID string, cs *ChangeSet) (int, error)
	Get(ctx context.Context, sessionID string, index int) (*ChangeSet, error)
	Len(ctx context.Context, sessionID string) (int, error)
	// Truncate оставляет первые n наборов
	Truncate(ctx context.Context, sessionID string, n int) error
	// Cursor - число примененных наборов; без сохраненного значения равен Len
	Cursor(ctx context.Context, sessionID string) (int, error)
	SetCursor(ctx context.Context, sessionID string, n int) error
}

// MemoryStore - хранилище истории в памяти процесса
type MemoryStore struct {
	mu      sync.RWMutex
	sets    map[string][]*ChangeSet
	cursors map[string]int
}

// NewMemoryStore создаёт пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string][]*ChangeSet), cursors: make(map[string]int)}
}

func (m *MemoryStore) Append(ctx context.Context, sessionID string, cs *ChangeSet) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[sessionID] = append(m.sets[sessionID], cs)
	return len(m.sets[sessionID]), nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string, index int) (*ChangeSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sets := m.sets[sessionID]
	if index < 0 || index >= len(sets) {
		return nil, ErrNotFound
	}
	return sets[index], nil
}

func (m *MemoryStore) Len(ctx context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sets[sessionID]), nil
}

func (m *MemoryStore) Truncate(ctx context.Context, sessionID string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sets := m.sets[sessionID]
	if n < 0 {
		n = 0
	}
	if n < len(sets) {
		m.sets[sessionID] = sets[:n]
	}
	return nil
}

func (m *MemoryStore) Cursor(ctx context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.cursors[sessionID]; ok {
		return n, nil
	}
	return len(m.sets[sessionID]), nil
}

func (m *MemoryStore) SetCursor(ctx context.Context, sessionID string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[sessionID] = n
	return nil
}
