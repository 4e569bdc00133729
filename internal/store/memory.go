package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is the in-process store used by tests and the default serve mode.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Appointment
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, rows: make(map[int64]Appointment)}
}

func (m *Memory) EnsureSchema(_ context.Context) error { return nil }

func (m *Memory) Create(_ context.Context, a Appointment) (Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID
	m.nextID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.rows[a.ID] = a
	return a, nil
}

func (m *Memory) List(_ context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Appointment, 0, len(m.rows))
	for _, a := range m.rows {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Clear(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.rows))
	m.rows = make(map[int64]Appointment)
	return n, nil
}

func (m *Memory) Close() error { return nil }
