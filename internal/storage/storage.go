// Package storage provides the durable half of the snapshot cache: a
// session-scoped string key-value store.
package storage

import (
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned by Get for unknown keys.
	ErrNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded is returned by Set when the store is full.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// Storage is a session-scoped key-value store.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Memory is an in-process Storage with an optional byte quota, mirroring
// browser session storage limits.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	size  int
	quota int
}

// NewMemory creates a memory store. quota <= 0 means unlimited.
func NewMemory(quota int) *Memory {
	return &Memory{data: make(map[string]string), quota: quota}
}

// Get implements Storage.
func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Storage. A write that would exceed the quota is rejected and
// leaves the previous value in place.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.size + len(key) + len(value)
	if old, ok := m.data[key]; ok {
		next -= len(key) + len(old)
	}
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}

	m.data[key] = value
	m.size = next
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
