package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/meteolab/weather-forecast-service/internal/weather"
)

// Memory is a concurrency-safe in-memory implementation of the weather.Store
// contract. It backs the memory store driver (credential-less development)
// and the test suite.
type Memory struct {
	mu   sync.RWMutex
	docs []weather.StoredQuery

	// maxDocs caps retained documents; <= 0 means unlimited.
	maxDocs int
}

// NewMemory creates a Memory store with an optional retention cap.
func NewMemory(maxDocs int) *Memory {
	return &Memory{maxDocs: maxDocs}
}

// Save appends a document and enforces retention.
func (m *Memory) Save(_ context.Context, doc weather.StoredQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs = append(m.docs, doc)

	if m.maxDocs > 0 && len(m.docs) > m.maxDocs {
		over := len(m.docs) - m.maxDocs
		m.docs = m.docs[over:]
	}
	return nil
}

// History mirrors the Mongo adapter's semantics: case-insensitive substring
// city match, current-weather documents only, most recent first, capped at
// limit.
func (m *Memory) History(_ context.Context, city string, limit int64) ([]weather.StoredQuery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pattern := strings.ToLower(city)

	matched := make([]weather.StoredQuery, 0, len(m.docs))
	for _, doc := range m.docs {
		if doc.Type != weather.QueryTypeCurrent {
			continue
		}
		if !strings.Contains(strings.ToLower(doc.City), pattern) {
			continue
		}
		matched = append(matched, doc)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].QueryTime.After(matched[j].QueryTime)
	})

	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
