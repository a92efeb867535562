// Package store persists finished match results.
package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MatchResult is the record written once per finished game.
type MatchResult struct {
	MatchID    string
	PlayerIDs  []string
	WinnerID   string
	Draw       bool
	Turns      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store records match results. Implementations must be safe for concurrent
// use: every match goroutine writes through the same store.
type Store interface {
	SaveResult(ctx context.Context, result MatchResult) error
	RecentResults(ctx context.Context, limit int) ([]MatchResult, error)
	Close()
}

// Memory is an in-process Store for servers running without a database.
type Memory struct {
	mu      sync.Mutex
	results []MatchResult
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// SaveResult implements Store.
func (m *Memory) SaveResult(ctx context.Context, result MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return nil
}

// RecentResults implements Store, newest first.
func (m *Memory) RecentResults(ctx context.Context, limit int) ([]MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := append([]MatchResult(nil), m.results...)
	sort.Slice(results, func(i, j int) bool {
		return results[i].FinishedAt.After(results[j].FinishedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close implements Store.
func (m *Memory) Close() {}
