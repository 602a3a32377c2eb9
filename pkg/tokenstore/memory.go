// Package tokenstore provides ready-made Token Store implementations for
// the shelf SDK. Each store instance is bound to exactly one identity at
// construction; the SDK never passes identity through the interface.
package tokenstore

import (
	"context"
	"sync"

	"github.com/shelfhq/shelf-go/pkg/shelf"
)

// Memory is an in-process Token Store. It shares tokens between sessions
// in one process but not across processes; use Redis for that.
type Memory struct {
	mu   sync.RWMutex
	info *shelf.TokenInfo
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Read(ctx context.Context) (*shelf.TokenInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.info == nil {
		return nil, nil
	}
	cp := *m.info
	return &cp, nil
}

func (m *Memory) Write(ctx context.Context, info *shelf.TokenInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *info
	m.info = &cp
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info = nil
	return nil
}
