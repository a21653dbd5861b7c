package memstore

import (
	"context"
	"sync"
)

// Store 是一个线程安全的内存 KV 实现，仅用于开发/测试场景。
type Store struct {
	mu sync.RWMutex
	m  map[string]string
}

// New 创建内存存储。
func New() *Store { return &Store{m: map[string]string{}} }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
