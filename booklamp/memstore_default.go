package booklamp

import (
	"context"
	"sync"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
)

// inMemoryStore 是包内置的线程安全内存存储，默认与测试场景使用。
type inMemoryStore struct {
	mu sync.RWMutex
	m  map[string]*client.Job
}

func newDefaultMemStore() JobStore { return &inMemoryStore{m: map[string]*client.Job{}} }

func (s *inMemoryStore) Upsert(ctx context.Context, job *client.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.m[job.ID] = &cp
	return nil
}

func (s *inMemoryStore) GetJob(ctx context.Context, id string) (*client.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if j, ok := s.m[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, client.ErrJobNotFound
}

func (s *inMemoryStore) PruneFinished(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.m {
		if j.Status.IsTerminal() && j.CompletedAt != nil && j.CompletedAt.Before(before) {
			delete(s.m, id)
			n++
		}
	}
	return n, nil
}
