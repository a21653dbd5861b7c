package tracker

import (
	"context"
	"sort"
	"sync"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/storage"
)

// Manager 按任务 ID 管理跟踪器，保证同一任务最多一个轮询者。
// 用于 data-job-id 自动挂载：多个页面元素引用同一任务时共享跟踪器。
type Manager struct {
	api   client.JobsAPI
	store storage.KV
	opts  []Option

	mu      sync.RWMutex
	running map[string]*Tracker
}

// NewManager 构造；opts 作为每个跟踪器的公共可选项。
func NewManager(api client.JobsAPI, store storage.KV, opts ...Option) *Manager {
	return &Manager{api: api, store: store, opts: opts, running: map[string]*Tracker{}}
}

// Attach 为任务创建并启动跟踪器；已存在时直接返回（created=false）。
// 跟踪器进入终态或其 ctx 结束后会被自动摘除，之后可重新挂载。
func (m *Manager) Attach(ctx context.Context, jobID string, opts ...Option) (*Tracker, bool, error) {
	m.mu.Lock()
	if t, ok := m.running[jobID]; ok {
		m.mu.Unlock()
		return t, false, nil
	}
	var t *Tracker
	all := make([]Option, 0, len(m.opts)+len(opts)+1)
	all = append(all, m.opts...)
	all = append(all, opts...)
	all = append(all, withOnFinish(func() { m.forget(jobID, t) }))
	t = New(m.api, m.store, jobID, all...)
	m.running[jobID] = t
	m.mu.Unlock()

	if err := t.Start(ctx); err != nil {
		m.forget(jobID, t)
		return nil, false, err
	}
	return t, true, nil
}

// Detach 停止并移除跟踪器。
func (m *Manager) Detach(ctx context.Context, jobID string) bool {
	m.mu.Lock()
	t, ok := m.running[jobID]
	delete(m.running, jobID)
	m.mu.Unlock()
	if ok {
		t.Stop(ctx)
	}
	return ok
}

// Get 查询跟踪器。
func (m *Manager) Get(jobID string) (*Tracker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.running[jobID]
	return t, ok
}

// IDs 返回当前跟踪中的任务 ID（有序）。
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// StopAll 停止全部跟踪器。
func (m *Manager) StopAll(ctx context.Context) {
	for _, id := range m.IDs() {
		m.Detach(ctx, id)
	}
}

func (m *Manager) forget(jobID string, t *Tracker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.running[jobID]; ok && cur == t {
		delete(m.running, jobID)
	}
}
