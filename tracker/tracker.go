package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/logging"
	"github.com/mengeric/booklamp-jobs-go/storage"
)

// DefaultFailedMessage 服务端未给出错误信息时的兜底文案。
const DefaultFailedMessage = "Job failed"

// State 跟踪器状态：idle -> polling -> (completed | failed | not_found)。
// 终态对轮询而言等同 idle，可再次 Start。
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateNotFound  State = "not_found"
)

// JobFailedError 服务端报告任务失败。
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string { return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message) }

// Tracker 轮询单个任务的状态并在状态变化时回调。
type Tracker struct {
	api   client.JobsAPI
	store storage.KV
	jobID string
	opt   options

	lifeMu sync.Mutex // 串行化 Start/Stop，跨越存储 I/O
	mu     sync.Mutex // 仅保护以下状态字段
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New 构造跟踪器，不会自动启动。
func New(api client.JobsAPI, store storage.KV, jobID string, opts ...Option) *Tracker {
	done := make(chan struct{})
	close(done)
	return &Tracker{api: api, store: store, jobID: jobID, opt: newOptions(opts), state: StateIdle, done: done}
}

// JobID 返回跟踪的任务 ID。
func (t *Tracker) JobID() string { return t.jobID }

// AutoRefresh 完成后是否会触发刷新。
func (t *Tracker) AutoRefresh() bool { return t.opt.autoRefresh }

// State 返回当前状态。
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done 在本轮轮询协程退出后关闭；未启动时返回已关闭的通道。
func (t *Tracker) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Start 持久化任务 ID，立即检查一次，之后按周期检查。
// 功能：重复调用（轮询中）不产生效果；ctx 结束时回到 idle，保留持久化指针，可再次 Start。
// 异常：持久化失败时返回错误且不启动。
func (t *Tracker) Start(ctx context.Context) error {
	t.lifeMu.Lock()
	defer t.lifeMu.Unlock()
	if t.State() == StatePolling {
		return nil
	}
	if err := t.store.Set(ctx, storage.ActiveJobKey, t.jobID); err != nil {
		return fmt.Errorf("persist active job %s: %w", t.jobID, err)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.mu.Lock()
	t.cancel = cancel
	t.state = StatePolling
	t.done = done
	t.mu.Unlock()
	go t.loop(loopCtx, done)
	return nil
}

// Stop 停止后续检查并清除持久化的任务 ID，可重复调用。
// 已发出的请求不会被中断，其结果会被丢弃。
func (t *Tracker) Stop(ctx context.Context) {
	t.lifeMu.Lock()
	defer t.lifeMu.Unlock()
	t.mu.Lock()
	wasPolling := t.state == StatePolling
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if wasPolling {
		t.state = StateIdle
	}
	t.mu.Unlock()
	t.clearPointer(ctx)
	if wasPolling && t.opt.onFinish != nil {
		t.opt.onFinish()
	}
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer t.release(done)
	ticker := time.NewTicker(t.opt.interval)
	defer ticker.Stop()
	t.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.check(ctx)
		}
	}
}

// release 轮询协程退出时调用：若仍处于 polling，说明 Start 的 ctx 已结束，
// 回到 idle 以便再次 Start。指针保留，供下次恢复。
func (t *Tracker) release(done chan struct{}) {
	t.mu.Lock()
	if t.done != done || t.state != StatePolling {
		t.mu.Unlock()
		return
	}
	t.state = StateIdle
	t.cancel()
	t.cancel = nil
	t.mu.Unlock()
	if t.opt.onFinish != nil {
		t.opt.onFinish()
	}
}

// check 拉取一次任务状态并处理状态迁移。
func (t *Tracker) check(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	job, err := t.api.GetJob(context.WithoutCancel(ctx), t.jobID)
	if ctx.Err() != nil {
		return
	}
	if errors.Is(err, client.ErrJobNotFound) {
		if t.finish(ctx, StateNotFound) {
			t.emitError(client.ErrJobNotFound)
		}
		return
	}
	if err != nil {
		// 临时错误：仅记录，下个周期重试
		logging.L().Warn(ctx, "job status check failed", "job_id", t.jobID, "err", err)
		return
	}
	if t.opt.onStatusChange != nil {
		t.opt.onStatusChange(job)
	}
	switch job.Status {
	case client.StatusCompleted:
		if !t.finish(ctx, StateCompleted) {
			return
		}
		if t.opt.onComplete != nil {
			t.opt.onComplete(job)
		}
		if t.opt.autoRefresh && t.opt.reload != nil {
			time.AfterFunc(t.opt.refreshDelay, t.opt.reload)
		}
	case client.StatusFailed:
		if !t.finish(ctx, StateFailed) {
			return
		}
		msg := job.Error
		if msg == "" {
			msg = DefaultFailedMessage
		}
		t.emitError(&JobFailedError{JobID: t.jobID, Message: msg})
	}
}

// finish 进入终态：停止调度并清理指针。仅首次调用返回 true。
func (t *Tracker) finish(ctx context.Context, s State) bool {
	t.mu.Lock()
	if t.state != StatePolling {
		t.mu.Unlock()
		return false
	}
	t.state = s
	t.cancel()
	t.cancel = nil
	t.mu.Unlock()
	t.clearPointer(ctx)
	if t.opt.onFinish != nil {
		t.opt.onFinish()
	}
	return true
}

func (t *Tracker) emitError(err error) {
	if t.opt.onError != nil {
		t.opt.onError(err)
	}
}

func (t *Tracker) clearPointer(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if err := t.store.Delete(ctx, storage.ActiveJobKey); err != nil {
		logging.L().Warn(ctx, "clear active job failed", "job_id", t.jobID, "err", err)
	}
}

// ResumeActiveJob 页面加载时恢复持久化的活跃任务。
// 返回：存在指针时返回未启动、禁用自动刷新的跟踪器；否则返回 nil, nil。
func ResumeActiveJob(ctx context.Context, api client.JobsAPI, store storage.KV, opts ...Option) (*Tracker, error) {
	id, ok, err := store.Get(ctx, storage.ActiveJobKey)
	if err != nil {
		return nil, fmt.Errorf("load active job: %w", err)
	}
	if !ok || id == "" {
		return nil, nil
	}
	opts = append(opts[:len(opts):len(opts)], WithAutoRefresh(false))
	return New(api, store, id, opts...), nil
}
