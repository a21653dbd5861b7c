package booklamp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/logging"
	"github.com/mengeric/booklamp-jobs-go/processor"
)

// Queue 后台任务队列：记录状态并在独立协程中运行处理器。
type Queue struct {
	store JobStore
	base  context.Context // 约束处理器的运行期
	mu    sync.Mutex      // 串行化读-改-写
	wg    sync.WaitGroup
	now   func() time.Time
}

// NewQueue 创建队列；ctx 结束时正在运行的处理器会收到取消。
func NewQueue(ctx context.Context, store JobStore) *Queue {
	if store == nil {
		store = newDefaultMemStore()
	}
	return &Queue{store: store, base: ctx, now: func() time.Time { return time.Now().UTC() }}
}

// Create 创建 pending 任务并返回 ID。
func (q *Queue) Create(ctx context.Context, functionName string) (string, error) {
	job := &client.Job{ID: uuid.NewString(), Status: client.StatusPending, FunctionName: functionName, CreatedAt: q.now()}
	if err := q.store.Upsert(ctx, job); err != nil {
		return "", fmt.Errorf("create job %s: %w", functionName, err)
	}
	logging.L().Info(ctx, "created job", "job_id", job.ID, "function", functionName)
	return job.ID, nil
}

// Get 查询任务。
func (q *Queue) Get(ctx context.Context, id string) (*client.Job, error) { return q.store.GetJob(ctx, id) }

// StartJob 标记为 running。
func (q *Queue) StartJob(ctx context.Context, id string) bool {
	return q.mutate(ctx, id, func(j *client.Job) {
		now := q.now()
		j.Status = client.StatusRunning
		j.StartedAt = &now
	})
}

// UpdateProgress 更新进度，截断到 0~100。
func (q *Queue) UpdateProgress(ctx context.Context, id string, progress int) bool {
	progress = max(0, min(100, progress))
	return q.mutate(ctx, id, func(j *client.Job) { j.Progress = progress })
}

// Complete 标记成功，进度置 100。
func (q *Queue) Complete(ctx context.Context, id, result string) bool {
	return q.mutate(ctx, id, func(j *client.Job) {
		now := q.now()
		j.Status = client.StatusCompleted
		j.CompletedAt = &now
		j.Result = result
		j.Progress = 100
	})
}

// Fail 标记失败。
func (q *Queue) Fail(ctx context.Context, id, msg string) bool {
	return q.mutate(ctx, id, func(j *client.Job) {
		now := q.now()
		j.Status = client.StatusFailed
		j.CompletedAt = &now
		j.Error = msg
	})
}

func (q *Queue) mutate(ctx context.Context, id string, fn func(*client.Job)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, err := q.store.GetJob(ctx, id)
	if err != nil {
		if !errors.Is(err, client.ErrJobNotFound) {
			logging.L().Error(ctx, "load job failed", "job_id", id, "err", err)
		}
		return false
	}
	fn(job)
	if err := q.store.Upsert(ctx, job); err != nil {
		logging.L().Error(ctx, "update job failed", "job_id", id, "err", err)
		return false
	}
	return true
}

// Submit 创建任务并在后台协程中运行对应处理器，立即返回任务 ID。
// 处理器不存在时任务直接失败；处理器返回错误或 panic 时任务失败。
func (q *Queue) Submit(ctx context.Context, functionName string, params []byte) (string, error) {
	id, err := q.Create(ctx, functionName)
	if err != nil {
		return "", err
	}
	p, ok := processor.Get(functionName)
	if !ok {
		q.Fail(ctx, id, processor.ErrNotFound.Error())
		return id, nil
	}
	q.wg.Add(1)
	go q.run(id, p, params)
	return id, nil
}

// Wait 等待所有后台任务结束。
func (q *Queue) Wait() { q.wg.Wait() }

func (q *Queue) run(id string, p processor.Processor, params []byte) {
	defer q.wg.Done()
	// 状态写入不随 base 取消，保证终态能落库
	ctx := context.WithoutCancel(q.base)
	defer func() {
		if r := recover(); r != nil {
			logging.L().Error(ctx, "job panicked", "job_id", id, "panic", r)
			q.Fail(ctx, id, fmt.Sprint(r))
		}
	}()
	q.StartJob(ctx, id)
	res, err := p.Run(q.base, jobHandle{q: q, id: id}, params)
	if err != nil {
		logging.L().Error(ctx, "job failed", "job_id", id, "err", err)
		q.Fail(ctx, id, err.Error())
		return
	}
	q.Complete(ctx, id, res)
	logging.L().Info(ctx, "completed job", "job_id", id)
}

// jobHandle 暴露给处理器的任务句柄。
type jobHandle struct {
	q  *Queue
	id string
}

func (h jobHandle) ID() string { return h.id }

func (h jobHandle) Progress(p int) { h.q.UpdateProgress(context.Background(), h.id, p) }
