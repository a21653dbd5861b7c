package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mengeric/booklamp-jobs-go/logging"
)

// Pruner 仅需要按时间清理终态任务的能力。
type Pruner interface {
	PruneFinished(ctx context.Context, before time.Time) (int, error)
}

// Janitor 周期性清理超过保留期的终态任务。
// 被清理的任务再查询时返回 404，前端跟踪器按 not found 处理。
type Janitor struct {
	store     Pruner
	retention time.Duration
	interval  time.Duration
	running   atomic.Bool
	now       func() time.Time
}

// NewJanitor 构造实例。
func NewJanitor(store Pruner, retention, interval time.Duration) *Janitor {
	return &Janitor{store: store, retention: retention, interval: interval, now: time.Now}
}

// Start 启动定时任务，重复调用无效果。
func (j *Janitor) Start(ctx context.Context) {
	if j.running.Swap(true) {
		return
	}
	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := j.RunOnce(ctx); err != nil {
					logging.L().Warnf(ctx, "prune finished jobs failed: %v", err)
				}
			}
		}
	}()
}

// RunOnce 执行一次清理，返回删除条数。
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	n, err := j.store.PruneFinished(ctx, j.now().Add(-j.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.L().Info(ctx, "pruned finished jobs", "count", n)
	}
	return n, nil
}
