package booklamp

import (
	"context"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
)

// JobStore 任务记录持久化接口（可由宿主实现或使用内置 gormstore）。
type JobStore interface {
	// Upsert 插入或按任务 ID 覆盖记录。
	Upsert(ctx context.Context, job *client.Job) error
	// GetJob 读取记录；不存在返回 client.ErrJobNotFound。
	GetJob(ctx context.Context, id string) (*client.Job, error)
	// PruneFinished 删除 before 之前结束的终态任务。
	PruneFinished(ctx context.Context, before time.Time) (int, error)
}
