package storage

import "context"

// ActiveJobKey 活跃任务指针的固定键名。
const ActiveJobKey = "book_lamp_active_job_id"

// KV 单值键值存储，对应浏览器 localStorage 的最小能力。
// 实现：memstore（进程内）、gormstore（SQLite 等）、redisstore。
type KV interface {
	// Get 读取键值；键不存在时 ok=false 且 err=nil。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set 写入（覆盖）键值。
	Set(ctx context.Context, key, value string) error
	// Delete 删除键；键不存在不视为错误。
	Delete(ctx context.Context, key string) error
}
