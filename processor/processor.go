package processor

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Handle 处理器运行期间可见的任务句柄。
type Handle interface {
	ID() string
	// Progress 上报进度（0~100，越界会被截断）。
	Progress(p int)
}

// Processor 后台函数统一接口，按函数名注册（如 import_books）。
// 功能：执行业务逻辑，返回面向用户的结果文案。
type Processor interface {
	Run(ctx context.Context, job Handle, params []byte) (result string, err error)
}

// Func 让普通函数满足 Processor。
type Func func(ctx context.Context, job Handle, params []byte) (string, error)

func (f Func) Run(ctx context.Context, job Handle, params []byte) (string, error) {
	return f(ctx, job, params)
}

var (
	regMu      sync.RWMutex
	processors = map[string]Processor{}
)

// Register 注册处理器，同名覆盖。
func Register(name string, p Processor) { regMu.Lock(); defer regMu.Unlock(); processors[name] = p }

// Get 获取处理器。
func Get(name string) (Processor, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	p, ok := processors[name]
	return p, ok
}

// Names 已注册的函数名（有序）。
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(processors))
	for n := range processors {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ErrNotFound 处理器不存在错误。
var ErrNotFound = errors.New("processor not found")
