package tracker

import (
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
)

const (
	// DefaultInterval 默认轮询周期。
	DefaultInterval = 2000 * time.Millisecond
	// DefaultRefreshDelay 任务完成后触发刷新前的等待时长。
	DefaultRefreshDelay = 2 * time.Second
)

// options 跟踪器运行参数。
type options struct {
	interval     time.Duration
	refreshDelay time.Duration
	autoRefresh  bool
	reload       func()

	onStatusChange func(client.Job)
	onComplete     func(client.Job)
	onError        func(error)
	onFinish       func()
}

// Option 可选项。
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{autoRefresh: true}
	for _, fn := range opts {
		fn(&o)
	}
	o.withDefaults()
	return o
}

// withDefaults 填充默认值。
func (o *options) withDefaults() {
	if o.interval <= 0 {
		o.interval = DefaultInterval
	}
	if o.refreshDelay <= 0 {
		o.refreshDelay = DefaultRefreshDelay
	}
}

// WithInterval 设置轮询周期。
func WithInterval(d time.Duration) Option { return func(o *options) { o.interval = d } }

// WithAutoRefresh 完成后是否触发刷新（reload）。
func WithAutoRefresh(on bool) Option { return func(o *options) { o.autoRefresh = on } }

// WithRefreshDelay 设置完成到刷新之间的延迟。
func WithRefreshDelay(d time.Duration) Option { return func(o *options) { o.refreshDelay = d } }

// WithReload 设置刷新动作；未设置时 autoRefresh 不产生任何效果。
func WithReload(fn func()) Option { return func(o *options) { o.reload = fn } }

// WithOnStatusChange 每次成功拿到任务状态时回调。
func WithOnStatusChange(fn func(client.Job)) Option {
	return func(o *options) { o.onStatusChange = fn }
}

// WithOnComplete 任务 completed 时回调。
func WithOnComplete(fn func(client.Job)) Option { return func(o *options) { o.onComplete = fn } }

// WithOnError 任务 failed 或 404 时回调。
// 参数 err 为 client.ErrJobNotFound 或 *JobFailedError。
func WithOnError(fn func(error)) Option { return func(o *options) { o.onError = fn } }

// withOnFinish 轮询结束（终态、Stop 或 ctx 结束）后回调，供 Manager 自动摘除。
func withOnFinish(fn func()) Option { return func(o *options) { o.onFinish = fn } }
