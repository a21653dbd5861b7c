package booklamp

import "time"

// Options 任务服务运行参数。
type Options struct {
	ListenAddr   string        // 监听地址，如 127.0.0.1:5000；":0" 表示随机端口
	JobRetention time.Duration // 终态任务保留时长
	JanitorEvery time.Duration // 清理周期
}

// withDefaults 填充默认值。
func (o *Options) withDefaults() {
	if o.ListenAddr == "" {
		o.ListenAddr = "127.0.0.1:5000"
	}
	if o.JobRetention <= 0 {
		o.JobRetention = time.Hour
	}
	if o.JanitorEvery <= 0 {
		o.JanitorEvery = time.Minute
	}
}

type serverConfig struct {
	opt   Options
	store JobStore
}

// Option 可选项。
type Option func(*serverConfig)

// WithListenAddr 设置监听地址。
func WithListenAddr(addr string) Option { return func(c *serverConfig) { c.opt.ListenAddr = addr } }

// WithStore 替换任务存储（默认内存）。
func WithStore(s JobStore) Option { return func(c *serverConfig) { c.store = s } }

// WithJobRetention 设置终态任务保留时长。
func WithJobRetention(d time.Duration) Option { return func(c *serverConfig) { c.opt.JobRetention = d } }

// WithJanitorEvery 设置清理周期。
func WithJanitorEvery(d time.Duration) Option { return func(c *serverConfig) { c.opt.JanitorEvery = d } }
