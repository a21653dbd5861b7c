package indicator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/storage"
	"github.com/mengeric/booklamp-jobs-go/tracker"
)

// options 指示器参数。
type options struct {
	notifyAfter  time.Duration // 成功通知展示时长
	fadeDuration time.Duration // 隐藏过渡时长
	hideDelay    time.Duration // 隐藏指示器前的等待
	trackerOpts  []tracker.Option
}

// Option 可选项。
type Option func(*options)

func (o *options) withDefaults() {
	if o.notifyAfter <= 0 {
		o.notifyAfter = 10 * time.Second
	}
	if o.fadeDuration <= 0 {
		o.fadeDuration = 500 * time.Millisecond
	}
	if o.hideDelay <= 0 {
		o.hideDelay = 300 * time.Millisecond
	}
}

// WithNotifyAfter 设置成功通知自动隐藏前的展示时长。
func WithNotifyAfter(d time.Duration) Option { return func(o *options) { o.notifyAfter = d } }

// WithFadeDuration 设置通知隐藏过渡时长。
func WithFadeDuration(d time.Duration) Option { return func(o *options) { o.fadeDuration = d } }

// WithHideDelay 设置停止后隐藏指示器的延迟。
func WithHideDelay(d time.Duration) Option { return func(o *options) { o.hideDelay = d } }

// WithTrackerOptions 透传跟踪器可选项（周期、刷新等）。回调由指示器接管。
func WithTrackerOptions(opts ...tracker.Option) Option {
	return func(o *options) { o.trackerOpts = append(o.trackerOpts, opts...) }
}

// Indicator 把跟踪器状态渲染到页面：进度条、状态文本与成功通知。
type Indicator struct {
	page Page
	trk  *tracker.Tracker
	opt  options
	seq  atomic.Int64
}

func build(page Page, opts []Option) (*Indicator, []tracker.Option) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	o.withDefaults()
	ind := &Indicator{page: page, opt: o}
	topts := append(append([]tracker.Option(nil), o.trackerOpts...),
		tracker.WithOnStatusChange(ind.onStatusChange),
		tracker.WithOnComplete(ind.onComplete),
		tracker.WithOnError(ind.onError),
	)
	return ind, topts
}

// New 为指定任务创建指示器。
func New(page Page, api client.JobsAPI, store storage.KV, jobID string, opts ...Option) *Indicator {
	ind, topts := build(page, opts)
	ind.trk = tracker.New(api, store, jobID, topts...)
	return ind
}

// Resume 恢复持久化的活跃任务；没有活跃任务时返回 nil, nil。
// 恢复出的跟踪器不会自动刷新页面。
func Resume(ctx context.Context, page Page, api client.JobsAPI, store storage.KV, opts ...Option) (*Indicator, error) {
	ind, topts := build(page, opts)
	trk, err := tracker.ResumeActiveJob(ctx, api, store, topts...)
	if err != nil || trk == nil {
		return nil, err
	}
	ind.trk = trk
	return ind, nil
}

// Tracker 返回内部跟踪器。
func (i *Indicator) Tracker() *tracker.Tracker { return i.trk }

// Start 显示指示器并开始轮询。
func (i *Indicator) Start(ctx context.Context) error {
	i.page.SetVisible(IDIndicator, true)
	if err := i.trk.Start(ctx); err != nil {
		i.page.SetVisible(IDIndicator, false)
		return err
	}
	return nil
}

// Stop 停止轮询，稍后隐藏指示器以便动画结束。
func (i *Indicator) Stop(ctx context.Context) {
	i.trk.Stop(ctx)
	i.hideLater()
}

// Dismiss 立即移除一条通知。
func (i *Indicator) Dismiss(msgID string) { i.page.RemoveMessage(msgID) }

func (i *Indicator) onStatusChange(job client.Job) {
	i.page.SetWidth(IDProgressFill, job.Progress)
	i.page.SetText(IDStatusText, StatusLabel(job))
}

func (i *Indicator) onComplete(job client.Job) {
	i.page.SetWidth(IDProgressFill, 100)
	if job.Result != "" {
		i.notify("success", job.Result)
	}
	i.hideLater()
}

func (i *Indicator) onError(err error) {
	i.page.SetText(IDStatusText, "Error: "+ErrorMessage(err))
}

// notify 追加可关闭通知，notifyAfter 后开始淡出，再过 fadeDuration 移除。
func (i *Indicator) notify(category, text string) {
	id := fmt.Sprintf("job-message-%d", i.seq.Add(1))
	if !i.page.AppendMessage(Message{ID: id, Category: category, Text: text, Dismissible: true}) {
		return
	}
	time.AfterFunc(i.opt.notifyAfter, func() {
		i.page.FadeMessage(id)
		time.AfterFunc(i.opt.fadeDuration, func() { i.page.RemoveMessage(id) })
	})
}

func (i *Indicator) hideLater() {
	time.AfterFunc(i.opt.hideDelay, func() { i.page.SetVisible(IDIndicator, false) })
}

// AutoAttach 为页面上每个 data-job-id 元素挂载跟踪器（同一任务只挂载一次），
// 状态文案写入该元素。返回新挂载的数量。
func AutoAttach(ctx context.Context, page Page, mgr *tracker.Manager) (int, error) {
	elems := page.JobElements()
	var (
		n    int
		errs []error
	)
	for _, elemID := range sortedKeys(elems) {
		id := elemID
		_, created, err := mgr.Attach(ctx, elems[id],
			tracker.WithOnStatusChange(func(job client.Job) { page.SetText(id, StatusLabel(job)) }),
			tracker.WithOnError(func(err error) { page.SetText(id, "Error: "+ErrorMessage(err)) }),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("attach %s: %w", id, err))
			continue
		}
		if created {
			n++
		}
	}
	return n, errors.Join(errs...)
}
