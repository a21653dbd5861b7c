package indicator

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// 页面元素 ID 约定。
const (
	IDIndicator    = "job-indicator"
	IDProgressFill = "job-progress-fill"
	IDStatusText   = "job-status-text"
)

// Message 消息区（.messages）中的一条通知。
type Message struct {
	ID          string
	Category    string // success / error / info
	Text        string
	Dismissible bool
}

// Page 指示器依赖的页面能力；元素不存在时各操作应静默忽略。
type Page interface {
	SetVisible(id string, visible bool)
	SetWidth(id string, percent int)
	SetText(id, text string)
	// AppendMessage 追加通知；页面没有消息区时返回 false。
	AppendMessage(m Message) bool
	// FadeMessage 开始隐藏过渡（opacity/transform）。
	FadeMessage(id string)
	RemoveMessage(id string)
	// JobElements 返回带 data-job-id 的元素：元素 ID -> 任务 ID。
	JobElements() map[string]string
}

// Element 内存页面中的元素快照。
type Element struct {
	ID      string
	Visible bool
	Width   int
	Text    string
	JobID   string
}

// MessageState 消息快照。
type MessageState struct {
	Message
	Faded bool
}

// MemoryPage 线程安全的内存页面，供测试与嵌入方使用。
type MemoryPage struct {
	mu          sync.RWMutex
	elems       map[string]*Element
	hasMessages bool
	messages    []MessageState
}

// NewMemoryPage 创建包含指定元素的页面；withMessages 控制是否存在消息区。
func NewMemoryPage(withMessages bool, ids ...string) *MemoryPage {
	p := &MemoryPage{elems: map[string]*Element{}, hasMessages: withMessages}
	for _, id := range ids {
		p.elems[id] = &Element{ID: id}
	}
	return p
}

// NewIndicatorPage 创建具备完整指示器元素与消息区的页面，指示器初始隐藏。
func NewIndicatorPage() *MemoryPage {
	return NewMemoryPage(true, IDIndicator, IDProgressFill, IDStatusText)
}

// AddJobElement 添加一个带 data-job-id 的元素。
func (p *MemoryPage) AddJobElement(id, jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elems[id] = &Element{ID: id, Visible: true, JobID: jobID}
}

func (p *MemoryPage) SetVisible(id string, visible bool) {
	p.update(id, func(e *Element) { e.Visible = visible })
}

func (p *MemoryPage) SetWidth(id string, percent int) {
	p.update(id, func(e *Element) { e.Width = percent })
}

func (p *MemoryPage) SetText(id, text string) {
	p.update(id, func(e *Element) { e.Text = text })
}

func (p *MemoryPage) update(id string, fn func(*Element)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.elems[id]; ok {
		fn(e)
	}
}

func (p *MemoryPage) AppendMessage(m Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasMessages {
		return false
	}
	p.messages = append(p.messages, MessageState{Message: m})
	return true
}

func (p *MemoryPage) FadeMessage(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.messages {
		if p.messages[i].ID == id {
			p.messages[i].Faded = true
		}
	}
}

func (p *MemoryPage) RemoveMessage(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.messages[:0]
	for _, m := range p.messages {
		if m.ID != id {
			out = append(out, m)
		}
	}
	p.messages = out
}

func (p *MemoryPage) JobElements() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := map[string]string{}
	for id, e := range p.elems {
		if e.JobID != "" {
			out[id] = e.JobID
		}
	}
	return out
}

// Element 读取元素快照。
func (p *MemoryPage) Element(id string) (Element, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.elems[id]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// Messages 读取当前消息列表。
func (p *MemoryPage) Messages() []MessageState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]MessageState(nil), p.messages...)
}

// WriterPage 将指示器状态按行输出到 io.Writer（命令行 watch 使用）。
type WriterPage struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	text  string
}

// NewWriterPage 构造。
func NewWriterPage(w io.Writer) *WriterPage { return &WriterPage{w: w} }

func (p *WriterPage) SetVisible(string, bool) {}

func (p *WriterPage) SetWidth(id string, percent int) {
	if id != IDProgressFill {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = percent
}

func (p *WriterPage) SetText(id, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if text == p.text {
		return
	}
	p.text = text
	if id == IDStatusText {
		fmt.Fprintf(p.w, "[%3d%%] %s\n", p.width, text)
		return
	}
	fmt.Fprintf(p.w, "%s: %s\n", id, text)
}

func (p *WriterPage) AppendMessage(m Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s: %s\n", m.Category, m.Text)
	return true
}

func (p *WriterPage) FadeMessage(string)  {}
func (p *WriterPage) RemoveMessage(string) {}

func (p *WriterPage) JobElements() map[string]string { return nil }

// sortedKeys 保证自动挂载顺序稳定。
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
