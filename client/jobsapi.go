package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrJobNotFound 服务端不认识该任务（HTTP 404），属于终态错误。
var ErrJobNotFound = errors.New("job not found")

// StatusError 非 2xx 且非 404 的响应，调用方应视为临时错误。
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s => %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// JobsAPI 定义与 Book Lamp 任务接口的交互，便于 gomock 打桩。
type JobsAPI interface {
	GetJob(ctx context.Context, id string) (Job, error)
	SubmitJob(ctx context.Context, functionName, params string) (string, error)
}

// httpJobsAPI 实现 JobsAPI。
type httpJobsAPI struct {
	base string
	hc   *http.Client
}

// Option HTTP 客户端可选项。
type Option func(*httpJobsAPI)

// WithHTTPTimeout 设置单次请求的整体超时；d<=0 表示不设超时（默认）。
func WithHTTPTimeout(d time.Duration) Option {
	return func(h *httpJobsAPI) { h.hc.Timeout = max(d, 0) }
}

// WithHTTPClient 替换底层 http.Client。
func WithHTTPClient(hc *http.Client) Option {
	return func(h *httpJobsAPI) {
		if hc != nil {
			h.hc = hc
		}
	}
}

// NewHTTPJobsAPI 构造 HTTP 实现。
// 参数：base 形如 http://127.0.0.1:5000，末尾斜杠会被去掉；默认不设请求超时。
func NewHTTPJobsAPI(base string, opts ...Option) JobsAPI {
	h := &httpJobsAPI{base: strings.TrimRight(base, "/"), hc: &http.Client{}}
	for _, fn := range opts {
		fn(h)
	}
	return h
}

// GetJob 查询任务状态。
// 返回：404 时返回 ErrJobNotFound；其它非 2xx 返回 *StatusError。
func (h *httpJobsAPI) GetJob(ctx context.Context, id string) (Job, error) {
	var job Job
	u := fmt.Sprintf("%s/api/jobs/%s", h.base, url.PathEscape(id))
	if err := h.do(ctx, http.MethodGet, u, nil, &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// SubmitJob 提交一个后台任务，返回任务 ID。
func (h *httpJobsAPI) SubmitJob(ctx context.Context, functionName, params string) (string, error) {
	var resp SubmitJobResp
	req := SubmitJobReq{FunctionName: functionName, Params: params}
	if err := h.do(ctx, http.MethodPost, h.base+"/api/jobs", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("submit %s: empty job id", functionName)
	}
	return resp.ID, nil
}

// do 执行请求并解码 JSON。
func (h *httpJobsAPI) do(ctx context.Context, method, u string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	res, err := h.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrJobNotFound
	}
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{Method: method, URL: u, Code: res.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}
