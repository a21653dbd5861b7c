package client

import "time"

// JobStatus 后台任务状态，取值与服务端 JSON 保持一致。
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// IsTerminal 是否为终态（completed / failed）。
func (s JobStatus) IsTerminal() bool { return s == StatusCompleted || s == StatusFailed }

// Job 服务端 /api/jobs/{id} 返回的任务视图。
// 说明：result/error/function_name 为可选字段，null 与缺省等价。
type Job struct {
	ID           string     `json:"id"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"` // 0~100
	Result       string     `json:"result,omitempty"`
	Error        string     `json:"error,omitempty"`
	FunctionName string     `json:"function_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// SubmitJobReq 提交任务请求体。
type SubmitJobReq struct {
	FunctionName string `json:"function_name"`
	Params       string `json:"params,omitempty"`
}

// SubmitJobResp 提交任务响应。
type SubmitJobResp struct {
	ID string `json:"id"`
}

// ErrorResp 统一错误响应。
type ErrorResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
