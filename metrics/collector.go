package metrics

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

const gb = 1024 * 1024 * 1024

// Snapshot 任务服务所在主机与进程的资源概况，由 /api/system 返回。
type Snapshot struct {
	CPULoad        float64   `json:"cpu_load"`
	CPUProcessors  int       `json:"cpu_processors"`
	DiskTotalGB    float64   `json:"disk_total_gb"`
	DiskUsageRatio float64   `json:"disk_usage"`
	MemTotalGB     float64   `json:"mem_total_gb"`
	ProcUsedGB     float64   `json:"proc_used_gb"`
	ProcMemUsage   float64   `json:"proc_mem_usage"`
	Goroutines     int       `json:"goroutines"`
	Score          float64   `json:"score"` // 0~100，越高越空闲
	CollectedAt    time.Time `json:"collected_at"`
}

// Collect 采集系统/进程指标；单项失败时保留零值。
func Collect(ctx context.Context) Snapshot {
	out := Snapshot{CPUProcessors: runtime.NumCPU(), Goroutines: runtime.NumGoroutine(), CollectedAt: time.Now().UTC()}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		out.CPULoad = avg.Load1
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil && du.Total > 0 {
		out.DiskTotalGB = float64(du.Total) / gb
		out.DiskUsageRatio = du.UsedPercent / 100.0
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Total > 0 {
		out.MemTotalGB = float64(vm.Total) / gb
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if pm, err := p.MemoryInfoWithContext(ctx); err == nil && pm != nil {
			out.ProcUsedGB = float64(pm.RSS) / gb
			if out.MemTotalGB > 0 {
				out.ProcMemUsage = out.ProcUsedGB / out.MemTotalGB
			}
		}
	}
	out.Score = score(out)
	return out
}

func score(s Snapshot) float64 {
	v := 100.0
	if s.CPUProcessors > 0 {
		v -= s.CPULoad / float64(s.CPUProcessors) * 50
	}
	v -= s.DiskUsageRatio * 20
	v -= s.ProcMemUsage * 30
	if v < 0 {
		v = 0
	}
	return v
}
