package example

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/mengeric/booklamp-jobs-go/processor"
)

// ImportBooks 模拟 CSV 导入：逐行计数并上报进度。
// params 为 CSV 原文，首行为表头。
type ImportBooks struct {
	// RowDelay 每行处理耗时，默认 0。
	RowDelay time.Duration
}

func (p *ImportBooks) Run(ctx context.Context, job processor.Handle, params []byte) (string, error) {
	rows, err := csv.NewReader(bytes.NewReader(params)).ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return "", errors.New("empty import file")
	}
	books := rows[1:]
	for i := range books {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.RowDelay):
		}
		job.Progress((i + 1) * 100 / len(books))
	}
	return fmt.Sprintf("Successfully imported %d entries", len(books)), nil
}

// FetchMissingData 补全封面等缺失信息的占位实现：等待 Steps 轮。
type FetchMissingData struct {
	Steps int
	Delay time.Duration
}

func (p *FetchMissingData) Run(ctx context.Context, job processor.Handle, _ []byte) (string, error) {
	steps := p.Steps
	if steps <= 0 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.Delay):
		}
		job.Progress(i * 100 / steps)
	}
	return "No missing data found to update.", nil
}

func init() {
	processor.Register("import_books", &ImportBooks{})
	processor.Register("fetch_missing_data", &FetchMissingData{Steps: 4, Delay: 50 * time.Millisecond})
}
