package indicator

import (
	"errors"
	"fmt"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/tracker"
)

// functionLabels 已知后台函数名到展示文案的映射。
var functionLabels = map[string]string{
	"import_books":       "Importing books...",
	"fetch_missing_data": "Fetching missing book data...",
}

// StatusLabel 返回状态文本：已知函数名用固定文案，否则 "Processing (N%)"。
func StatusLabel(job client.Job) string {
	if l, ok := functionLabels[job.FunctionName]; ok {
		return l
	}
	return fmt.Sprintf("Processing (%d%%)", job.Progress)
}

// ErrorMessage 将跟踪器错误转成面向用户的文案。
func ErrorMessage(err error) string {
	if errors.Is(err, client.ErrJobNotFound) {
		return "Job not found"
	}
	var jf *tracker.JobFailedError
	if errors.As(err, &jf) {
		return jf.Message
	}
	return err.Error()
}
