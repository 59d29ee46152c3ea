package notifier

import (
	"context"
	"log"
	"os"

	"meetup-board/internal/model"
)

// LogNotifier 仅打印通知内容，适合开发阶段使用。
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier 创建日志通知器，未提供 logger 时默认输出到标准输出。
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

// Notify 逐条打印通知。
func (n LogNotifier) Notify(ctx context.Context, items []model.AdminNotification) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		n.logger.Printf("%s job=%s scope=%s: %s", item.EventType, item.JobID, item.RecipientScope, item.Message)
	}
	return nil
}
