// Package notification は審査結果などのメール通知を提供する。
package notification

import (
	"context"
	"log/slog"
)

// Mail は送信するメール。
type Mail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Notifier はメール送信のインターフェース。
type Notifier interface {
	Send(ctx context.Context, mail Mail) error
}

// LogNotifier はメールを送信せずに構造化ログとして出力するNotifier。
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier はLogNotifierを生成する。loggerがnilの場合はslog.Default()を使う。
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send はメールの内容をログに出力する。
func (n *LogNotifier) Send(ctx context.Context, mail Mail) error {
	n.logger.InfoContext(ctx, "mail sent",
		slog.String("from", mail.From),
		slog.String("to", mail.To),
		slog.String("subject", mail.Subject),
		slog.Int("body_length", len(mail.Body)),
	)
	return nil
}
