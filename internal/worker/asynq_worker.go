package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Keep-Fight/LightBlogSystem/internal/logger"
	"github.com/Keep-Fight/LightBlogSystem/internal/provider"
	"github.com/Keep-Fight/LightBlogSystem/internal/queue"
	"github.com/Keep-Fight/LightBlogSystem/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskVerifyCodeEmail, c.handleVerifyCodeEmail)
}

// handleVerifyCodeEmail 投递验证码邮件
// 收件地址被拒绝属于永久失败，直接丢弃；其余错误交给 asynq 重试。
func (c *Consumer) handleVerifyCodeEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_verify_code_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.VerifyCodeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_verify_code_email_unmarshal_failed", "error", err)
		return err
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" {
		logger.Debugw("worker_verify_code_email_skip_empty_receiver")
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_verify_code_email_skip_email_service_nil", "email", email)
		return nil
	}

	err := c.EmailService.SendTemplateEmail(email, payload.Subject, payload.Template, payload.CommentMap)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled),
			errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Warnw("worker_verify_code_email_skip_not_configured", "email", email, "error", err)
			return nil
		case errors.Is(err, service.ErrEmailRecipientRejected),
			errors.Is(err, service.ErrInvalidEmail):
			logger.Warnw("worker_verify_code_email_skip_recipient_rejected", "email", email, "error", err)
			return nil
		default:
			logger.Warnw("worker_verify_code_email_send_failed", "email", email, "error", err)
			return err
		}
	}

	logger.Infow("worker_verify_code_email_sent", "email", email)
	return nil
}
