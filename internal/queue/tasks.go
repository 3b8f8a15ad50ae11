package queue

import (
	"encoding/json"

	"github.com/Keep-Fight/LightBlogSystem/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskVerifyCodeEmail 验证码邮件任务
	TaskVerifyCodeEmail = constants.TaskVerifyCodeEmail
)

// VerifyCodeEmailPayload 验证码邮件任务载荷
// CommentMap 为模板替换表，正文内容必须携带验证码。
type VerifyCodeEmailPayload struct {
	Email      string            `json:"email"`
	Subject    string            `json:"subject"`
	Template   string            `json:"template"`
	CommentMap map[string]string `json:"comment_map"`
}

// NewVerifyCodeEmailTask 创建验证码邮件任务
func NewVerifyCodeEmailTask(payload VerifyCodeEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVerifyCodeEmail, body), nil
}
