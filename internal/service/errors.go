package service

import "errors"

// 业务错误定义，handler 层通过 errors.Is 映射响应码
var (
	ErrNotFound             = errors.New("记录不存在")
	ErrInvalidEmail         = errors.New("请输入正确邮箱")
	ErrEmailExists          = errors.New("邮箱已被注册")
	ErrEmailNotRegistered   = errors.New("邮箱尚未注册")
	ErrVerifyCodeIncorrect  = errors.New("验证码错误")
	ErrCodeSendTooOften     = errors.New("验证码发送过于频繁")
	ErrInvalidCredentials   = errors.New("邮箱或密码错误")
	ErrOldPasswordIncorrect = errors.New("旧密码不正确")
	ErrWeakPassword         = errors.New("密码强度不足")
	ErrUserDisabled         = errors.New("账号已被禁用")
	ErrUnsupportedLoginType = errors.New("不支持的登录方式")
	ErrSocialLoginFailed    = errors.New("第三方登录失败")
	ErrCaptchaRequired      = errors.New("请完成图形验证码")
	ErrCaptchaInvalid       = errors.New("图形验证码错误")
	ErrCaptchaDisabled      = errors.New("图形验证码未启用")

	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrEmailRecipientRejected    = errors.New("收件地址被拒绝")

	ErrCacheUnavailable = errors.New("缓存服务不可用")
)
