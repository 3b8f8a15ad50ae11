package public

import (
	"errors"
	"io"
	"strconv"

	"github.com/Keep-Fight/LightBlogSystem/internal/http/response"
	"github.com/Keep-Fight/LightBlogSystem/internal/service"

	"github.com/gin-gonic/gin"
)

// CaptchaPayloadRequest 图形验证码载荷
type CaptchaPayloadRequest struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// SendVerifyCodeRequest 发送验证码请求
type SendVerifyCodeRequest struct {
	Email          string                `json:"email" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// SendVerifyCode 发送邮箱验证码
func (h *Handler) SendVerifyCode(c *gin.Context) {
	var req SendVerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if !h.verifyCaptcha(c, req.CaptchaPayload) {
		return
	}

	if err := h.UserAuthService.SendVerifyCode(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "请输入正确邮箱", nil)
		case errors.Is(err, service.ErrCodeSendTooOften):
			respondError(c, response.CodeTooManyRequests, "验证码发送过于频繁，请稍后再试", nil)
		case errors.Is(err, service.ErrCacheUnavailable):
			respondError(c, response.CodeInternal, "验证码服务暂不可用", err)
		default:
			respondError(c, response.CodeInternal, "验证码发送失败", err)
		}
		return
	}

	response.Success(c, gin.H{"sent": true})
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// Register 邮箱注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.UserAuthService.Register(c.Request.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "请输入正确邮箱", nil)
		case errors.Is(err, service.ErrEmailExists):
			respondError(c, response.CodeConflict, "邮箱已被注册", nil)
		case errors.Is(err, service.ErrVerifyCodeIncorrect):
			respondError(c, response.CodeBadRequest, "验证码错误", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "注册失败", err)
		}
		return
	}

	response.Success(c, loginResultPayload(result))
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email          string                `json:"email" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// Login 邮箱密码登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if !h.verifyCaptcha(c, req.CaptchaPayload) {
		return
	}

	result, err := h.UserAuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "请输入正确邮箱", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "邮箱或密码错误", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeForbidden, "账号已被禁用", nil)
		default:
			respondError(c, response.CodeInternal, "登录失败", err)
		}
		return
	}

	response.Success(c, loginResultPayload(result))
}

// SocialLogin 第三方登录，登录方式由路由参数决定
func (h *Handler) SocialLogin(c *gin.Context) {
	loginType := c.Param("provider")
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.SocialLoginService.Login(c.Request.Context(), loginType, raw)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedLoginType):
			respondError(c, response.CodeBadRequest, "不支持的登录方式", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeForbidden, "账号已被禁用", nil)
		case errors.Is(err, service.ErrSocialLoginFailed):
			respondError(c, response.CodeBadRequest, "第三方登录失败", err)
		default:
			respondError(c, response.CodeInternal, "第三方登录失败", err)
		}
		return
	}

	response.Success(c, loginResultPayload(result))
}

// Logout 注销登录
func (h *Handler) Logout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.UserAuthService.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, response.CodeInternal, "注销失败", err)
		return
	}
	response.Success(c, gin.H{"logout": true})
}

// ForgotPasswordRequest 忘记密码请求
type ForgotPasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPassword 验证码重置密码
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.UserAuthService.UpdatePassword(c.Request.Context(), req.Email, req.Code, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "请输入正确邮箱", nil)
		case errors.Is(err, service.ErrVerifyCodeIncorrect):
			respondError(c, response.CodeBadRequest, "验证码错误", nil)
		case errors.Is(err, service.ErrEmailNotRegistered):
			respondError(c, response.CodeNotFound, "邮箱尚未注册", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "密码重置失败", err)
		}
		return
	}

	response.Success(c, gin.H{"updated": true})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 登录态修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.UserAuthService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		case errors.Is(err, service.ErrOldPasswordIncorrect):
			respondError(c, response.CodeBadRequest, "旧密码不正确", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "密码修改失败", err)
		}
		return
	}

	response.Success(c, gin.H{"updated": true})
}

// Me 获取登录态用户信息
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	profile, err := h.UserAuthService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取用户信息失败", err)
		return
	}

	response.Success(c, profile)
}

// UserAreas 用户地域统计
func (h *Handler) UserAreas(c *gin.Context) {
	areaType, _ := strconv.Atoi(c.DefaultQuery("type", "1"))
	areas, err := h.UserAuthService.ListUserAreas(c.Request.Context(), areaType)
	if err != nil {
		respondError(c, response.CodeInternal, "获取地域统计失败", err)
		return
	}
	response.Success(c, areas)
}

// GetCaptcha 获取图形验证码
func (h *Handler) GetCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		if errors.Is(err, service.ErrCaptchaDisabled) {
			respondError(c, response.CodeNotFound, "图形验证码未启用", nil)
			return
		}
		respondError(c, response.CodeInternal, "验证码生成失败", err)
		return
	}
	response.Success(c, challenge)
}

func (h *Handler) verifyCaptcha(c *gin.Context, payload CaptchaPayloadRequest) bool {
	if h.CaptchaService == nil {
		return true
	}
	if err := h.CaptchaService.Verify(payload.CaptchaID, payload.CaptchaCode); err != nil {
		switch {
		case errors.Is(err, service.ErrCaptchaRequired):
			respondError(c, response.CodeBadRequest, "请完成图形验证码", nil)
		case errors.Is(err, service.ErrCaptchaInvalid):
			respondError(c, response.CodeBadRequest, "图形验证码错误", nil)
		default:
			respondError(c, response.CodeInternal, "验证码校验失败", err)
		}
		return false
	}
	return true
}

func loginResultPayload(result *service.LoginResult) gin.H {
	payload := gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	}
	if result.User != nil {
		payload["user"] = gin.H{
			"id":       result.User.ID,
			"email":    result.User.Email,
			"nickname": result.User.Nickname,
			"avatar":   result.User.Avatar,
		}
	}
	if result.Auth != nil {
		payload["login_type"] = result.Auth.LoginType
	}
	return payload
}
