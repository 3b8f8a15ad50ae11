package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/Keep-Fight/LightBlogSystem/internal/http/handlers/shared"
	"github.com/Keep-Fight/LightBlogSystem/internal/http/response"
	"github.com/Keep-Fight/LightBlogSystem/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListUsers 后台用户列表，支持关键字与时间范围过滤
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	filter := repository.UserListFilter{
		Page:          page,
		PageSize:      pageSize,
		Keyword:       strings.TrimSpace(c.Query("keyword")),
		LoginType:     strings.TrimSpace(c.Query("login_type")),
		CreatedFrom:   parseTimeQuery(c.Query("created_from")),
		CreatedTo:     parseTimeQuery(c.Query("created_to")),
		LastLoginFrom: parseTimeQuery(c.Query("last_login_from")),
		LastLoginTo:   parseTimeQuery(c.Query("last_login_to")),
	}

	rows, total, err := h.UserAuthService.ListUsers(filter)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "获取用户列表失败", err)
		return
	}

	response.SuccessWithPage(c, rows, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// UserActiveStats 用户活跃度统计
func (h *Handler) UserActiveStats(c *gin.Context) {
	buckets, err := h.UserAuthService.UserActiveBuckets()
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "获取活跃度统计失败", err)
		return
	}
	response.Success(c, buckets)
}

// UserThreeDayActive 近三天逐日活跃用户数
func (h *Handler) UserThreeDayActive(c *gin.Context) {
	buckets, err := h.UserAuthService.UserThreeDayActive()
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "获取近三天活跃统计失败", err)
		return
	}
	response.Success(c, buckets)
}

func parseTimeQuery(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
