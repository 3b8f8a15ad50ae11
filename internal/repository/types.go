package repository

import "time"

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	LoginType     string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}

// AdminUserRow 后台用户列表行，凭证与资料联查结果
type AdminUserRow struct {
	ID            uint       `json:"id"`
	UserInfoID    uint       `json:"user_info_id"`
	Username      string     `json:"username"`
	Nickname      string     `json:"nickname"`
	Avatar        string     `json:"avatar"`
	LoginType     string     `json:"login_type"`
	LastLoginTime *time.Time `json:"last_login_time"`
	CreatedAt     time.Time  `json:"created_at"`
}
