// Package domain 定义业务领域模型和核心业务规则。
// 领域模型是业务逻辑的核心，独立于外部依赖（数据库、HTTP等）。
package domain

import (
	"fmt"
	"strings"
	"time"
)

// UserRole 定义用户角色类型，取值是封闭集合
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"    // 管理员
	UserRoleUser     UserRole = "user"     // 普通用户
	UserRoleCustomer UserRole = "customer" // 客户
)

// AllRoles 返回全部合法角色
func AllRoles() []UserRole {
	return []UserRole{UserRoleAdmin, UserRoleUser, UserRoleCustomer}
}

// Valid 判断角色是否属于合法集合
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleUser, UserRoleCustomer:
		return true
	}
	return false
}

// ParseUserRole 将字符串解析为角色，大小写不敏感
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User 表示用户领域模型
// Email 以小写形式存储，唯一性因此大小写不敏感
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // JSON序列化时忽略密码哈希
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin 判断用户是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest 表示用户注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest 表示用户登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 表示登录成功的响应
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *UserSummary `json:"user"`
}

// UserSummary 登录响应中携带的用户摘要
type UserSummary struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// CreateUserRequest 表示管理员创建用户请求，Role 为空时默认为 user
type CreateUserRequest struct {
	Name     string   `json:"name" binding:"required,min=1,max=100"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6,max=72"`
	Role     UserRole `json:"role" binding:"omitempty,oneof=admin user customer"`
}

// UpdateUserRequest 表示管理员更新用户请求，nil 字段保持不变
type UpdateUserRequest struct {
	Name     *string   `json:"name" binding:"omitempty,min=1,max=100"`
	Email    *string   `json:"email" binding:"omitempty,email"`
	Password *string   `json:"password" binding:"omitempty,min=6,max=72"`
	Role     *UserRole `json:"role" binding:"omitempty,oneof=admin user customer"`
}

// UpdateProfileRequest 表示用户更新自己资料的请求，不允许修改角色
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

// UserListResponse 表示用户列表查询响应
type UserListResponse struct {
	Users []*User `json:"users"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}
