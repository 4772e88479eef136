// Package repo 提供数据访问层实现，负责与数据库交互。
// 仓储模式（Repository Pattern）将数据访问逻辑与业务逻辑分离，
// 使得业务逻辑不依赖于具体的数据存储实现。
//
// 约定：按主键或唯一键查询不到记录时返回 (nil, nil)；
// 更新、删除的目标不存在时返回 ErrNotFound；唯一索引冲突返回 ErrDuplicate。
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
)

// UserRepository 定义用户数据访问接口
// 使用接口可以方便单元测试时进行模拟（mock）
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, l query.List) ([]*domain.User, int64, error)
}

const userColumns = "id, name, email, password_hash, role, created_at, updated_at"

// userListColumns 列表查询中逻辑字段到列名的映射
var userListColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
}

// userRepo 是 UserRepository 接口的 MySQL 实现
type userRepo struct {
	db *sql.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

// Create 创建新用户，回填 ID 与时间戳
// 注意：这里不处理密码哈希，密码哈希应该在服务层处理
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	const q = `INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, q, user.Name, user.Email, user.PasswordHash, string(user.Role))
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if created == nil {
		return fmt.Errorf("create user: row %d vanished after insert", id)
	}
	*user = *created
	return nil
}

// GetByID 根据ID查询用户
func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByEmail 根据邮箱查询用户，邮箱按小写存储
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", domain.NormalizeEmail(email))
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// Update 更新用户的可变字段
func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	const q = `UPDATE users SET name = ?, email = ?, password_hash = ?, role = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, q, user.Name, user.Email, user.PasswordHash, string(user.Role), user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
	return nil
}

// Delete 删除用户
func (r *userRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// List 分页查询用户，总数基于同一过滤条件单独统计
func (r *userRepo) List(ctx context.Context, l query.List) ([]*domain.User, int64, error) {
	where, args, err := l.Filter.Where(userListColumns)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := l.OrderBy(userListColumns)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q := fmt.Sprintf("SELECT %s FROM users %s %s LIMIT ? OFFSET ?", userColumns, where, orderBy)
	rows, err := r.db.QueryContext(ctx, q, append(args, l.Limit, l.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, l.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// rowScanner 同时适配 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var role string
	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // 用户不存在
	}
	if err != nil {
		return nil, err
	}
	user.Role = domain.UserRole(role)
	return user, nil
}

// requireAffected 没有行受影响时返回 ErrNotFound
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
