package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MorseWayne/admin_panel/internal/domain"
)

// CategoryRepository 定义分类数据访问接口
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

type categoryRepo struct {
	db *sql.DB
}

// NewCategoryRepository 创建分类仓储实例
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

// Create 创建分类，名称冲突时返回 ErrDuplicate（表使用大小写不敏感的排序规则）
func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	result, err := r.db.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", category.Name)
	if err != nil {
		return fmt.Errorf("create category: %w", translate(err))
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
		return fmt.Errorf("create category: row %d vanished after insert", id)
	}
	*category = *created
	return nil
}

// GetByID 根据ID查询分类
func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

// List 按名称返回全部分类
func (r *categoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, created_at FROM categories ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
