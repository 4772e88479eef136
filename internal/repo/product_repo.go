package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
)

// ProductRepository 定义商品数据访问接口
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, l query.List) ([]*domain.Product, int64, error)
}

const productSelect = `
		SELECT p.id, p.name, p.price, p.description, p.image_url, p.category_id, c.name, p.created_at, p.updated_at
		FROM products p LEFT JOIN categories c ON c.id = p.category_id`

var productListColumns = map[string]string{
	"id":          "p.id",
	"name":        "p.name",
	"description": "p.description",
	"category":    "p.category_id",
	"created_at":  "p.created_at",
}

// productRepo 实现ProductRepository接口
type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

// Create 创建商品，分类不存在时返回 ErrReference
func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	const q = `
		INSERT INTO products (name, price, description, image_url, category_id)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, q,
		product.Name,
		product.Price,
		product.Description,
		product.ImageURL,
		product.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", translate(err))
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
		return fmt.Errorf("create product: row %d vanished after insert", id)
	}
	*product = *created
	return nil
}

// GetByID 根据ID获取商品，附带分类名称
func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+" WHERE p.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// Update 更新商品
func (r *productRepo) Update(ctx context.Context, product *domain.Product) error {
	const q = `
		UPDATE products
		SET name = ?, price = ?, description = ?, image_url = ?, category_id = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, q,
		product.Name,
		product.Price,
		product.Description,
		product.ImageURL,
		product.CategoryID,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", translate(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("update product %d: %w", product.ID, err)
	}
	return nil
}

// Delete 删除商品
func (r *productRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}

// List 获取商品列表
func (r *productRepo) List(ctx context.Context, l query.List) ([]*domain.Product, int64, error) {
	where, args, err := l.Filter.Where(productListColumns)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := l.OrderBy(productListColumns)
	if err != nil {
		return nil, 0, err
	}

	// 总数基于过滤条件而不是当前页
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	q := fmt.Sprintf("%s %s %s LIMIT ? OFFSET ?", productSelect, where, orderBy)
	rows, err := r.db.QueryContext(ctx, q, append(args, l.Limit, l.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0, l.Limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	return products, total, nil
}

func scanProduct(s rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	var categoryName sql.NullString
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.ImageURL,
		&p.CategoryID,
		&categoryName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if categoryName.Valid {
		p.Category = &domain.CategoryRef{ID: p.CategoryID, Name: categoryName.String}
	}
	return p, nil
}
