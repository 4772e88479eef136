// Package domain 定义商品相关的业务领域模型和核心业务规则。
package domain

import (
	"time"
)

// Product 表示商品领域模型
type Product struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Price       float64      `json:"price"`
	Description string       `json:"description"`
	ImageURL    string       `json:"image_url,omitempty"`
	CategoryID  int64        `json:"category_id"`
	Category    *CategoryRef `json:"category,omitempty"` // 列表和详情中回填的分类信息
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CategoryRef 商品引用的分类摘要
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateProductRequest 表示创建商品请求
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Price       float64 `json:"price" binding:"gte=0"`
	Description string  `json:"description" binding:"max=2000"`
	ImageURL    string  `json:"image_url" binding:"omitempty,max=512"`
	CategoryID  int64   `json:"category_id" binding:"required,gt=0"`
}

// UpdateProductRequest 表示更新商品请求，nil 字段保持不变
type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	ImageURL    *string  `json:"image_url" binding:"omitempty,max=512"`
	CategoryID  *int64   `json:"category_id" binding:"omitempty,gt=0"`
}

// ProductListResponse 表示商品列表查询响应
type ProductListResponse struct {
	Products []*Product `json:"products"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Pages    int        `json:"pages"`
}
