package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
)

func createCategory(t *testing.T, env *testEnv, name string) *domain.Category {
	t.Helper()
	c, err := env.categories.Create(context.Background(), &domain.CreateCategoryRequest{Name: name})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func TestProductService_Create(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	books := createCategory(t, env, "Books")

	p, err := env.products.Create(ctx, &domain.CreateProductRequest{
		Name:       " Go in Action ",
		Price:      39.9,
		CategoryID: books.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == 0 || p.Name != "Go in Action" {
		t.Errorf("unexpected product %+v", p)
	}

	got, err := env.products.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Category == nil || got.Category.Name != "Books" {
		t.Errorf("category not resolved: %+v", got.Category)
	}
}

func TestProductService_CreateUnknownCategory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.products.Create(ctx, &domain.CreateProductRequest{Name: "Orphan", Price: 1, CategoryID: 404})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	list, _ := env.products.List(ctx, query.PageRequest{})
	if list.Total != 0 {
		t.Errorf("product should not be stored, total=%d", list.Total)
	}
}

func TestProductService_CreateNegativePrice(t *testing.T) {
	env := newTestEnv()
	books := createCategory(t, env, "Books")

	_, err := env.products.Create(context.Background(), &domain.CreateProductRequest{Name: "Bad", Price: -1, CategoryID: books.ID})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestProductService_Update(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	books := createCategory(t, env, "Books")
	games := createCategory(t, env, "Games")

	p, _ := env.products.Create(ctx, &domain.CreateProductRequest{Name: "Chess", Price: 10, Description: "board", CategoryID: books.ID})

	price := 12.5
	updated, err := env.products.Update(ctx, p.ID, &domain.UpdateProductRequest{Price: &price, CategoryID: &games.ID})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Price != 12.5 || updated.CategoryID != games.ID {
		t.Errorf("unexpected product %+v", updated)
	}
	if updated.Name != "Chess" || updated.Description != "board" {
		t.Errorf("unchanged fields were modified: %+v", updated)
	}

	missing := int64(999)
	if _, err := env.products.Update(ctx, p.ID, &domain.UpdateProductRequest{CategoryID: &missing}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := env.products.Update(ctx, 999, &domain.UpdateProductRequest{Price: &price}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestProductService_Delete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	books := createCategory(t, env, "Books")
	p, _ := env.products.Create(ctx, &domain.CreateProductRequest{Name: "Chess", Price: 10, CategoryID: books.ID})

	if err := env.products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := env.products.Delete(ctx, p.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("second delete: expected not found, got %v", err)
	}
	if _, err := env.products.Get(ctx, p.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestProductService_ListFilters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	books := createCategory(t, env, "Books")
	games := createCategory(t, env, "Games")

	for i := 0; i < 6; i++ {
		category := books.ID
		if i%2 == 1 {
			category = games.ID
		}
		_, err := env.products.Create(ctx, &domain.CreateProductRequest{
			Name:        fmt.Sprintf("item %d", i),
			Price:       float64(i),
			Description: fmt.Sprintf("desc %d", i*10),
			CategoryID:  category,
		})
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	byCategory, err := env.products.List(ctx, query.PageRequest{
		Filters: map[string]string{"category": strconv.FormatInt(games.ID, 10)},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if byCategory.Total != 3 {
		t.Errorf("expected 3 games, got %d", byCategory.Total)
	}
	for _, p := range byCategory.Products {
		if p.CategoryID != games.ID {
			t.Errorf("product %d belongs to category %d", p.ID, p.CategoryID)
		}
	}

	// 描述中的匹配也计入搜索
	bySearch, err := env.products.List(ctx, query.PageRequest{Search: "desc 40"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if bySearch.Total != 1 || bySearch.Products[0].Name != "item 4" {
		t.Errorf("unexpected search result %+v", bySearch)
	}

	paged, _ := env.products.List(ctx, query.PageRequest{Page: 2, Limit: 4})
	if len(paged.Products) != 2 || paged.Pages != 2 || paged.Page != 2 {
		t.Errorf("unexpected page %+v", paged)
	}

	for _, bad := range []string{"abc", "-3", "0"} {
		_, err := env.products.List(ctx, query.PageRequest{Filters: map[string]string{"category": bad}})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("category %q: expected validation error, got %v", bad, err)
		}
	}
}
