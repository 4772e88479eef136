package repo

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
)

// MemoryStore 进程内存储，供 DB_DRIVER=memory 的本地开发和端到端测试使用。
// 三个仓储共享同一把读写锁，唯一性与引用检查在锁内完成。
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	seq        int64
	users      map[int64]*domain.User
	categories map[int64]*domain.Category
	products   map[int64]*domain.Product
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:        time.Now,
		users:      make(map[int64]*domain.User),
		categories: make(map[int64]*domain.Category),
		products:   make(map[int64]*domain.Product),
	}
}

func (s *MemoryStore) nextID() int64 {
	s.seq++
	return s.seq
}

// Users 返回用户仓储
func (s *MemoryStore) Users() UserRepository { return &memoryUserRepo{s} }

// Categories 返回分类仓储
func (s *MemoryStore) Categories() CategoryRepository { return &memoryCategoryRepo{s} }

// Products 返回商品仓储
func (s *MemoryStore) Products() ProductRepository { return &memoryProductRepo{s} }

// newestFirst 与 query.DefaultSort 一致：created_at 降序，id 降序
func newestFirst(aCreated, bCreated time.Time, aID, bID int64) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID > bID
}

type memoryUserRepo struct{ s *MemoryStore }

func (r *memoryUserRepo) emailTaken(email string, exceptID int64) bool {
	for _, u := range r.s.users {
		if u.ID != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = domain.NormalizeEmail(user.Email)
	if r.emailTaken(user.Email, 0) {
		return ErrDuplicate
	}
	now := r.s.now()
	user.ID = r.s.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = domain.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	user.Email = domain.NormalizeEmail(user.Email)
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicate
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.s.now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *memoryUserRepo) List(_ context.Context, l query.List) ([]*domain.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*domain.User, 0)
	for _, u := range r.s.users {
		get := func(field string) string {
			switch field {
			case "name":
				return u.Name
			case "email":
				return u.Email
			case "role":
				return string(u.Role)
			}
			return ""
		}
		if l.Filter.Match(get) {
			out := *u
			matched = append(matched, &out)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	start, end := l.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

type memoryCategoryRepo struct{ s *MemoryStore }

func (r *memoryCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	category.Name = strings.TrimSpace(category.Name)
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return ErrDuplicate
		}
	}
	category.ID = r.s.nextID()
	category.CreatedAt = r.s.now()
	stored := *category
	r.s.categories[category.ID] = &stored
	return nil
}

func (r *memoryCategoryRepo) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *memoryCategoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryProductRepo struct{ s *MemoryStore }

// withCategory 复制商品并回填分类信息，调用方持有锁
func (r *memoryProductRepo) withCategory(p *domain.Product) *domain.Product {
	out := *p
	out.Category = nil
	if c, ok := r.s.categories[p.CategoryID]; ok {
		out.Category = &domain.CategoryRef{ID: c.ID, Name: c.Name}
	}
	return &out
}

func (r *memoryProductRepo) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[product.CategoryID]; !ok {
		return ErrReference
	}
	now := r.s.now()
	product.ID = r.s.nextID()
	product.CreatedAt, product.UpdatedAt = now, now
	stored := *product
	stored.Category = nil
	r.s.products[product.ID] = &stored
	*product = *r.withCategory(&stored)
	return nil
}

func (r *memoryProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return r.withCategory(p), nil
}

func (r *memoryProductRepo) Update(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.products[product.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := r.s.categories[product.CategoryID]; !ok {
		return ErrReference
	}
	stored := *product
	stored.Category = nil
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.s.now()
	r.s.products[product.ID] = &stored
	return nil
}

func (r *memoryProductRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *memoryProductRepo) List(_ context.Context, l query.List) ([]*domain.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*domain.Product, 0)
	for _, p := range r.s.products {
		get := func(field string) string {
			switch field {
			case "name":
				return p.Name
			case "description":
				return p.Description
			case "category":
				return strconv.FormatInt(p.CategoryID, 10)
			}
			return ""
		}
		if l.Filter.Match(get) {
			matched = append(matched, r.withCategory(p))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	start, end := l.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}
