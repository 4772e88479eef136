package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MorseWayne/admin_panel/internal/config"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
	"github.com/MorseWayne/admin_panel/internal/repo"
)

var errStoreDown = errors.New("connection refused")

// brokenUserRepository 所有操作都返回存储故障
type brokenUserRepository struct{}

func (brokenUserRepository) Create(context.Context, *domain.User) error { return errStoreDown }
func (brokenUserRepository) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, errStoreDown
}
func (brokenUserRepository) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, errStoreDown
}
func (brokenUserRepository) Update(context.Context, *domain.User) error { return errStoreDown }
func (brokenUserRepository) Delete(context.Context, int64) error { return errStoreDown }
func (brokenUserRepository) List(context.Context, query.List) ([]*domain.User, int64, error) {
	return nil, 0, errStoreDown
}

// racingUserRepository 模拟检查与插入之间被并发注册抢先：查询总是为空，插入报唯一冲突
type racingUserRepository struct {
	repo.UserRepository
}

func (racingUserRepository) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, nil
}
func (racingUserRepository) Create(context.Context, *domain.User) error { return repo.ErrDuplicate }

type testEnv struct {
	store      *repo.MemoryStore
	clock      *testClock
	hasher     PasswordHasher
	tokens     JWTService
	users      UserService
	categories CategoryService
	products   ProductService
}

func newTestEnv() *testEnv {
	store := repo.NewMemoryStore()
	clock := newTestClock()
	hasher := NewPasswordHasher(config.SecurityConfig{BcryptCost: bcrypt.MinCost})
	tokens := createTestJWTService(clock)
	lg := zap.NewNop()

	return &testEnv{
		store:      store,
		clock:      clock,
		hasher:     hasher,
		tokens:     tokens,
		users:      NewUserService(store.Users(), hasher, tokens, lg),
		categories: NewCategoryService(store.Categories(), lg),
		products:   NewProductService(store.Products(), store.Categories(), lg),
	}
}
