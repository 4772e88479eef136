package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
)

func TestUserService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, &domain.RegisterRequest{
		Name:     " John ",
		Email:    "John@Example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != domain.UserRoleUser {
		t.Errorf("expected role user, got %s", user.Role)
	}
	if user.Name != "John" || user.Email != "john@example.com" {
		t.Errorf("unexpected user %+v", user)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plaintext")
	}

	resp, err := env.users.Login(ctx, &domain.LoginRequest{Email: "JOHN@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.User.ID != user.ID || resp.User.Role != domain.UserRoleUser {
		t.Errorf("unexpected login user %+v", resp.User)
	}

	p, err := env.tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if p.UserID != user.ID {
		t.Errorf("token subject %d, expected %d", p.UserID, user.ID)
	}
}

func TestUserService_LoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.users.Register(ctx, &domain.RegisterRequest{Name: "Amy", Email: "amy@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	cases := []*domain.LoginRequest{
		{Email: "amy@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "password123"},
	}
	for _, req := range cases {
		_, err := env.users.Login(ctx, req)
		if apperr.KindOf(err) != apperr.KindAuthentication {
			t.Errorf("login %s: expected authentication error, got %v", req.Email, err)
		}
	}
}

func TestUserService_DuplicateEmailConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	req := &domain.CreateUserRequest{Name: "John", Email: "john@example.com", Password: "password123", Role: domain.UserRoleCustomer}
	if _, err := env.users.Create(ctx, req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := &domain.CreateUserRequest{Name: "Impostor", Email: "JOHN@example.com", Password: "password123"}
	_, err := env.users.Create(ctx, dup)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	list, err := env.users.List(ctx, query.PageRequest{Search: "john"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list.Total != 1 {
		t.Errorf("duplicate record created: total=%d", list.Total)
	}
}

func TestUserService_DuplicateEmailRace(t *testing.T) {
	env := newTestEnv()
	svc := NewUserService(racingUserRepository{}, env.hasher, env.tokens, zap.NewNop())

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestUserService_DeleteMissingIsNotFound(t *testing.T) {
	env := newTestEnv()

	err := env.users.Delete(context.Background(), 12345)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, _ := env.users.Create(ctx, &domain.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "password123"})
	b, _ := env.users.Create(ctx, &domain.CreateUserRequest{Name: "B", Email: "b@example.com", Password: "password123"})

	role := domain.UserRoleAdmin
	name := "Alice"
	updated, err := env.users.Update(ctx, a.ID, &domain.UpdateUserRequest{Name: &name, Role: &role})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Alice" || updated.Role != domain.UserRoleAdmin {
		t.Errorf("unexpected user %+v", updated)
	}

	taken := "A@example.com"
	if _, err := env.users.Update(ctx, b.ID, &domain.UpdateUserRequest{Email: &taken}); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("expected conflict, got %v", err)
	}

	bad := domain.UserRole("root")
	if _, err := env.users.Update(ctx, b.ID, &domain.UpdateUserRequest{Role: &bad}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	if _, err := env.users.Update(ctx, 999, &domain.UpdateUserRequest{Name: &name}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUserService_UpdateProfilePassword(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, _ := env.users.Register(ctx, &domain.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123"})

	newPassword := "changed456"
	if _, err := env.users.UpdateProfile(ctx, u.ID, &domain.UpdateProfileRequest{Password: &newPassword}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	if _, err := env.users.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: "password123"}); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := env.users.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: newPassword}); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	got, _ := env.users.Get(ctx, u.ID)
	if got.Role != domain.UserRoleUser {
		t.Errorf("profile update must not change role, got %s", got.Role)
	}
}

func TestUserService_MultibytePasswordOverByteLimit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// 40 个字符但占 80 字节
	long := strings.Repeat("é", 40)
	_, err := env.users.Register(ctx, &domain.RegisterRequest{Name: "A", Email: "a@example.com", Password: long})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	u, err := env.users.Register(ctx, &domain.RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("é", 36)})
	if err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}
	_, err = env.users.UpdateProfile(ctx, u.ID, &domain.UpdateProfileRequest{Password: &long})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error on update, got %v", err)
	}
}

func TestUserService_ListPaginationAndFilters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i := 1; i <= 23; i++ {
		role := domain.UserRoleUser
		if i%5 == 0 {
			role = domain.UserRoleCustomer
		}
		_, err := env.users.Create(ctx, &domain.CreateUserRequest{
			Name:     fmt.Sprintf("member %02d", i),
			Email:    fmt.Sprintf("m%02d@example.com", i),
			Password: "password123",
			Role:     role,
		})
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	for page, want := range map[int]int{1: 10, 2: 10, 3: 3, 0: 10, -2: 10} {
		list, err := env.users.List(ctx, query.PageRequest{Page: page, Limit: 10})
		if err != nil {
			t.Fatalf("List page %d failed: %v", page, err)
		}
		if len(list.Users) != want || list.Pages != 3 || list.Total != 23 {
			t.Errorf("page %d: got %d users, pages=%d, total=%d", page, len(list.Users), list.Pages, list.Total)
		}
		if page < 1 && list.Page != 1 {
			t.Errorf("page %d should clamp to 1, got %d", page, list.Page)
		}
	}

	list, err := env.users.List(ctx, query.PageRequest{Filters: map[string]string{"role": "Customer"}})
	if err != nil {
		t.Fatalf("List by role failed: %v", err)
	}
	if list.Total != 4 {
		t.Errorf("expected 4 customers, got %d", list.Total)
	}

	_, err = env.users.List(ctx, query.PageRequest{Filters: map[string]string{"role": "root"}})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error for unknown role, got %v", err)
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	admin, err := env.users.EnsureAdmin(ctx, "Root", "root@example.com", "password123")
	if err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("expected admin role, got %s", admin.Role)
	}

	again, err := env.users.EnsureAdmin(ctx, "Root", "root@example.com", "other-password")
	if err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}
	if again.ID != admin.ID {
		t.Errorf("EnsureAdmin created a second admin")
	}
	if _, err := env.users.Login(ctx, &domain.LoginRequest{Email: "root@example.com", Password: "password123"}); err != nil {
		t.Errorf("original admin password should still work: %v", err)
	}
}

func TestUserService_StoreFailureIsUnexpected(t *testing.T) {
	env := newTestEnv()
	svc := NewUserService(brokenUserRepository{}, env.hasher, env.tokens, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Get(ctx, 1)
	if apperr.KindOf(err) != apperr.KindUnexpected {
		t.Errorf("expected unexpected error, got %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("cause should be preserved for logging, got %v", err)
	}
	if apperr.PublicMessage(err) != "internal server error" {
		t.Errorf("store detail leaked: %q", apperr.PublicMessage(err))
	}

	if err := svc.Delete(ctx, 1); apperr.KindOf(err) != apperr.KindUnexpected {
		t.Errorf("expected unexpected error, got %v", err)
	}
	if _, err := svc.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: "x"}); apperr.KindOf(err) != apperr.KindUnexpected {
		t.Errorf("expected unexpected error, got %v", err)
	}
}
