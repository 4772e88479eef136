// Package middleware 提供 HTTP 中间件：请求 ID、身份认证与角色授权、恢复、超时、CORS、访问日志。
package middleware

import (
	"context"
	"sync/atomic"

	"github.com/MorseWayne/admin_panel/internal/domain"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyPrincipal contextKey = "principal"
	contextKeyIdentity  contextKey = "identity_slot"
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// RequestIDFromContext 从上下文中读取请求 ID（可能为空）。
func RequestIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(contextKeyRequestID).(string)
	return s
}

// identitySlot 由外层中间件（访问日志、恢复）放入上下文。
// 认证发生在更内层的 r.WithContext 上，外层拿不到新的上下文，
// 通过共享的槽位回读本次请求最终认证出的身份。
// 超时后处理协程可能仍在写入，因此用原子指针。
type identitySlot struct {
	p atomic.Pointer[domain.Principal]
}

func withIdentitySlot(ctx context.Context) (context.Context, *identitySlot) {
	if slot, ok := ctx.Value(contextKeyIdentity).(*identitySlot); ok {
		return ctx, slot
	}
	slot := &identitySlot{}
	return context.WithValue(ctx, contextKeyIdentity, slot), slot
}

// principal 返回槽位中记录的身份
func (s *identitySlot) principal() (domain.Principal, bool) {
	if p := s.p.Load(); p != nil {
		return *p, true
	}
	return domain.Principal{}, false
}

// WithPrincipal 将身份写入上下文，并同步到外层中间件的槽位
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	if slot, ok := ctx.Value(contextKeyIdentity).(*identitySlot); ok {
		slot.p.Store(&p)
	}
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext 从请求上下文中获取当前身份
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(domain.Principal)
	return p, ok
}
