package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/resp"
)

// Recovery 捕获处理链中的 panic，按内部错误记录并响应统一的 500 结构。
// http.ErrAbortHandler 是中止响应的约定信号，继续向上抛出。
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, slot := withIdentitySlot(r.Context())
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := apperr.Unexpected(fmt.Errorf("panic: %v", rec))
				reqID := RequestIDFromContext(ctx)
				fields := []zap.Field{
					zap.String("request_id", reqID),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
					zap.ByteString("stack", debug.Stack()),
				}
				if p, ok := slot.principal(); ok {
					fields = append(fields, zap.Int64("user_id", p.UserID), zap.String("role", string(p.Role)))
				}
				logger.Error("panic recovered", fields...)

				status, code := apperr.HTTPStatus(err)
				resp.Error(w, status, code, apperr.PublicMessage(err), reqID, "")
			}()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
