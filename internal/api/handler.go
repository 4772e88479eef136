// Package api 提供HTTP API处理器实现。
// API层负责处理HTTP请求/响应，进行数据验证和格式转换。
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/middleware"
	"github.com/MorseWayne/admin_panel/internal/query"
	"github.com/MorseWayne/admin_panel/internal/resp"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator 使用 binding 标签，错误中的字段名取 json 名
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeAndValidate 解析请求体并校验，失败时返回 Validation 错误
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body required")
		}
		return apperr.Validation("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.Validation(validationMessage(err))
	}
	return nil
}

// validationMessage 将 validator 错误翻译为可读信息
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// writeError 按错误类型写出响应，非预期错误记录日志且不向客户端暴露细节
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if middleware.HandleTimeout(w, r) {
		return
	}

	reqID := middleware.RequestIDFromContext(r.Context())
	status, code := apperr.HTTPStatus(err)
	if apperr.KindOf(err) == apperr.KindUnexpected {
		logger.Error("request failed",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	resp.Error(w, status, code, apperr.PublicMessage(err), reqID, "")
}

// pathID 读取路径参数 id
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id")
	}
	return id, nil
}

// pageRequest 从查询串构造分页请求，除 page/limit/search 外的参数都作为过滤条件
func pageRequest(r *http.Request) (query.PageRequest, error) {
	q := r.URL.Query()
	req := query.PageRequest{
		Search:  q.Get("search"),
		Filters: make(map[string]string),
	}

	var err error
	if req.Page, err = intParam(q.Get("page")); err != nil {
		return req, apperr.Validation("page must be an integer")
	}
	if req.Limit, err = intParam(q.Get("limit")); err != nil {
		return req, apperr.Validation("limit must be an integer")
	}

	for k, v := range q {
		switch k {
		case "page", "limit", "search":
			continue
		}
		if len(v) > 0 {
			req.Filters[k] = v[0]
		}
	}
	return req, nil
}

// intParam 空串视为未指定
func intParam(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
