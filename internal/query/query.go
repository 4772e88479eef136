// Package query 将分页、过滤和搜索参数转换为确定性的列表查询。
//
// 同一个 List 既可以渲染成 SQL 片段（MySQL 仓储），也可以在内存中求值（内存仓储），
// 两者的匹配语义保持一致：精确字段相等，文本字段大小写不敏感的子串匹配，
// search 参数在多个文本字段之间取 OR，空值视为不约束。
package query

import (
	"fmt"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage 页码上限，保证 (page-1)*limit 不会溢出；更大的页码与它一样返回空页
	MaxPage = 1 << 20
)

// PageRequest 原始的分页请求参数
type PageRequest struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string // 结构化过滤条件，键为逻辑字段名
}

// Normalize 规范化页码与每页数量：page < 1 时取 1，limit 缺省或非法时取默认值，超过上限时截断
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// TotalPages 返回 ceil(total / limit)
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Op 条件运算符
type Op int

const (
	OpEqual    Op = iota // 精确相等
	OpContains           // 大小写不敏感的子串匹配
)

// Condition 单个字段条件
type Condition struct {
	Field string
	Op    Op
	Value string
}

func (c Condition) match(get func(field string) string) bool {
	v := get(c.Field)
	switch c.Op {
	case OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	default:
		return v == c.Value
	}
}

// Filter 过滤谓词：All 中的条件全部满足，且 Any 非空时至少满足其一
type Filter struct {
	All []Condition
	Any []Condition
}

// Empty 是否没有任何约束
func (f Filter) Empty() bool {
	return len(f.All) == 0 && len(f.Any) == 0
}

// Match 在内存中求值过滤谓词，get 按逻辑字段名返回记录的字段值
func (f Filter) Match(get func(field string) string) bool {
	for _, c := range f.All {
		if !c.match(get) {
			return false
		}
	}
	if len(f.Any) == 0 {
		return true
	}
	for _, c := range f.Any {
		if c.match(get) {
			return true
		}
	}
	return false
}

// Where 渲染 SQL WHERE 子句与参数，columns 将逻辑字段名映射为列名。
// 没有条件时返回空字符串。
func (f Filter) Where(columns map[string]string) (string, []any, error) {
	if f.Empty() {
		return "", nil, nil
	}
	var (
		parts []string
		args  []any
	)
	for _, c := range f.All {
		sqlPart, arg, err := c.sql(columns)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sqlPart)
		args = append(args, arg)
	}
	if len(f.Any) > 0 {
		var ors []string
		for _, c := range f.Any {
			sqlPart, arg, err := c.sql(columns)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, sqlPart)
			args = append(args, arg)
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}
	return "WHERE " + strings.Join(parts, " AND "), args, nil
}

func (c Condition) sql(columns map[string]string) (string, any, error) {
	col, ok := columns[c.Field]
	if !ok {
		return "", nil, fmt.Errorf("query: no column for field %q", c.Field)
	}
	if c.Op == OpContains {
		return "LOWER(" + col + ") LIKE ?", "%" + escapeLike(strings.ToLower(c.Value)) + "%", nil
	}
	return col + " = ?", c.Value, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，搜索词按字面量匹配
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SortKey 排序键
type SortKey struct {
	Field string
	Desc  bool
}

// DefaultSort 最近创建的在前，id 作为并列时的次序
var DefaultSort = []SortKey{{Field: "created_at", Desc: true}, {Field: "id", Desc: true}}

// List 构建完成的列表查询
type List struct {
	Filter Filter
	Sort   []SortKey
	Page   int
	Limit  int
	Skip   int
}

// OrderBy 渲染 ORDER BY 子句
func (l List) OrderBy(columns map[string]string) (string, error) {
	if len(l.Sort) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(l.Sort))
	for _, k := range l.Sort {
		col, ok := columns[k.Field]
		if !ok {
			return "", fmt.Errorf("query: no column for sort field %q", k.Field)
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		keys = append(keys, col+" "+dir)
	}
	return "ORDER BY " + strings.Join(keys, ", "), nil
}

// Window 返回切片 [Skip, Skip+Limit) 在长度为 n 的结果集中的边界，结果总在 [0, n] 内
func (l List) Window(n int) (start, end int) {
	start = l.Skip
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = n
	if l.Limit >= 0 && l.Limit < n-start {
		end = start + l.Limit
	}
	return start, end
}

// Spec 描述某类资源可用的过滤字段
type Spec struct {
	Exact    []string // 精确匹配字段
	Contains []string // 子串匹配字段
	Search   []string // search 参数展开的字段
	Aliases  map[string]string
}

// Users 用户列表：按角色精确过滤，按姓名、邮箱子串过滤与搜索
var Users = Spec{
	Exact:    []string{"role"},
	Contains: []string{"name", "email"},
	Search:   []string{"name", "email"},
}

// Products 商品列表：按分类精确过滤，按名称子串过滤，搜索名称与描述；keyword 等同于 search
var Products = Spec{
	Exact:    []string{"category"},
	Contains: []string{"name"},
	Search:   []string{"name", "description"},
	Aliases:  map[string]string{"keyword": "search"},
}

// Build 根据请求构建列表查询
func (s Spec) Build(req PageRequest) List {
	page, limit := Normalize(req.Page, req.Limit)

	filters := make(map[string]string, len(req.Filters))
	for k, v := range req.Filters {
		if _, isAlias := s.Aliases[k]; isAlias {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			filters[k] = v
		}
	}
	// 规范字段名优先于别名
	for alias, field := range s.Aliases {
		if _, ok := filters[field]; ok {
			continue
		}
		if v := strings.TrimSpace(req.Filters[alias]); v != "" {
			filters[field] = v
		}
	}

	search := strings.TrimSpace(req.Search)
	if search == "" {
		search = filters["search"]
	}

	var f Filter
	for _, field := range s.Exact {
		if v, ok := filters[field]; ok {
			f.All = append(f.All, Condition{Field: field, Op: OpEqual, Value: v})
		}
	}
	for _, field := range s.Contains {
		if v, ok := filters[field]; ok {
			f.All = append(f.All, Condition{Field: field, Op: OpContains, Value: v})
		}
	}
	if search != "" {
		for _, field := range s.Search {
			f.Any = append(f.Any, Condition{Field: field, Op: OpContains, Value: search})
		}
	}

	return List{
		Filter: f,
		Sort:   DefaultSort,
		Page:   page,
		Limit:  limit,
		Skip:   (page - 1) * limit,
	}
}
