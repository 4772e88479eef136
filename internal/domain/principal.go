package domain

// Principal 是通过令牌校验后附加到请求上下文的身份
type Principal struct {
	UserID int64
	Role   UserRole
}

// Allow 判断身份的角色是否在允许集合内，纯函数
func Allow(p Principal, allowed ...UserRole) bool {
	for _, r := range allowed {
		if p.Role == r {
			return true
		}
	}
	return false
}
