package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/MorseWayne/admin_panel/internal/config"
)

// MaxPasswordBytes bcrypt 只接受不超过 72 字节的输入，按字节而非字符计
const MaxPasswordBytes = 72

// ErrPasswordTooLong 密码超过 MaxPasswordBytes
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher 单向加盐哈希，用于存储与校验密码
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// bcryptHasher 基于 bcrypt 的实现
// bcrypt 每次哈希生成随机盐值，成本因子决定计算量
type bcryptHasher struct {
	cost int
}

// NewPasswordHasher 创建密码哈希器，成本因子被限制在 bcrypt 支持的范围内
func NewPasswordHasher(cfg config.SecurityConfig) PasswordHasher {
	cost := cfg.BcryptCost
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash 生成密码哈希
func (h *bcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify 校验密码；哈希格式错误时返回 false
func (h *bcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
