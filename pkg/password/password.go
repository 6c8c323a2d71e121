package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength bcrypt 只处理前 72 字节，超出部分直接拒绝
const MaxLength = 72

// ErrTooLong 密码超过 bcrypt 上限
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Hasher 密码哈希器，成本由配置注入
type Hasher struct {
	cost  int
	dummy []byte // 用户不存在时用于比对，保持耗时一致
}

// NewHasher 创建哈希器，cost 超出 bcrypt 范围时使用默认值
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy-password"), cost)
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash 生成密码哈希
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > MaxLength {
		return "", ErrTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 校验密码
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyDummy 对固定哈希做一次比对，结果恒为 false
func (h *Hasher) VerifyDummy(plain string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
	return false
}
