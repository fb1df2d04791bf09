package auth

import (
	"strings"

	"campusmarket/internal/domain/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// よく使われるパスワード（小文字で比較）
var commonPasswords = map[string]struct{}{
	"password":     {},
	"password123":  {},
	"12345678":     {},
	"1234567890":   {},
	"123456789012": {},
	"qwertyuiop":   {},
	"letmein123":   {},
	"admin123":     {},
	"student123":   {},
	"campus123":    {},
}

// 長さはvalidatorで見ている。ここは中身
func checkPasswordPolicy(email, password string) error {
	normalized := strings.ToLower(strings.TrimSpace(password))
	if _, ok := commonPasswords[normalized]; ok {
		return model.NewValidationError(model.FieldError{Field: "password", Message: "is too common"})
	}
	if local, _, _ := strings.Cut(email, "@"); len(local) >= 4 && strings.Contains(normalized, local) {
		return model.NewValidationError(model.FieldError{Field: "password", Message: "must not contain the email name"})
	}
	return nil
}

type BcryptPasswordHasher struct {
	cost int
}

// 0以下ならbcrypt.DefaultCost
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash")
	}
	return string(b), nil
}

type BcryptPasswordVerifier struct{}

func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 不一致以外のエラー（壊れたハッシュ）はログに残して不一致扱い
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		zap.L().Warn("password hash unreadable", zap.Error(err))
	}
	return err == nil
}
