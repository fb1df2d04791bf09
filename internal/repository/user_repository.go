package repository

import (
	"context"

	"campusmarket/internal/domain/model"

	"github.com/pkg/errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// emailの一意制約違反
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository は購入者・出品者・管理者を区別せずに扱う。
// 見つからない場合はErrUserNotFoundを返す
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	// emailは小文字に正規化済みで渡す
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// LastLoginAtと有効フラグの更新に使う
	Update(ctx context.Context, user *model.User) error
}
