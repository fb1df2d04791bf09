package repository

import (
	"context"
	"time"

	"campusmarket/internal/domain/model"

	"github.com/pkg/errors"
)

// CheckOutで対象カートがもうACTIVEでない
var ErrCartNotActive = errors.New("cart is not active")

type CartRepository interface {
	// ACTIVEなカートを明細・商品つきで返す。無ければ作る。
	// トランザクション内では行ロックを取る
	GetOrCreateActiveByUserID(ctx context.Context, userID string, newID string) (model.Cart, error)
	FindActiveByUserID(ctx context.Context, userID string) (model.Cart, error)
	// 注文確定用。Txが終わるまで同じユーザーの確定を待たせる
	LockActiveByUserID(ctx context.Context, userID string) (model.Cart, error)
	// ACTIVEのときだけCHECKED_OUTにする。それ以外はErrCartNotActive
	CheckOut(ctx context.Context, cartID string) error
	Clear(ctx context.Context, cartID string) error
	// beforeより更新が古いACTIVEカートをABANDONEDにする。件数を返す
	AbandonIdle(ctx context.Context, before time.Time) (int64, error)
}
