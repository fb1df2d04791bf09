package repository

import (
	"context"
	"errors"

	"campusmarket/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反
var ErrDuplicate = errors.New("duplicate key")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
	// trueならSellerIDsの出品だけ（空なら0件）
	FilterSellers bool
	SellerIDs     []string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// 公開中（is_active・未削除）のみ
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
}
