package repository

import (
	"context"
	"time"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 明細と商品（削除済み含む）を読み込む
func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc, id asc")
		}).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		})
}

func activeCartOf(db *gorm.DB, userID string) *gorm.DB {
	return withItems(db).
		Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
		Order("created_at desc")
}

// ユーザーのACTIVEカートを取得し、無ければ作成。
// ACTIVEは部分ユニーク索引で1つなので、同時作成に負けたら勝った方を読み直す
func (r *CartGormRepository) GetOrCreateActiveByUserID(ctx context.Context, userID string, newID string) (model.Cart, error) {
	cart, err := r.LockActiveByUserID(ctx, userID)
	if err == nil || !errors.Is(err, repo.ErrNotFound) {
		return cart, err
	}

	now := time.Now()
	newCart := model.Cart{
		ID:        newID,
		UserID:    userID,
		Status:    model.CartStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	//Tx内ならSAVEPOINTになるので、失敗しても外側のTxは続けられる
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&newCart).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.LockActiveByUserID(ctx, userID)
	}
	if err != nil {
		return model.Cart{}, wrapErr(err, "create cart")
	}

	newCart.Items = []model.CartItem{}
	return newCart, nil
}

// ユーザーのACTIVEカートを取得
func (r *CartGormRepository) FindActiveByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	if err := activeCartOf(r.db.WithContext(ctx), userID).First(&cart).Error; err != nil {
		return model.Cart{}, wrapErr(err, "find active cart")
	}
	return cart, nil
}

// SELECT ... FOR UPDATE。待っている間に確定されたカートはWHEREから外れてErrNotFound
func (r *CartGormRepository) LockActiveByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	err := activeCartOf(r.db.WithContext(ctx), userID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cart).Error
	if err != nil {
		return model.Cart{}, wrapErr(err, "lock active cart")
	}
	return cart, nil
}

// ACTIVE -> CHECKED_OUT。0件ならもう確定済みか放置済み
func (r *CartGormRepository) CheckOut(ctx context.Context, cartID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ? AND status = ?", cartID, model.CartStatusActive).
		Updates(map[string]interface{}{
			"status":     model.CartStatusCheckedOut,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return wrapErr(res.Error, "check out cart")
	}
	if res.RowsAffected == 0 {
		return repo.ErrCartNotActive
	}
	return nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		if err := tx.Where("id = ?", cartID).First(&cart).Error; err != nil {
			return wrapErr(err, "find cart")
		}

		//cart_itemsを全削除
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return wrapErr(err, "clear cart items")
		}

		return nil
	})
}

// 放置カートをABANDONEDにする
// カート本体・明細のどちらもbefore以降に更新されていないもの
func (r *CartGormRepository) AbandonIdle(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("status = ? AND updated_at < ?", model.CartStatusActive, before).
		Where("NOT EXISTS (SELECT 1 FROM cart_items ci WHERE ci.cart_id = carts.id AND ci.updated_at >= ?)", before).
		Updates(map[string]interface{}{
			"status":     model.CartStatusAbandoned,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return 0, wrapErr(res.Error, "abandon idle carts")
	}
	return res.RowsAffected, nil
}
