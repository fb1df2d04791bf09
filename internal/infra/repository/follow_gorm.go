package repository

import (
	"context"
	"time"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type followGormRepository struct {
	db *gorm.DB
}

// DI
func NewFollowGormRepository(db *gorm.DB) repo.FollowRepository {
	return &followGormRepository{db: db}
}

func (r *followGormRepository) Follow(ctx context.Context, followerID, sellerID string) error {
	f := model.Follow{FollowerID: followerID, SellerID: sellerID, CreatedAt: time.Now()}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&f).Error; err != nil {
		return wrapErr(err, "follow seller")
	}
	return nil
}

func (r *followGormRepository) Unfollow(ctx context.Context, followerID, sellerID string) error {
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND seller_id = ?", followerID, sellerID).
		Delete(&model.Follow{}).Error; err != nil {
		return wrapErr(err, "unfollow seller")
	}
	return nil
}

func (r *followGormRepository) ListSellerIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ?", followerID).
		Order("seller_id asc").
		Pluck("seller_id", &ids).Error; err != nil {
		return nil, wrapErr(err, "list followed sellers")
	}
	return ids, nil
}
