package repository

import (
	"context"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	"gorm.io/gorm"
)

// 住所帳
type addressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

func (r *addressGormRepository) Create(ctx context.Context, a model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.Address{}, wrapErr(err, "insert address")
	}
	return a, nil
}

// defaultが先頭、あとは登録順
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	out := []model.Address{}
	err := r.db.WithContext(ctx).
		Scopes(ownedBy(userID)).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, wrapErr(err, "select addresses")
	}
	return out, nil
}

func (r *addressGormRepository) FindByID(ctx context.Context, addressID string) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).Take(&a, "id = ?", addressID).Error
	return a, wrapErr(err, "select address")
}

// 住所の中身だけ。所有者とdefaultは変えない
func (r *addressGormRepository) Update(ctx context.Context, a model.Address) error {
	res := r.db.WithContext(ctx).
		Model(&model.Address{ID: a.ID}).
		Updates(map[string]interface{}{
			"street":     a.Street,
			"city":       a.City,
			"zip_code":   a.ZipCode,
			"phone":      a.Phone,
			"updated_at": a.UpdatedAt,
		})
	return affectedOne(res, "update address")
}

func (r *addressGormRepository) Delete(ctx context.Context, addressID string) error {
	res := r.db.WithContext(ctx).Delete(&model.Address{}, "id = ?", addressID)
	return affectedOne(res, "delete address")
}

// 1文でそのユーザーの全住所のis_defaultを書き換える。
// addressIDがこのユーザーのものでなければ何も変えない
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Scopes(ownedBy(userID)).
		Where("EXISTS (SELECT 1 FROM addresses AS own WHERE own.id = ? AND own.user_id = ?)", addressID, userID).
		Update("is_default", gorm.Expr("id = ?", addressID))
	return affectedOne(res, "set default address")
}

// 0件ならErrNotFound
func affectedOne(res *gorm.DB, msg string) error {
	if res.Error != nil {
		return wrapErr(res.Error, msg)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
