package usecase

import (
	"context"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/repository"
	"campusmarket/internal/validator"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// 住所帳。注文にはコピーして使うので、ここでの変更は過去の注文に影響しない
type AddressUsecase struct {
	addresses repository.AddressRepository
	ids       IDGenerator
	clock     Clock
}

func NewAddressUsecase(addresses repository.AddressRepository, ids IDGenerator, clock Clock) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, ids: ids, clock: clock}
}

func (u *AddressUsecase) List(ctx context.Context, userID string) ([]model.Address, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return u.addresses.ListByUserID(ctx, userID)
}

// 最初の住所はデフォルトにする
func (u *AddressUsecase) Create(ctx context.Context, userID string, in validator.AddressInput) (model.Address, error) {
	if err := requireUser(userID); err != nil {
		return model.Address{}, err
	}
	//入力チェック
	s, err := validator.ValidateAddress(in)
	if err != nil {
		return model.Address{}, err
	}

	existing, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return model.Address{}, err
	}

	now := u.clock.Now()
	return u.addresses.Create(ctx, model.Address{
		ID:        u.ids.NewID(),
		UserID:    userID,
		Street:    s.Street,
		City:      s.City,
		ZipCode:   s.ZipCode,
		Phone:     s.Phone,
		IsDefault: len(existing) == 0,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (u *AddressUsecase) Update(ctx context.Context, userID, addressID string, in validator.AddressInput) (model.Address, error) {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}
	s, err := validator.ValidateAddress(in)
	if err != nil {
		return model.Address{}, err
	}

	a.Street = s.Street
	a.City = s.City
	a.ZipCode = s.ZipCode
	a.Phone = s.Phone
	a.UpdatedAt = u.clock.Now()
	if err := u.addresses.Update(ctx, a); err != nil {
		return model.Address{}, u.translate(err, addressID)
	}
	return a, nil
}

// デフォルトを消したら残りの先頭をデフォルトにする
func (u *AddressUsecase) Delete(ctx context.Context, userID, addressID string) error {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if err := u.addresses.Delete(ctx, a.ID); err != nil {
		return u.translate(err, addressID)
	}
	if !a.IsDefault {
		return nil
	}

	rest, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return u.addresses.SetDefault(ctx, userID, rest[0].ID)
	}
	return nil
}

// user内でdefaultは1つ
func (u *AddressUsecase) SetDefault(ctx context.Context, userID, addressID string) (model.Address, error) {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}
	if err := u.addresses.SetDefault(ctx, userID, a.ID); err != nil {
		return model.Address{}, u.translate(err, addressID)
	}
	a.IsDefault = true
	return a, nil
}

// 所有チェック（他人の住所なら403）
func (u *AddressUsecase) owned(ctx context.Context, userID, addressID string) (model.Address, error) {
	if err := requireUser(userID); err != nil {
		return model.Address{}, err
	}
	if _, err := uuid.Parse(addressID); err != nil {
		return model.Address{}, &model.NotFoundError{Resource: "address", ID: addressID}
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		return model.Address{}, u.translate(err, addressID)
	}
	if a.UserID != userID {
		return model.Address{}, &model.ForbiddenError{Message: "address belongs to another user"}
	}
	return a, nil
}

func (u *AddressUsecase) translate(err error, addressID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &model.NotFoundError{Resource: "address", ID: addressID}
	}
	return err
}
