package validator

import (
	"strings"

	"campusmarket/internal/domain/model"
)

// 配送先住所の入力（注文・住所帳で共通）
type AddressInput struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	ZipCode string `json:"zip_code" validate:"required"`
	Phone   string `json:"phone" validate:"min=9"`
}

func (a AddressInput) trimmed() AddressInput {
	return AddressInput{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Phone:   strings.TrimSpace(a.Phone),
	}
}

func (a AddressInput) toShipping() model.ShippingAddress {
	return model.ShippingAddress{
		Street:  a.Street,
		City:    a.City,
		ZipCode: a.ZipCode,
		Phone:   a.Phone,
	}
}

// POST /orders
// addressかaddress_idのどちらか一方
type CreateOrderRequest struct {
	AddressID string        `json:"address_id" validate:"omitempty,uuid"`
	Address   *AddressInput `json:"address"`
}

type CreateOrder struct {
	//住所帳から使う場合
	AddressID string
	//直接入力の場合
	Address *model.ShippingAddress
}

func ValidateCreateOrder(in CreateOrderRequest) (CreateOrder, error) {
	in.AddressID = strings.ToLower(strings.TrimSpace(in.AddressID))
	if in.Address != nil {
		a := in.Address.trimmed()
		in.Address = &a
	}

	verr := check(in)
	switch {
	case in.Address == nil && in.AddressID == "":
		verr = merge(verr, model.NewValidationError(model.FieldError{Field: "address", Message: "must not be empty"}))
	case in.Address != nil && in.AddressID != "":
		verr = merge(verr, model.NewValidationError(model.FieldError{Field: "address_id", Message: "must not be combined with address"}))
	}
	if err := asError(verr); err != nil {
		return CreateOrder{}, err
	}

	out := CreateOrder{AddressID: in.AddressID}
	if in.Address != nil {
		s := in.Address.toShipping()
		out.Address = &s
	}
	return out, nil
}

// PATCH /orders/:id/status
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}

func ValidateStatusUpdate(in StatusUpdateRequest) (model.OrderStatus, error) {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := asError(check(in)); err != nil {
		return "", err
	}
	return model.OrderStatus(in.Status), nil
}

// 住所帳の作成・更新
func ValidateAddress(in AddressInput) (model.ShippingAddress, error) {
	in = in.trimmed()
	if err := asError(check(in)); err != nil {
		return model.ShippingAddress{}, err
	}
	return in.toShipping(), nil
}
