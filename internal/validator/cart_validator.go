package validator

import "strings"

// POST /cart
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"gte=1"`
}

// PATCH /cart/:itemId
type UpdateQuantityRequest struct {
	Quantity int64 `json:"quantity" validate:"gte=1"`
}

// 検証済みの入力
type AddToCart struct {
	ProductID string
	Quantity  int64
}

func ValidateAddToCart(in AddToCartRequest) (AddToCart, error) {
	//uuidタグは小文字しか通さないので先にそろえる
	in.ProductID = strings.ToLower(strings.TrimSpace(in.ProductID))
	if err := asError(check(in)); err != nil {
		return AddToCart{}, err
	}
	return AddToCart{ProductID: in.ProductID, Quantity: in.Quantity}, nil
}

func ValidateUpdateQuantity(in UpdateQuantityRequest) (int64, error) {
	if err := asError(check(in)); err != nil {
		return 0, err
	}
	return in.Quantity, nil
}
