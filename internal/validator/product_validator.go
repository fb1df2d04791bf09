package validator

import (
	"strings"
	"time"

	"campusmarket/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 出品・更新の入力
type ProductRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price" validate:"-"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Category    string          `json:"category" validate:"max=50"`
	Condition   string          `json:"condition" validate:"required,oneof=new used damaged"`
	ListingType string          `json:"listing_type" validate:"required,oneof=auction buy_now"`
	Location    string          `json:"location" validate:"max=255"`
	Stock       int64           `json:"stock" validate:"gte=0"`
	EndsAt      *time.Time      `json:"ends_at"`
}

type ProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	Condition   model.ProductCondition
	ListingType model.ListingType
	Location    string
	Stock       int64
	EndsAt      *time.Time
}

// ValidateProduct は出品内容を検証する。オークションは終了日時が未来であること。
func ValidateProduct(in ProductRequest, now time.Time) (ProductInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Location = strings.TrimSpace(in.Location)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	verr := check(in)
	if in.Price.IsNegative() {
		verr = merge(verr, model.NewValidationError(model.FieldError{Field: "price", Message: "must be at least 0"}))
	}
	if model.ListingType(in.ListingType) == model.ListingAuction {
		switch {
		case in.EndsAt == nil:
			verr = merge(verr, model.NewValidationError(model.FieldError{Field: "ends_at", Message: "must not be empty for auction listings"}))
		case !in.EndsAt.After(now):
			verr = merge(verr, model.NewValidationError(model.FieldError{Field: "ends_at", Message: "must be in the future"}))
		}
	}
	if err := asError(verr); err != nil {
		return ProductInput{}, err
	}

	out := ProductInput{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price.Round(2),
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		Condition:   model.ProductCondition(in.Condition),
		ListingType: model.ListingType(in.ListingType),
		Location:    in.Location,
		Stock:       in.Stock,
	}
	//即決は終了日時を持たない
	if out.ListingType == model.ListingAuction {
		t := in.EndsAt.UTC()
		out.EndsAt = &t
	}
	return out, nil
}

// GET /products
type ListProductsRequest struct {
	Page         int    `json:"page" validate:"gte=1"`
	Limit        int    `json:"limit" validate:"gte=1,lte=100"`
	Q            string `json:"q" validate:"max=100"`
	Category     string `json:"category" validate:"max=50"`
	Sort         string `json:"sort" validate:"omitempty,oneof=new price_asc price_desc popular"`
	OnlyFollowed bool   `json:"onlyFollowed"`
}

func ValidateListProducts(in ListProductsRequest) (ListProductsRequest, error) {
	in.Q = strings.TrimSpace(in.Q)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if err := asError(check(in)); err != nil {
		return ListProductsRequest{}, err
	}
	if in.Sort == "" {
		in.Sort = "new"
	}
	return in, nil
}

// 管理者の在庫更新
type InventoryRequest struct {
	Stock  int64  `json:"stock" validate:"gte=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

func ValidateInventory(in InventoryRequest) (InventoryRequest, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := asError(check(in)); err != nil {
		return InventoryRequest{}, err
	}
	return in, nil
}
