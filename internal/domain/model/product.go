package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品の状態
type ProductCondition string

const (
	ConditionNew     ProductCondition = "new"
	ConditionUsed    ProductCondition = "used"
	ConditionDamaged ProductCondition = "damaged"
)

func (c ProductCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionDamaged:
		return true
	}
	return false
}

// 出品形式
type ListingType string

const (
	ListingAuction ListingType = "auction"
	ListingBuyNow  ListingType = "buy_now"
)

func (t ListingType) Valid() bool {
	return t == ListingAuction || t == ListingBuyNow
}

// 出品された商品
type Product struct {
	ID          string           `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID    string           `gorm:"type:uuid;not null;index" json:"seller_id"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Price       decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"price"`
	ImageURL    string           `gorm:"type:text" json:"image_url"`
	Category    string           `gorm:"type:varchar(50);index" json:"category"`
	Condition   ProductCondition `gorm:"type:varchar(20);not null" json:"condition"`
	ListingType ListingType      `gorm:"type:varchar(20);not null" json:"listing_type"`
	Location    string           `gorm:"type:varchar(255)" json:"location"`
	//在庫（0以上）
	Stock     int64 `gorm:"not null;check:stock >= 0" json:"stock"`
	ViewCount int64 `gorm:"not null;default:0" json:"view_count"`
	IsActive  bool  `gorm:"not null;default:true" json:"is_active"`
	//オークションのみ
	EndsAt    *time.Time     `json:"ends_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p Product) IsAuction() bool {
	return p.ListingType == ListingAuction
}

// カートに入れられるか（非公開・削除済み・オークションは不可）
func (p Product) Purchasable() bool {
	if !p.IsActive || p.DeletedAt.Valid {
		return false
	}
	return !p.IsAuction()
}

// オークションが終了しているか
func (p Product) Ended(now time.Time) bool {
	return p.EndsAt != nil && !p.EndsAt.After(now)
}
