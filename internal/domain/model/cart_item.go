package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// 価格は商品の現在価格を使う（注文時にスナップショットする）
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Quantity  int64     `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// 数量×単価。商品が読み込まれていなければ0。
func (it CartItem) LineTotal() decimal.Decimal {
	if it.Product == nil {
		return decimal.Zero
	}
	return it.Product.Price.Mul(decimal.NewFromInt(it.Quantity))
}
