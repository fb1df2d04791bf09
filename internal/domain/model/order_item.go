package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。購入時点の商品名・価格を保存する。
type OrderItem struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID           string          `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID         string          `gorm:"type:uuid;not null;index" json:"product_id"`
	TitleSnapshot     string          `gorm:"type:varchar(255);not null" json:"title"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity))
}
