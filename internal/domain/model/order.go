package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// 全ステータス（表示・検証用）
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// 注文時点の配送先（住所帳の変更は過去の注文に影響しない）
type ShippingAddress struct {
	Street  string `gorm:"type:varchar(255);not null" json:"street"`
	City    string `gorm:"type:varchar(255);not null" json:"city"`
	ZipCode string `gorm:"type:varchar(20);not null" json:"zip_code"`
	Phone   string `gorm:"type:varchar(30);not null" json:"phone"`
}

type Order struct {
	ID      string          `gorm:"type:uuid;primaryKey" json:"id"`
	Number  int64           `gorm:"not null;uniqueIndex" json:"number"`
	UserID  string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Status  OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Address ShippingAddress `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Items   []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`

	Subtotal     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingCost decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`

	//二重送信防止キー（任意）
	IdempotencyKey *string   `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}
