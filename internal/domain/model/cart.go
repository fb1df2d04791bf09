package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
	CartStatusAbandoned  CartStatus = "ABANDONED"
)

// 1ユーザーにつきACTIVEは1つ
// 同じ商品の明細は1つだけ（数量をまとめる）
type Cart struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Status    CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// 合計
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOfItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// 明細を取得
func (c *Cart) FindItem(itemID string) (CartItem, bool) {
	i := c.indexOfItem(itemID)
	if i < 0 {
		return CartItem{}, false
	}
	return c.Items[i], true
}

// 商品の明細を取得
func (c *Cart) ItemForProduct(productID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// AddItem は商品を追加する。同一商品は数量を加算する。
// 在庫チェックはproduct.Stock（呼び出し側のスナップショット）に対して行う。
// エラー時はカートを変更しない。
func (c *Cart) AddItem(product Product, quantity int64, newID string) (CartItem, error) {
	if quantity < 1 {
		return CartItem{}, NewValidationError(FieldError{Field: "quantity", Message: "must be at least 1"})
	}

	for i := range c.Items {
		if c.Items[i].ProductID != product.ID {
			continue
		}
		merged := c.Items[i].Quantity + quantity
		if merged > product.Stock {
			return CartItem{}, &InsufficientStockError{ProductID: product.ID, Requested: merged, Available: product.Stock}
		}
		c.Items[i].Quantity = merged
		p := product
		c.Items[i].Product = &p
		return c.Items[i], nil
	}

	if quantity > product.Stock {
		return CartItem{}, &InsufficientStockError{ProductID: product.ID, Requested: quantity, Available: product.Stock}
	}

	p := product
	item := CartItem{
		ID:        newID,
		CartID:    c.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   &p,
	}
	c.Items = append(c.Items, item)
	return item, nil
}

// 数量を置き換える
func (c *Cart) UpdateQuantity(itemID string, quantity int64, stock int64) (CartItem, error) {
	i := c.indexOfItem(itemID)
	if i < 0 {
		return CartItem{}, &NotFoundError{Resource: "cart item", ID: itemID}
	}
	if quantity < 1 {
		return CartItem{}, NewValidationError(FieldError{Field: "quantity", Message: "must be at least 1"})
	}
	if quantity > stock {
		return CartItem{}, &InsufficientStockError{ProductID: c.Items[i].ProductID, Requested: quantity, Available: stock}
	}
	c.Items[i].Quantity = quantity
	return c.Items[i], nil
}

// RemoveItem は明細を削除する。無い場合は何もしない（falseを返す）。
func (c *Cart) RemoveItem(itemID string) bool {
	i := c.indexOfItem(itemID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
	return true
}

// ComputeTotals は小計・送料・合計を返す。カートは変更しない。
func (c *Cart) ComputeTotals(shippingCost decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range c.Items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		Total:        subtotal.Add(shippingCost),
	}
}
