package model

import "time"

// 住所帳の住所
type Address struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	//番地など
	Street string `gorm:"type:varchar(255);not null" json:"street"`

	//市区町村
	City string `gorm:"type:varchar(255);not null" json:"city"`

	//郵便番号
	ZipCode string `gorm:"type:varchar(20);not null" json:"zip_code"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// 注文用にコピーする
func (a Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		Street:  a.Street,
		City:    a.City,
		ZipCode: a.ZipCode,
		Phone:   a.Phone,
	}
}
