package model

import "time"

// 出品者のフォロー（onlyFollowedの絞り込みに使う）
type Follow struct {
	FollowerID string    `gorm:"type:uuid;primaryKey" json:"follower_id"`
	SellerID   string    `gorm:"type:uuid;primaryKey;index" json:"seller_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}
