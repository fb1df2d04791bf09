package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 条件つきのWhere。nilなら何もしない
func whereIf[T any](column string, v *T) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v == nil {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: *v})
	}
}

// 作成日時の新しい順。同時刻はid順で固定する
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "created_at"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}})
}

func ownedBy(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}
