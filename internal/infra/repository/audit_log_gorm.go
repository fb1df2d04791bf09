package repository

import (
	"context"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// 在庫変更・注文ステータス変更の監査ログ
type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

// Tx内で呼ばれる。失敗したら呼び出し側の変更ごと戻る
func (r *auditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	return wrapErr(r.db.WithContext(ctx).Create(&entry).Error, "insert audit log")
}

func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}
	offset := max(f.Offset, 0)

	var out []model.AuditLog
	err := r.db.WithContext(ctx).
		Scopes(
			whereIf("actor_user_id", f.ActorUserID),
			whereIf("action", f.Action),
			whereIf("resource_type", f.ResourceType),
			whereIf("resource_id", f.ResourceID),
			createdBetween(f),
			newestFirst,
		).
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, wrapErr(err, "select audit logs")
	}
	return out, nil
}

func createdBetween(f repo.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.CreatedFrom != nil {
			db = db.Where("created_at >= ?", *f.CreatedFrom)
		}
		if f.CreatedTo != nil {
			db = db.Where("created_at <= ?", *f.CreatedTo)
		}
		return db
	}
}
