package repository

import (
	"context"
	"time"

	"campusmarket/internal/domain/model"
)

// nilの項目は条件にしない。Limitが0なら50件
type AuditLogFilter struct {
	ActorUserID  *string
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// 在庫変更と注文ステータス変更の記録先。書き込みは同じTxの中で行う
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// created_atの新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
