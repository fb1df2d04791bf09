package usecase

import (
	"context"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 注文ステータス変更（管理者の更新・購入者のキャンセルで共通）
type statusChanger struct {
	lifecycle model.Lifecycle
	ids       IDGenerator
	clock     Clock
}

// apply はTx内で遷移を検証して保存する。
// キャンセルなら明細の在庫を戻し、監査ログを残す
func (s statusChanger) apply(ctx context.Context, r repo.TxRepos, order model.Order, to model.OrderStatus, actorID string) (model.Order, error) {
	if err := s.lifecycle.Transition(order.Status, to); err != nil {
		return model.Order{}, err
	}

	//在庫戻し
	if to == model.OrderStatusCancelled {
		for _, it := range order.Items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return model.Order{}, errors.Wrapf(err, "restock product %s", it.ProductID)
			}
		}
	}

	if err := r.Orders().UpdateStatus(ctx, order.ID, to); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, &model.NotFoundError{Resource: "order", ID: order.ID}
		}
		return model.Order{}, err
	}

	now := s.clock.Now()
	if err := writeAudit(ctx, r, s.ids.NewID(), model.AuditLog{
		ActorUserID:  actorID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   order.ID,
		CreatedAt:    now,
	}, map[string]interface{}{"status": order.Status}, map[string]interface{}{"status": to}); err != nil {
		return model.Order{}, err
	}

	order.Status = to
	order.UpdatedAt = now
	return order, nil
}

// 監査ログ。before/afterはJSON文字列で保存する
func writeAudit(ctx context.Context, r repo.TxRepos, id string, log model.AuditLog, before, after interface{}) error {
	b, err := json.MarshalToString(before)
	if err != nil {
		return errors.Wrap(err, "marshal audit before")
	}
	a, err := json.MarshalToString(after)
	if err != nil {
		return errors.Wrap(err, "marshal audit after")
	}
	log.ID = id
	log.BeforeJSON = b
	log.AfterJSON = a
	return r.AuditLogs().Create(ctx, log)
}
