package event

import (
	"context"
	"fmt"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/repository"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// 一覧キャッシュを消す側
type ResourceInvalidator interface {
	InvalidateResource(resource string)
}

// RegisterCacheInvalidation は在庫・商品が変わるイベントでresourceのキャッシュを消す。
// 同期購読なので、Publishから戻った時点で消えている
func RegisterCacheInvalidation(b *Bus, cache ResourceInvalidator, resource string) error {
	subs := map[string]interface{}{
		TopicOrderCreated: func(e OrderCreated) {
			cache.InvalidateResource(resource)
		},
		TopicOrderStatusChanged: func(e OrderStatusChanged) {
			//キャンセル時だけ在庫が戻る
			if e.Order.Status == model.OrderStatusCancelled {
				cache.InvalidateResource(resource)
			}
		},
		TopicProductChanged: func(e ProductChanged) {
			cache.InvalidateResource(resource)
		},
		TopicFollowChanged: func(e FollowChanged) {
			cache.InvalidateResource(resource)
		},
	}
	for topic, fn := range subs {
		if err := b.Subscribe(topic, fn); err != nil {
			return errors.Wrapf(err, "subscribe %s", topic)
		}
	}
	return nil
}

// メール送信
type Mailer interface {
	Send(to, subject, body string) error
}

// Notifier は注文の作成・ステータス変更を購入者にメールする
type Notifier struct {
	users   repository.UserRepository
	mailer  Mailer
	timeout time.Duration
}

func NewNotifier(users repository.UserRepository, mailer Mailer) *Notifier {
	return &Notifier{users: users, mailer: mailer, timeout: 10 * time.Second}
}

// 非同期で購読する
func (n *Notifier) Register(b *Bus) error {
	if err := b.SubscribeAsync(TopicOrderCreated, n.onOrderCreated); err != nil {
		return errors.Wrap(err, "subscribe order created")
	}
	if err := b.SubscribeAsync(TopicOrderStatusChanged, n.onStatusChanged); err != nil {
		return errors.Wrap(err, "subscribe order status changed")
	}
	return nil
}

func (n *Notifier) onOrderCreated(e OrderCreated) {
	subject := fmt.Sprintf("Order #%d received", e.Order.Number)
	body := fmt.Sprintf(
		"Thanks for your order.\n\nOrder: #%d\nItems: %d\nTotal: %s\nShip to: %s, %s %s\n",
		e.Order.Number,
		len(e.Order.Items),
		e.Order.TotalPrice.StringFixed(2),
		e.Order.Address.Street,
		e.Order.Address.ZipCode,
		e.Order.Address.City,
	)
	n.notify(e.Order.UserID, subject, body)
}

func (n *Notifier) onStatusChanged(e OrderStatusChanged) {
	subject := fmt.Sprintf("Order #%d is now %s", e.Order.Number, e.Order.Status)
	body := fmt.Sprintf("Your order #%d changed from %s to %s.\n", e.Order.Number, e.From, e.Order.Status)
	n.notify(e.Order.UserID, subject, body)
}

func (n *Notifier) notify(userID, subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	user, err := n.users.FindByID(ctx, userID)
	if err != nil {
		zap.L().Warn("notification skipped", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := n.mailer.Send(user.Email, subject, body); err != nil {
		zap.L().Error("send notification", zap.String("user_id", userID), zap.Error(err))
	}
}
