// Package event は注文・商品の変更を購読者に配る。
package event

import (
	"campusmarket/internal/domain/model"

	EventBus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

const (
	TopicOrderCreated       = "order:created"
	TopicOrderStatusChanged = "order:status_changed"
	TopicProductChanged     = "product:changed"
	TopicFollowChanged      = "follow:changed"
)

type OrderCreated struct {
	Order model.Order
}

type OrderStatusChanged struct {
	Order   model.Order
	From    model.OrderStatus
	ActorID string
}

type ProductAction string

const (
	ProductCreated      ProductAction = "created"
	ProductUpdated      ProductAction = "updated"
	ProductDeleted      ProductAction = "deleted"
	ProductStockChanged ProductAction = "stock_changed"
)

type ProductChanged struct {
	ProductID string
	SellerID  string
	Action    ProductAction
}

// フォロー・フォロー解除（onlyFollowedの一覧が変わる）
type FollowChanged struct {
	FollowerID string
	SellerID   string
	Following  bool
}

// Bus はEventBusの薄いラッパー
type Bus struct {
	bus EventBus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

// Publish は同期購読者を呼び終えてから戻る。非同期購読者は別goroutine
func (b *Bus) Publish(topic string, args ...interface{}) {
	defer func() {
		//購読者のpanicで呼び出し側を落とさない
		if r := recover(); r != nil {
			zap.L().Error("event handler panicked", zap.String("topic", topic), zap.Any("panic", r))
		}
	}()
	b.bus.Publish(topic, args...)
}

func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

func (b *Bus) SubscribeAsync(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// 非同期購読者の終了を待つ
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
