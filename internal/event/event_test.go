package event_test

import (
	"context"
	"sync"
	"testing"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/event"
	"campusmarket/internal/infra/memory"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invalidations struct {
	mu    sync.Mutex
	calls []string
}

func (i *invalidations) InvalidateResource(resource string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls = append(i.calls, resource)
}

func (i *invalidations) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.calls)
}

func TestRegisterCacheInvalidation(t *testing.T) {
	bus := event.NewBus()
	inv := &invalidations{}
	require.NoError(t, event.RegisterCacheInvalidation(bus, inv, "products"))

	bus.Publish(event.TopicOrderCreated, event.OrderCreated{})
	assert.Equal(t, 1, inv.count())

	//キャンセル以外の遷移では在庫が変わらない
	bus.Publish(event.TopicOrderStatusChanged, event.OrderStatusChanged{Order: model.Order{Status: model.OrderStatusPaid}, From: model.OrderStatusPending})
	assert.Equal(t, 1, inv.count())
	bus.Publish(event.TopicOrderStatusChanged, event.OrderStatusChanged{Order: model.Order{Status: model.OrderStatusCancelled}, From: model.OrderStatusPaid})
	assert.Equal(t, 2, inv.count())

	bus.Publish(event.TopicProductChanged, event.ProductChanged{Action: event.ProductStockChanged})
	bus.Publish(event.TopicFollowChanged, event.FollowChanged{Following: true})
	assert.Equal(t, 4, inv.count())
	assert.Equal(t, "products", inv.calls[0])
}

func TestBus_PublishSurvivesPanickingHandler(t *testing.T) {
	bus := event.NewBus()
	require.NoError(t, bus.Subscribe(event.TopicProductChanged, func(e event.ProductChanged) {
		panic("boom")
	}))

	assert.NotPanics(t, func() {
		bus.Publish(event.TopicProductChanged, event.ProductChanged{})
	})
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func TestNotifier_MailsBuyer(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Users().Create(context.Background(), &model.User{
		ID: "u-1", Email: "buyer@campus.test", PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}))
	mailer := &fakeMailer{}
	bus := event.NewBus()
	require.NoError(t, event.NewNotifier(store.Users(), mailer).Register(bus))

	order := model.Order{
		Number:     42,
		UserID:     "u-1",
		Status:     model.OrderStatusPending,
		TotalPrice: decimal.RequireFromString("12.5"),
		Address:    model.ShippingAddress{Street: "Dorm 1", City: "Łódź", ZipCode: "90-001"},
	}
	bus.Publish(event.TopicOrderCreated, event.OrderCreated{Order: order})

	order.Status = model.OrderStatusShipped
	bus.Publish(event.TopicOrderStatusChanged, event.OrderStatusChanged{Order: order, From: model.OrderStatusPaid})

	//知らないユーザーは送らない
	bus.Publish(event.TopicOrderCreated, event.OrderCreated{Order: model.Order{UserID: "ghost"}})
	bus.WaitAsync()

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.Len(t, mailer.sent, 2)
	subjects := []string{mailer.sent[0].subject, mailer.sent[1].subject}
	assert.ElementsMatch(t, []string{"Order #42 received", "Order #42 is now shipped"}, subjects)
	for _, m := range mailer.sent {
		assert.Equal(t, "buyer@campus.test", m.to)
		if m.subject == "Order #42 received" {
			assert.Contains(t, m.body, "Total: 12.50")
			assert.Contains(t, m.body, "Łódź")
		}
	}
}

func TestNotifier_SendFailureIsSwallowed(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Users().Create(context.Background(), &model.User{
		ID: "u-1", Email: "buyer@campus.test", PasswordHash: "x", Role: model.RoleUser, IsActive: true,
	}))
	mailer := &fakeMailer{err: errors.New("smtp down")}
	bus := event.NewBus()
	require.NoError(t, event.NewNotifier(store.Users(), mailer).Register(bus))

	assert.NotPanics(t, func() {
		bus.Publish(event.TopicOrderCreated, event.OrderCreated{Order: model.Order{UserID: "u-1"}})
		bus.WaitAsync()
	})
	assert.Empty(t, mailer.sent)
}
