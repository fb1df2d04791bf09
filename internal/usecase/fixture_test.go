package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/event"
	"campusmarket/internal/infra/memory"
	"campusmarket/internal/querycache"
	"campusmarket/internal/usecase"
	"campusmarket/internal/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// 発行されたイベントを記録する
type recorder struct {
	mu     sync.Mutex
	topics []string
	args   []interface{}
}

func (r *recorder) Publish(topic string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	if len(args) > 0 {
		r.args = append(r.args, args[0])
	}
}

func (r *recorder) count(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type fixture struct {
	store    *memory.Store
	events   *recorder
	clock    fixedClock
	shipping usecase.FlatRateShipping

	carts       *usecase.CartUsecase
	orders      *usecase.OrderUsecase
	adminOrders *usecase.AdminOrderUsecase
	addresses   *usecase.AddressUsecase
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLifecycle(t, model.DefaultLifecycle())
}

func newFixtureWithLifecycle(t *testing.T, lifecycle model.Lifecycle) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.SetClock(func() time.Time { return testNow })

	numbers, err := usecase.NewSnowflakeNumbers(1)
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		events:   &recorder{},
		clock:    fixedClock{t: testNow},
		shipping: usecase.FlatRateShipping{Rate: decimal.RequireFromString("5.00"), FreeOver: decimal.RequireFromString("100.00")},
	}
	ids := usecase.UUIDGenerator{}
	f.carts = usecase.NewCartUsecase(store, ids, f.shipping)
	f.orders = usecase.NewOrderUsecase(store, ids, numbers, f.clock, f.shipping, lifecycle, f.events)
	f.adminOrders = usecase.NewAdminOrderUsecase(store, ids, f.clock, lifecycle, f.events)
	f.addresses = usecase.NewAddressUsecase(store.Addresses(), ids, f.clock)
	return f
}

func (f *fixture) seedUser(t *testing.T, role model.Role) string {
	t.Helper()
	id := uuid.NewString()
	err := f.store.Users().Create(context.Background(), &model.User{
		ID:           id,
		Email:        id + "@campus.test",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) seedProduct(t *testing.T, sellerID string, price string, stock int64, opts ...func(*model.Product)) model.Product {
	t.Helper()
	p := model.Product{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Title:       "textbook " + price,
		Price:       decimal.RequireFromString(price),
		Category:    "books",
		Condition:   model.ConditionUsed,
		ListingType: model.ListingBuyNow,
		Stock:       stock,
		IsActive:    true,
	}
	for _, o := range opts {
		o(&p)
	}
	created, err := f.store.Products().Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func (f *fixture) stockOf(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) addToCart(t *testing.T, userID, productID string, qty int64) usecase.CartItemView {
	t.Helper()
	item, err := f.carts.AddToCart(context.Background(), userID, validator.AddToCartRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	return item
}

func inlineAddress() validator.CreateOrderRequest {
	return validator.CreateOrderRequest{Address: &validator.AddressInput{
		Street:  "ul. Floriańska 1",
		City:    "Kraków",
		ZipCode: "30-001",
		Phone:   "123456789",
	}}
}

// 商品一覧・フォローをキャッシュとイベントバスごと本物でつなぐ
type catalog struct {
	products *usecase.ProductUsecase
	follows  *usecase.FollowUsecase
	cache    *querycache.Cache[usecase.ProductPage]
}

func newCatalog(t *testing.T, f *fixture, opts querycache.Options) catalog {
	t.Helper()
	if opts.Now == nil {
		opts.Now = f.clock.Now
	}
	cache := querycache.New[usecase.ProductPage](opts)
	bus := event.NewBus()
	require.NoError(t, event.RegisterCacheInvalidation(bus, cache, usecase.ResourceProducts))

	return catalog{
		products: usecase.NewProductUsecase(f.store.Products(), f.store.Follows(), f.store, cache, usecase.UUIDGenerator{}, f.clock, bus),
		follows:  usecase.NewFollowUsecase(f.store.Users(), f.store.Follows(), bus),
		cache:    cache,
	}
}
