package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, id string, stock int64) {
	t.Helper()
	_, err := s.Products().Create(context.Background(), model.Product{
		ID:          id,
		SellerID:    "seller",
		Title:       "item " + id,
		Price:       decimal.RequireFromString("10.00"),
		Condition:   model.ConditionUsed,
		ListingType: model.ListingBuyNow,
		Stock:       stock,
		IsActive:    true,
	})
	require.NoError(t, err)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p1", 5)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, "p1", 3)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.Products().FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Stock)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p1", 5)

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(r repo.TxRepos) error {
			_, _ = r.Inventory().DecreaseStockIfEnough(ctx, "p1", 5)
			panic("unexpected")
		})
	})

	p, err := s.Products().FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Stock)
}

func TestWithinTx_Commits(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p1", 5)

	require.NoError(t, s.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Inventory().DecreaseStockIfEnough(ctx, "p1", 2)
		return err
	}))

	p, _ := s.Products().FindByID(ctx, "p1")
	assert.Equal(t, int64(3), p.Stock)
}

func TestDecreaseStockIfEnough(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p1", 2)

	ok, err := s.Inventory().DecreaseStockIfEnough(ctx, "p1", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Inventory().DecreaseStockIfEnough(ctx, "p1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Inventory().DecreaseStockIfEnough(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartItems_UniquePerProduct(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedProduct(t, s, "p1", 2)

	cart, err := s.Carts().GetOrCreateActiveByUserID(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	require.NoError(t, s.CartItems().Create(ctx, model.CartItem{ID: "i1", CartID: "c1", ProductID: "p1", Quantity: 1}))
	err = s.CartItems().Create(ctx, model.CartItem{ID: "i2", CartID: "c1", ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	again, err := s.Carts().GetOrCreateActiveByUserID(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "c1", again.ID)
	require.Len(t, again.Items, 1)
	require.NotNil(t, again.Items[0].Product)
	assert.Equal(t, "p1", again.Items[0].Product.ID)
}

func TestProducts_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []model.Product{
		{ID: "a", SellerID: "s1", Title: "Chemistry notes", Price: decimal.NewFromInt(5), Category: "books", IsActive: true},
		{ID: "b", SellerID: "s2", Title: "Desk", Price: decimal.NewFromInt(50), Category: "furniture", IsActive: true},
		{ID: "c", SellerID: "s1", Title: "Physics book", Price: decimal.NewFromInt(20), Category: "books", IsActive: true},
		{ID: "d", SellerID: "s1", Title: "Hidden", Price: decimal.NewFromInt(1), Category: "books", IsActive: false},
	} {
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := s.Products().Create(ctx, p)
		require.NoError(t, err)
	}

	list, total, err := s.Products().List(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Category: "books", Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)

	list, _, err = s.Products().List(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Q: "DESK"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)

	list, total, err = s.Products().List(ctx, repo.ProductListQuery{Page: 1, Limit: 10, FilterSellers: true})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	list, _, err = s.Products().List(ctx, repo.ProductListQuery{Page: 2, Limit: 2, Sort: "new"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)

	require.NoError(t, s.Products().SoftDelete(ctx, "a"))
	_, err = s.Products().FindByID(ctx, "a")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAddresses_SetDefault(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := s.Addresses()

	_, err := a.Create(ctx, model.Address{ID: "a1", UserID: "u1", Street: "x", IsDefault: true})
	require.NoError(t, err)
	_, err = a.Create(ctx, model.Address{ID: "a2", UserID: "u1", Street: "y"})
	require.NoError(t, err)

	require.NoError(t, a.SetDefault(ctx, "u1", "a2"))
	list, err := a.ListByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)

	assert.ErrorIs(t, a.SetDefault(ctx, "u2", "a1"), repo.ErrNotFound)
}

func TestCarts_AbandonIdle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })

	_, err := s.Carts().GetOrCreateActiveByUserID(ctx, "idle", "c-idle")
	require.NoError(t, err)
	_, err = s.Carts().GetOrCreateActiveByUserID(ctx, "busy", "c-busy")
	require.NoError(t, err)

	s.SetClock(func() time.Time { return now })
	seedProduct(t, s, "p1", 5)
	require.NoError(t, s.CartItems().Create(ctx, model.CartItem{ID: "i1", CartID: "c-busy", ProductID: "p1", Quantity: 1}))

	n, err := s.Carts().AbandonIdle(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Carts().FindActiveByUserID(ctx, "idle")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = s.Carts().FindActiveByUserID(ctx, "busy")
	assert.NoError(t, err)
}

func TestCarts_CheckOutOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Carts().GetOrCreateActiveByUserID(ctx, "u1", "c1")
	require.NoError(t, err)

	require.NoError(t, s.Carts().CheckOut(ctx, "c1"))
	assert.ErrorIs(t, s.Carts().CheckOut(ctx, "c1"), repo.ErrCartNotActive)
	assert.ErrorIs(t, s.Carts().CheckOut(ctx, "missing"), repo.ErrNotFound)

	_, err = s.Carts().LockActiveByUserID(ctx, "u1")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	next, err := s.Carts().GetOrCreateActiveByUserID(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "c2", next.ID)
}
