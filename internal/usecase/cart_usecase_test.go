package usecase_test

import (
	"context"
	"testing"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartUsecase_AddToCart_MergesSameProduct(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, model.RoleUser)
	buyer := f.seedUser(t, model.RoleUser)
	p := f.seedProduct(t, seller, "12.50", 10)

	first := f.addToCart(t, buyer, p.ID, 2)
	second := f.addToCart(t, buyer, p.ID, 3)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(5), second.Quantity)
	assert.True(t, second.LineTotal.Equal(decimal.RequireFromString("62.50")))

	cart, err := f.carts.GetCart(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(5), cart.Items[0].Quantity)
}

func TestCartUsecase_AddToCart_InsufficientStockKeepsCart(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, model.RoleUser)
	buyer := f.seedUser(t, model.RoleUser)
	p := f.seedProduct(t, seller, "3.00", 4)

	f.addToCart(t, buyer, p.ID, 3)

	_, err := f.carts.AddToCart(context.Background(), buyer, validator.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	var stockErr *model.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(4), stockErr.Available)

	cart, err := f.carts.GetCart(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].Quantity)
}

func TestCartUsecase_AddToCart_ValidationListsEveryField(t *testing.T) {
	f := newFixture(t)
	buyer := f.seedUser(t, model.RoleUser)

	_, err := f.carts.AddToCart(context.Background(), buyer, validator.AddToCartRequest{ProductID: "nope", Quantity: 0})

	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("product_id"))
	assert.True(t, vErr.HasField("quantity"))
}

func TestCartUsecase_AddToCart_RejectsUnavailableListings(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, model.RoleUser)
	buyer := f.seedUser(t, model.RoleUser)
	auction := f.seedProduct(t, seller, "20.00", 1, func(p *model.Product) {
		p.ListingType = model.ListingAuction
		ends := testNow.Add(48 * time.Hour)
		p.EndsAt = &ends
	})
	hidden := f.seedProduct(t, seller, "20.00", 1, func(p *model.Product) { p.IsActive = false })
	own := f.seedProduct(t, buyer, "20.00", 1)
	ctx := context.Background()

	var vErr *model.ValidationError
	_, err := f.carts.AddToCart(ctx, buyer, validator.AddToCartRequest{ProductID: auction.ID, Quantity: 1})
	require.ErrorAs(t, err, &vErr)

	_, err = f.carts.AddToCart(ctx, buyer, validator.AddToCartRequest{ProductID: own.ID, Quantity: 1})
	require.ErrorAs(t, err, &vErr)

	var nfErr *model.NotFoundError
	_, err = f.carts.AddToCart(ctx, buyer, validator.AddToCartRequest{ProductID: hidden.ID, Quantity: 1})
	require.ErrorAs(t, err, &nfErr)

	_, err = f.carts.AddToCart(ctx, buyer, validator.AddToCartRequest{ProductID: uuid.NewString(), Quantity: 1})
	require.ErrorAs(t, err, &nfErr)
}

func TestCartUsecase_AddToCart_RequiresUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.carts.AddToCart(context.Background(), "", validator.AddToCartRequest{ProductID: uuid.NewString(), Quantity: 1})

	var uaErr *model.UnauthorizedError
	assert.ErrorAs(t, err, &uaErr)
}

func TestCartUsecase_UpdateCartItem(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, model.RoleUser)
	buyer := f.seedUser(t, model.RoleUser)
	other := f.seedUser(t, model.RoleUser)
	p := f.seedProduct(t, seller, "1.00", 6)
	item := f.addToCart(t, buyer, p.ID, 1)
	ctx := context.Background()

	updated, err := f.carts.UpdateCartItem(ctx, buyer, item.ID, validator.UpdateQuantityRequest{Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(6), updated.Quantity)

	var stockErr *model.InsufficientStockError
	_, err = f.carts.UpdateCartItem(ctx, buyer, item.ID, validator.UpdateQuantityRequest{Quantity: 7})
	require.ErrorAs(t, err, &stockErr)

	var vErr *model.ValidationError
	_, err = f.carts.UpdateCartItem(ctx, buyer, item.ID, validator.UpdateQuantityRequest{Quantity: 0})
	require.ErrorAs(t, err, &vErr)

	var nfErr *model.NotFoundError
	_, err = f.carts.UpdateCartItem(ctx, buyer, uuid.NewString(), validator.UpdateQuantityRequest{Quantity: 1})
	require.ErrorAs(t, err, &nfErr)

	//他人の明細は見えない
	_, err = f.carts.UpdateCartItem(ctx, other, item.ID, validator.UpdateQuantityRequest{Quantity: 1})
	require.ErrorAs(t, err, &nfErr)

	cart, err := f.carts.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(6), cart.Items[0].Quantity)
}

func TestCartUsecase_DeleteCartItem_Idempotent(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, model.RoleUser)
	buyer := f.seedUser(t, model.RoleUser)
	a := f.seedProduct(t, seller, "1.00", 5)
	b := f.seedProduct(t, seller, "2.00", 5)
	itemA := f.addToCart(t, buyer, a.ID, 1)
	f.addToCart(t, buyer, b.ID, 1)
	ctx := context.Background()

	cart, err := f.carts.DeleteCartItem(ctx, buyer, uuid.NewString())
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	cart, err = f.carts.DeleteCartItem(ctx, buyer, itemA.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, b.ID, cart.Items[0].ProductID)

	cart, err = f.carts.DeleteCartItem(ctx, buyer, itemA.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCartUsecase_GetCart_Totals(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, model.RoleUser)
	buyer := f.seedUser(t, model.RoleUser)
	p := f.seedProduct(t, seller, "19.99", 10)
	ctx := context.Background()

	empty, err := f.carts.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.Total.IsZero())

	f.addToCart(t, buyer, p.ID, 2)
	cart, err := f.carts.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, empty.ID, cart.ID)
	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("39.98")))
	assert.True(t, cart.ShippingCost.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("44.98")))

	//FreeOver以上は送料無料
	_, err = f.carts.UpdateCartItem(ctx, buyer, cart.Items[0].ID, validator.UpdateQuantityRequest{Quantity: 6})
	require.NoError(t, err)
	cart, err = f.carts.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, cart.ShippingCost.IsZero())
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("119.94")))
}

func TestCartUsecase_AbandonIdle(t *testing.T) {
	f := newFixture(t)
	buyer := f.seedUser(t, model.RoleUser)
	ctx := context.Background()

	first, err := f.carts.GetCart(ctx, buyer)
	require.NoError(t, err)

	n, err := f.carts.AbandonIdle(ctx, testNow.Add(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	//次の取得で新しいACTIVEカートができる
	next, err := f.carts.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
}
