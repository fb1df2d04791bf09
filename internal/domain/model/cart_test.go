package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id string, price string, stock int64) Product {
	return Product{
		ID:          id,
		Title:       "item-" + id,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		ListingType: ListingBuyNow,
		Condition:   ConditionUsed,
		IsActive:    true,
	}
}

func TestCart_AddItem_MergesSameProduct(t *testing.T) {
	cart := &Cart{ID: "c1"}
	p := testProduct("p1", "10.00", 10)

	_, err := cart.AddItem(p, 2, "i1")
	require.NoError(t, err)
	item, err := cart.AddItem(p, 3, "i2")
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "i1", item.ID)
	assert.Equal(t, int64(5), cart.Items[0].Quantity)
}

func TestCart_AddItem_InsufficientStockLeavesCartUnchanged(t *testing.T) {
	cart := &Cart{ID: "c1"}
	p := testProduct("p1", "10.00", 4)

	_, err := cart.AddItem(p, 3, "i1")
	require.NoError(t, err)

	_, err = cart.AddItem(p, 2, "i2")
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(4), stockErr.Available)
	assert.Equal(t, int64(3), cart.Items[0].Quantity)

	_, err = cart.AddItem(testProduct("p2", "1.00", 1), 2, "i3")
	require.ErrorAs(t, err, &stockErr)
	assert.Len(t, cart.Items, 1)
}

func TestCart_AddItem_RejectsNonPositiveQuantity(t *testing.T) {
	cart := &Cart{ID: "c1"}

	_, err := cart.AddItem(testProduct("p1", "1.00", 5), 0, "i1")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("quantity"))
	assert.True(t, cart.IsEmpty())
}

func TestCart_UpdateQuantity(t *testing.T) {
	cart := &Cart{ID: "c1"}
	_, err := cart.AddItem(testProduct("p1", "2.50", 10), 1, "i1")
	require.NoError(t, err)

	item, err := cart.UpdateQuantity("i1", 7, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.Quantity)

	_, err = cart.UpdateQuantity("i1", 11, 10)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(7), cart.Items[0].Quantity)

	_, err = cart.UpdateQuantity("missing", 1, 10)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestCart_RemoveItem_Idempotent(t *testing.T) {
	cart := &Cart{ID: "c1"}
	_, err := cart.AddItem(testProduct("p1", "1.00", 10), 1, "i1")
	require.NoError(t, err)
	_, err = cart.AddItem(testProduct("p2", "1.00", 10), 1, "i2")
	require.NoError(t, err)

	assert.False(t, cart.RemoveItem("absent"))
	assert.Len(t, cart.Items, 2)

	assert.True(t, cart.RemoveItem("i1"))
	assert.False(t, cart.RemoveItem("i1"))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "i2", cart.Items[0].ID)
}

func TestCart_ComputeTotals_Pure(t *testing.T) {
	cart := &Cart{ID: "c1"}
	_, err := cart.AddItem(testProduct("p1", "19.99", 10), 2, "i1")
	require.NoError(t, err)
	_, err = cart.AddItem(testProduct("p2", "5.00", 10), 3, "i2")
	require.NoError(t, err)

	before := *cart
	before.Items = append([]CartItem(nil), cart.Items...)
	shipping := decimal.RequireFromString("12.00")

	first := cart.ComputeTotals(shipping)
	second := cart.ComputeTotals(shipping)

	assert.True(t, first.Subtotal.Equal(decimal.RequireFromString("54.98")))
	assert.True(t, first.Total.Equal(decimal.RequireFromString("66.98")))
	assert.True(t, first.ShippingCost.Equal(shipping))
	assert.Equal(t, first, second)
	assert.Equal(t, before, *cart)
}

func TestCart_ComputeTotals_Empty(t *testing.T) {
	cart := &Cart{}
	totals := cart.ComputeTotals(decimal.Zero)
	assert.True(t, totals.Total.IsZero())
}
