package validator

import (
	"testing"
	"time"

	"campusmarket/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestValidateAddToCart_OK(t *testing.T) {
	in, err := ValidateAddToCart(AddToCartRequest{
		ProductID: " 3f2504e0-4f89-11d3-9a0c-0305e82c3301 ",
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", in.ProductID)
	assert.Equal(t, int64(2), in.Quantity)
}

func TestValidateAddToCart_UppercaseID(t *testing.T) {
	in, err := ValidateAddToCart(AddToCartRequest{ProductID: "3F2504E0-4F89-11D3-9A0C-0305E82C3301", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", in.ProductID)

	out, err := ValidateCreateOrder(CreateOrderRequest{AddressID: "3F2504E0-4F89-11D3-9A0C-0305E82C3301"})
	require.NoError(t, err)
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", out.AddressID)
}

func TestValidateAddToCart_ListsEveryField(t *testing.T) {
	_, err := ValidateAddToCart(AddToCartRequest{ProductID: "not-a-uuid", Quantity: 0})
	assert.ElementsMatch(t, []string{"product_id", "quantity"}, fieldsOf(t, err))
}

func TestValidateAddToCart_MissingProductID(t *testing.T) {
	_, err := ValidateAddToCart(AddToCartRequest{Quantity: 1})
	assert.Equal(t, []string{"product_id"}, fieldsOf(t, err))
}

func TestValidateUpdateQuantity(t *testing.T) {
	q, err := ValidateUpdateQuantity(UpdateQuantityRequest{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), q)

	_, err = ValidateUpdateQuantity(UpdateQuantityRequest{Quantity: -1})
	assert.Equal(t, []string{"quantity"}, fieldsOf(t, err))
}

func TestValidateCreateOrder_EmptyStreetOnly(t *testing.T) {
	_, err := ValidateCreateOrder(CreateOrderRequest{
		Address: &AddressInput{Street: "", City: "Kraków", ZipCode: "30-001", Phone: "123456789"},
	})
	assert.Equal(t, []string{"address.street"}, fieldsOf(t, err))
}

func TestValidateCreateOrder_AllAddressViolations(t *testing.T) {
	_, err := ValidateCreateOrder(CreateOrderRequest{
		Address: &AddressInput{Street: "  ", City: "", ZipCode: "", Phone: "12345"},
	})
	assert.ElementsMatch(t,
		[]string{"address.street", "address.city", "address.zip_code", "address.phone"},
		fieldsOf(t, err))
}

func TestValidateCreateOrder_RequiresAddressOrID(t *testing.T) {
	_, err := ValidateCreateOrder(CreateOrderRequest{})
	assert.Equal(t, []string{"address"}, fieldsOf(t, err))

	_, err = ValidateCreateOrder(CreateOrderRequest{
		AddressID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		Address:   &AddressInput{Street: "a", City: "b", ZipCode: "c", Phone: "123456789"},
	})
	assert.Equal(t, []string{"address_id"}, fieldsOf(t, err))
}

func TestValidateCreateOrder_OK(t *testing.T) {
	out, err := ValidateCreateOrder(CreateOrderRequest{
		Address: &AddressInput{Street: " Floriańska 1 ", City: "Kraków", ZipCode: "30-001", Phone: "123456789"},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Address)
	assert.Equal(t, "Floriańska 1", out.Address.Street)
	assert.Empty(t, out.AddressID)

	out, err = ValidateCreateOrder(CreateOrderRequest{AddressID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"})
	require.NoError(t, err)
	assert.Nil(t, out.Address)
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", out.AddressID)
}

func TestValidateStatusUpdate(t *testing.T) {
	s, err := ValidateStatusUpdate(StatusUpdateRequest{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, s)

	_, err = ValidateStatusUpdate(StatusUpdateRequest{Status: "refunded"})
	assert.Equal(t, []string{"status"}, fieldsOf(t, err))

	_, err = ValidateStatusUpdate(StatusUpdateRequest{})
	assert.Equal(t, []string{"status"}, fieldsOf(t, err))
}

func TestValidateProduct_AuctionNeedsFutureEnd(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	req := ProductRequest{
		Title:       "Calculus textbook",
		Price:       decimal.RequireFromString("25"),
		Condition:   "used",
		ListingType: "auction",
		Stock:       1,
	}

	_, err := ValidateProduct(req, now)
	assert.Equal(t, []string{"ends_at"}, fieldsOf(t, err))

	past := now.Add(-time.Minute)
	req.EndsAt = &past
	_, err = ValidateProduct(req, now)
	assert.Equal(t, []string{"ends_at"}, fieldsOf(t, err))

	future := now.Add(24 * time.Hour)
	req.EndsAt = &future
	out, err := ValidateProduct(req, now)
	require.NoError(t, err)
	assert.Equal(t, model.ListingAuction, out.ListingType)
	require.NotNil(t, out.EndsAt)
}

func TestValidateProduct_CollectsAllViolations(t *testing.T) {
	_, err := ValidateProduct(ProductRequest{
		Title:       "",
		Price:       decimal.RequireFromString("-1"),
		Condition:   "broken",
		ListingType: "buy_now",
		Stock:       -2,
	}, time.Now())
	assert.ElementsMatch(t, []string{"title", "price", "condition", "stock"}, fieldsOf(t, err))
}

func TestValidateProduct_BuyNowDropsEndsAt(t *testing.T) {
	now := time.Now()
	end := now.Add(time.Hour)
	out, err := ValidateProduct(ProductRequest{
		Title:       "Desk lamp",
		Price:       decimal.RequireFromString("9.999"),
		Condition:   "new",
		ListingType: "buy_now",
		Stock:       3,
		EndsAt:      &end,
	}, now)
	require.NoError(t, err)
	assert.Nil(t, out.EndsAt)
	assert.True(t, out.Price.Equal(decimal.RequireFromString("10")))
}

func TestValidateListProducts(t *testing.T) {
	out, err := ValidateListProducts(ListProductsRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, "new", out.Sort)

	_, err = ValidateListProducts(ListProductsRequest{Page: 0, Limit: 101, Sort: "random"})
	assert.ElementsMatch(t, []string{"page", "limit", "sort"}, fieldsOf(t, err))
}

func TestValidateRegister(t *testing.T) {
	out, err := ValidateRegister(RegisterRequest{Email: " Student@Uni.EDU ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "student@uni.edu", out.Email)

	_, err = ValidateRegister(RegisterRequest{Email: "nope", Password: "short"})
	assert.ElementsMatch(t, []string{"email", "password"}, fieldsOf(t, err))
}
