package usecase_test

import (
	"context"
	"testing"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/querycache"
	repo "campusmarket/internal/repository"
	"campusmarket/internal/usecase"
	"campusmarket/internal/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstPage() validator.ListProductsRequest {
	return validator.ListProductsRequest{Page: 1, Limit: 20}
}

func sellerActor(id string) usecase.Actor {
	return usecase.Actor{ID: id, Role: model.RoleUser}
}

func bookRequest(title, price string) validator.ProductRequest {
	return validator.ProductRequest{
		Title:       title,
		Price:       decimal.RequireFromString(price),
		Category:    "Books",
		Condition:   "used",
		ListingType: "buy_now",
		Stock:       2,
	}
}

func TestProductUsecase_ListProducts_ServesCachedPage(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{StaleTime: time.Minute})
	seller := f.seedUser(t, model.RoleUser)
	f.seedProduct(t, seller, "5.00", 1)
	ctx := context.Background()

	page, err := c.products.ListProducts(ctx, "", firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, c.cache.Len())

	//ストアを直接変えてもキャッシュが返る
	f.seedProduct(t, seller, "6.00", 1)
	page, err = c.products.ListProducts(ctx, "", firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	//パラメータが違えば別のエントリ
	other := firstPage()
	other.Sort = "price_desc"
	page, err = c.products.ListProducts(ctx, "", other)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.True(t, page.Items[0].Price.Equal(decimal.RequireFromString("6.00")))
	assert.Equal(t, 2, c.cache.Len())
}

func TestProductUsecase_ChangesInvalidateListCache(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{StaleTime: time.Hour})
	seller := f.seedUser(t, model.RoleUser)
	admin := adminActor(f.seedUser(t, model.RoleAdmin))
	ctx := context.Background()

	page, err := c.products.ListProducts(ctx, "", firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)

	created, err := c.products.CreateProduct(ctx, sellerActor(seller), bookRequest("Calculus I", "40.00"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.cache.Len())

	page, err = c.products.ListProducts(ctx, "", firstPage())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.Items[0].Stock)

	_, err = c.products.UpdateInventory(ctx, admin, created.ID, validator.InventoryRequest{Stock: 7, Reason: "recount"})
	require.NoError(t, err)
	page, err = c.products.ListProducts(ctx, "", firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Items[0].Stock)

	require.NoError(t, c.products.DeleteProduct(ctx, sellerActor(seller), created.ID))
	page, err = c.products.ListProducts(ctx, "", firstPage())
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}

func TestProductUsecase_ListProducts_OnlyFollowed(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{StaleTime: time.Hour})
	viewer := f.seedUser(t, model.RoleUser)
	followed := f.seedUser(t, model.RoleUser)
	stranger := f.seedUser(t, model.RoleUser)
	mine := f.seedProduct(t, followed, "3.00", 1)
	f.seedProduct(t, stranger, "4.00", 1)
	ctx := context.Background()

	q := firstPage()
	q.OnlyFollowed = true

	var uaErr *model.UnauthorizedError
	_, err := c.products.ListProducts(ctx, "", q)
	require.ErrorAs(t, err, &uaErr)

	page, err := c.products.ListProducts(ctx, viewer, q)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)

	//フォローでキャッシュが消える
	require.NoError(t, c.follows.Follow(ctx, viewer, followed))
	page, err = c.products.ListProducts(ctx, viewer, q)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	require.NoError(t, c.follows.Unfollow(ctx, viewer, followed))
	page, err = c.products.ListProducts(ctx, viewer, q)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}

func TestProductUsecase_ListProducts_Validation(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{})

	_, err := c.products.ListProducts(context.Background(), "", validator.ListProductsRequest{Page: 0, Limit: 500, Sort: "random"})

	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("page"))
	assert.True(t, vErr.HasField("limit"))
	assert.True(t, vErr.HasField("sort"))
	assert.Equal(t, 0, c.cache.Len())
}

func TestProductUsecase_GetProduct(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{})
	seller := f.seedUser(t, model.RoleUser)
	p := f.seedProduct(t, seller, "3.00", 1)
	hidden := f.seedProduct(t, seller, "3.00", 1, func(p *model.Product) { p.IsActive = false })
	ctx := context.Background()

	got, err := c.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewCount)
	got, err = c.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewCount)

	var nfErr *model.NotFoundError
	_, err = c.products.GetProduct(ctx, hidden.ID)
	require.ErrorAs(t, err, &nfErr)
	_, err = c.products.GetProduct(ctx, "abc")
	require.ErrorAs(t, err, &nfErr)
	_, err = c.products.GetProduct(ctx, uuid.NewString())
	require.ErrorAs(t, err, &nfErr)
}

func TestProductUsecase_CreateProduct_Validation(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{})
	seller := f.seedUser(t, model.RoleUser)
	ctx := context.Background()

	_, err := c.products.CreateProduct(ctx, usecase.Actor{}, bookRequest("x", "1.00"))
	var uaErr *model.UnauthorizedError
	require.ErrorAs(t, err, &uaErr)

	bad := bookRequest("", "-1")
	bad.ListingType = "auction"
	_, err = c.products.CreateProduct(ctx, sellerActor(seller), bad)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("title"))
	assert.True(t, vErr.HasField("price"))
	assert.True(t, vErr.HasField("ends_at"))

	ends := testNow.Add(72 * time.Hour)
	auction := bookRequest("Lab coat", "12.345")
	auction.ListingType = "auction"
	auction.EndsAt = &ends
	created, err := c.products.CreateProduct(ctx, sellerActor(seller), auction)
	require.NoError(t, err)
	assert.Equal(t, seller, created.SellerID)
	assert.Equal(t, "books", created.Category)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("12.35")))
	require.NotNil(t, created.EndsAt)
	assert.True(t, created.IsActive)
}

func TestProductUsecase_UpdateProduct_OwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{})
	seller := f.seedUser(t, model.RoleUser)
	other := f.seedUser(t, model.RoleUser)
	admin := adminActor(f.seedUser(t, model.RoleAdmin))
	p := f.seedProduct(t, seller, "3.00", 1)
	ctx := context.Background()

	var fbErr *model.ForbiddenError
	_, err := c.products.UpdateProduct(ctx, sellerActor(other), p.ID, bookRequest("mine now", "1.00"))
	require.ErrorAs(t, err, &fbErr)
	err = c.products.DeleteProduct(ctx, sellerActor(other), p.ID)
	require.ErrorAs(t, err, &fbErr)

	updated, err := c.products.UpdateProduct(ctx, sellerActor(seller), p.ID, bookRequest("Physics II", "8.00"))
	require.NoError(t, err)
	assert.Equal(t, "Physics II", updated.Title)

	updated, err = c.products.UpdateProduct(ctx, admin, p.ID, bookRequest("Physics III", "9.00"))
	require.NoError(t, err)
	assert.Equal(t, seller, updated.SellerID)

	stored, err := f.store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Physics III", stored.Title)
}

func TestProductUsecase_UpdateInventory(t *testing.T) {
	f := newFixture(t)
	c := newCatalog(t, f, querycache.Options{})
	seller := f.seedUser(t, model.RoleUser)
	adminID := f.seedUser(t, model.RoleAdmin)
	p := f.seedProduct(t, seller, "3.00", 10)
	ctx := context.Background()

	var fbErr *model.ForbiddenError
	_, err := c.products.UpdateInventory(ctx, sellerActor(seller), p.ID, validator.InventoryRequest{Stock: 1, Reason: "x"})
	require.ErrorAs(t, err, &fbErr)

	var vErr *model.ValidationError
	_, err = c.products.UpdateInventory(ctx, adminActor(adminID), p.ID, validator.InventoryRequest{Stock: -1})
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("stock"))
	assert.True(t, vErr.HasField("reason"))

	var nfErr *model.NotFoundError
	_, err = c.products.UpdateInventory(ctx, adminActor(adminID), uuid.NewString(), validator.InventoryRequest{Stock: 1, Reason: "x"})
	require.ErrorAs(t, err, &nfErr)

	out, err := c.products.UpdateInventory(ctx, adminActor(adminID), p.ID, validator.InventoryRequest{Stock: 4, Reason: " damaged in storage "})
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.Stock)

	adj := f.store.Adjustments()
	require.Len(t, adj, 1)
	assert.Equal(t, int64(-6), adj[0].Delta)
	assert.Equal(t, "damaged in storage", adj[0].Reason)
	assert.Equal(t, adminID, adj[0].AdminUserID)

	logs, err := f.store.AuditLogs().List(ctx, repo.AuditLogFilter{ResourceID: &p.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionUpdateStock, logs[0].Action)
	assert.JSONEq(t, `{"stock":10}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"stock":4,"reason":"damaged in storage"}`, logs[0].AfterJSON)
}
