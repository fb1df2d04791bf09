package usecase

import (
	"context"
	"strconv"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/event"
	"campusmarket/internal/querycache"
	repo "campusmarket/internal/repository"
	"campusmarket/internal/validator"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// 一覧キャッシュのリソース名
const ResourceProducts = "products"

type ProductPage struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	//取得に失敗して古いキャッシュを返した
	Stale bool `json:"stale,omitempty"`
}

type ProductUsecase struct {
	products repo.ProductRepository
	follows  repo.FollowRepository
	tx       repo.TransactionManager
	cache    *querycache.Cache[ProductPage]
	ids      IDGenerator
	clock    Clock
	events   EventPublisher
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	follows repo.FollowRepository,
	tx repo.TransactionManager,
	cache *querycache.Cache[ProductPage],
	ids IDGenerator,
	clock Clock,
	events EventPublisher,
) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		follows:  follows,
		tx:       tx,
		cache:    cache,
		ids:      ids,
		clock:    clock,
		events:   publisherOrNop(events),
	}
}

// ListProducts は公開中の商品一覧。パラメータごとにキャッシュする。
// onlyFollowedはログイン中のユーザーがフォローしている出品者だけ
func (u *ProductUsecase) ListProducts(ctx context.Context, viewerID string, in validator.ListProductsRequest) (ProductPage, error) {
	q, err := validator.ValidateListProducts(in)
	if err != nil {
		return ProductPage{}, err
	}
	if q.OnlyFollowed && viewerID == "" {
		return ProductPage{}, &model.UnauthorizedError{Message: "sign in to filter by followed sellers"}
	}

	params := map[string]string{
		"page":     strconv.Itoa(q.Page),
		"limit":    strconv.Itoa(q.Limit),
		"q":        q.Q,
		"category": q.Category,
		"sort":     q.Sort,
	}
	if q.OnlyFollowed {
		params["followed_by"] = viewerID
	}

	res, err := u.cache.Get(ctx, querycache.NewKey(ResourceProducts, params), func(ctx context.Context) (ProductPage, error) {
		return u.fetchPage(ctx, viewerID, q)
	})
	if err != nil {
		return ProductPage{}, err
	}

	page := res.Data
	page.Stale = res.Stale
	return page, nil
}

func (u *ProductUsecase) fetchPage(ctx context.Context, viewerID string, q validator.ListProductsRequest) (ProductPage, error) {
	lq := repo.ProductListQuery{
		Page:     q.Page,
		Limit:    q.Limit,
		Q:        q.Q,
		Category: q.Category,
		Sort:     q.Sort,
	}
	if q.OnlyFollowed {
		sellers, err := u.follows.ListSellerIDs(ctx, viewerID)
		if err != nil {
			return ProductPage{}, err
		}
		lq.FilterSellers = true
		lq.SellerIDs = sellers
	}

	items, total, err := u.products.List(ctx, lq)
	if err != nil {
		return ProductPage{}, err
	}
	if items == nil {
		items = []model.Product{}
	}
	return ProductPage{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// GetProduct は詳細。読むたびにview_countを増やす
func (u *ProductUsecase) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	p, err := u.findProduct(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}
	if !p.IsActive {
		return model.Product{}, &model.NotFoundError{Resource: "product", ID: productID}
	}

	if err := u.products.IncrementViewCount(ctx, p.ID); err != nil {
		zap.L().Warn("increment view count", zap.String("product_id", p.ID), zap.Error(err))
	} else {
		p.ViewCount++
	}
	return p, nil
}

func (u *ProductUsecase) findProduct(ctx context.Context, productID string) (model.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return model.Product{}, &model.NotFoundError{Resource: "product", ID: productID}
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, &model.NotFoundError{Resource: "product", ID: productID}
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 出品者本人か管理者だけ
func (u *ProductUsecase) findOwned(ctx context.Context, actor Actor, productID string) (model.Product, error) {
	if err := requireUser(actor.ID); err != nil {
		return model.Product{}, err
	}
	p, err := u.findProduct(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}
	if p.SellerID != actor.ID && !actor.IsAdmin() {
		return model.Product{}, &model.ForbiddenError{Message: "only the seller can change this listing"}
	}
	return p, nil
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, actor Actor, in validator.ProductRequest) (model.Product, error) {
	if err := requireUser(actor.ID); err != nil {
		return model.Product{}, err
	}
	now := u.clock.Now()
	v, err := validator.ValidateProduct(in, now)
	if err != nil {
		return model.Product{}, err
	}

	p := model.Product{
		ID:        u.ids.NewID(),
		SellerID:  actor.ID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductInput(&p, v)

	created, err := u.products.Create(ctx, p)
	if err != nil {
		return model.Product{}, err
	}

	u.events.Publish(event.TopicProductChanged, event.ProductChanged{ProductID: created.ID, SellerID: created.SellerID, Action: event.ProductCreated})
	return created, nil
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, actor Actor, productID string, in validator.ProductRequest) (model.Product, error) {
	p, err := u.findOwned(ctx, actor, productID)
	if err != nil {
		return model.Product{}, err
	}
	v, err := validator.ValidateProduct(in, u.clock.Now())
	if err != nil {
		return model.Product{}, err
	}

	applyProductInput(&p, v)
	p.UpdatedAt = u.clock.Now()
	if err := u.products.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, &model.NotFoundError{Resource: "product", ID: productID}
		}
		return model.Product{}, err
	}

	u.events.Publish(event.TopicProductChanged, event.ProductChanged{ProductID: p.ID, SellerID: p.SellerID, Action: event.ProductUpdated})
	return p, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, actor Actor, productID string) error {
	p, err := u.findOwned(ctx, actor, productID)
	if err != nil {
		return err
	}

	if err := u.products.SoftDelete(ctx, p.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return &model.NotFoundError{Resource: "product", ID: productID}
		}
		return err
	}

	u.events.Publish(event.TopicProductChanged, event.ProductChanged{ProductID: p.ID, SellerID: p.SellerID, Action: event.ProductDeleted})
	return nil
}

// UpdateInventory は管理者の在庫更新。
// 在庫・調整履歴・監査ログは同じTxで書く
func (u *ProductUsecase) UpdateInventory(ctx context.Context, actor Actor, productID string, in validator.InventoryRequest) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, &model.ForbiddenError{}
	}
	req, err := validator.ValidateInventory(in)
	if err != nil {
		return model.Product{}, err
	}
	if _, err := uuid.Parse(productID); err != nil {
		return model.Product{}, &model.NotFoundError{Resource: "product", ID: productID}
	}

	var out model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//在庫の現在値を更新（変更前の値が返る）
		before, err := r.Inventory().SetStock(ctx, productID, req.Stock)
		if errors.Is(err, repo.ErrNotFound) {
			return &model.NotFoundError{Resource: "product", ID: productID}
		}
		if err != nil {
			return err
		}

		now := u.clock.Now()

		//履歴を作成（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ID:          u.ids.NewID(),
			ProductID:   productID,
			AdminUserID: actor.ID,
			Delta:       req.Stock - before,
			Reason:      req.Reason,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		if err := writeAudit(ctx, r, u.ids.NewID(), model.AuditLog{
			ActorUserID:  actor.ID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			CreatedAt:    now,
		}, map[string]interface{}{"stock": before}, map[string]interface{}{"stock": req.Stock, "reason": req.Reason}); err != nil {
			return err
		}

		out, err = r.Products().FindByID(ctx, productID)
		return err
	})
	if err != nil {
		return model.Product{}, err
	}

	u.events.Publish(event.TopicProductChanged, event.ProductChanged{ProductID: out.ID, SellerID: out.SellerID, Action: event.ProductStockChanged})
	return out, nil
}

func applyProductInput(p *model.Product, v validator.ProductInput) {
	p.Title = v.Title
	p.Description = v.Description
	p.Price = v.Price
	p.ImageURL = v.ImageURL
	p.Category = v.Category
	p.Condition = v.Condition
	p.ListingType = v.ListingType
	p.Location = v.Location
	p.Stock = v.Stock
	p.EndsAt = v.EndsAt
}
