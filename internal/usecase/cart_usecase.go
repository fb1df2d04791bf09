package usecase

import (
	"context"
	"time"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"
	"campusmarket/internal/validator"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
// 在庫チェックはここでは目安（同じTx内で読んだ商品の在庫）。確定は注文時。
type CartUsecase struct {
	tx       repo.TransactionManager
	ids      IDGenerator
	shipping ShippingCalculator
}

func NewCartUsecase(tx repo.TransactionManager, ids IDGenerator, shipping ShippingCalculator) *CartUsecase {
	return &CartUsecase{tx: tx, ids: ids, shipping: shipping}
}

// 明細。価格は商品の現在価格
type CartItemView struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	//非公開・削除済みになった商品はfalse
	Available bool `json:"available"`
}

type CartView struct {
	ID    string         `json:"id"`
	Items []CartItemView `json:"items"`
	model.Totals
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartView, error) {
	if err := requireUser(userID); err != nil {
		return CartView{}, err
	}

	var out CartView
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID, u.ids.NewID())
		if err != nil {
			return err
		}
		out = u.view(cart)
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return out, nil
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in validator.AddToCartRequest) (CartItemView, error) {
	if err := requireUser(userID); err != nil {
		return CartItemView{}, err
	}
	req, err := validator.ValidateAddToCart(in)
	if err != nil {
		return CartItemView{}, err
	}

	var out CartItemView
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 商品チェック（公開のみ）
		p, err := r.Products().FindByID(ctx, req.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return &model.NotFoundError{Resource: "product", ID: req.ProductID}
		}
		if err != nil {
			return err
		}
		if !p.IsActive {
			return &model.NotFoundError{Resource: "product", ID: req.ProductID}
		}
		if p.IsAuction() {
			return model.NewValidationError(model.FieldError{Field: "product_id", Message: "auction listings cannot be added to the cart"})
		}
		if p.SellerID == userID {
			return model.NewValidationError(model.FieldError{Field: "product_id", Message: "cannot buy your own listing"})
		}

		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID, u.ids.NewID())
		if err != nil {
			return err
		}

		_, existed := cart.ItemForProduct(p.ID)
		item, err := cart.AddItem(p, req.Quantity, u.ids.NewID())
		if err != nil {
			return err
		}

		if existed {
			err = r.CartItems().UpdateQuantity(ctx, item.ID, item.Quantity)
		} else {
			row := item
			row.Product = nil
			err = r.CartItems().Create(ctx, row)
		}
		if err != nil {
			return err
		}

		out = toCartItemView(item)
		return nil
	})
	if err != nil {
		return CartItemView{}, err
	}
	return out, nil
}

// 数量変更（自分のACTIVEカートの明細のみ）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID string, itemID string, in validator.UpdateQuantityRequest) (CartItemView, error) {
	if err := requireUser(userID); err != nil {
		return CartItemView{}, err
	}
	qty, err := validator.ValidateUpdateQuantity(in)
	if err != nil {
		return CartItemView{}, err
	}

	var out CartItemView
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return &model.NotFoundError{Resource: "cart item", ID: itemID}
		}
		if err != nil {
			return err
		}

		cur, ok := cart.FindItem(itemID)
		if !ok {
			return &model.NotFoundError{Resource: "cart item", ID: itemID}
		}

		//購入できなくなった商品は在庫0扱い
		var stock int64
		if cur.Product != nil && cur.Product.Purchasable() {
			stock = cur.Product.Stock
		}

		item, err := cart.UpdateQuantity(itemID, qty, stock)
		if err != nil {
			return err
		}
		if err := r.CartItems().UpdateQuantity(ctx, item.ID, item.Quantity); err != nil {
			return err
		}

		out = toCartItemView(item)
		return nil
	})
	if err != nil {
		return CartItemView{}, err
	}
	return out, nil
}

// 明細削除。無い明細は何もしない
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID string, itemID string) (CartView, error) {
	if err := requireUser(userID); err != nil {
		return CartView{}, err
	}

	var out CartView
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveByUserID(ctx, userID, u.ids.NewID())
		if err != nil {
			return err
		}

		if cart.RemoveItem(itemID) {
			err := r.CartItems().DeleteByID(ctx, itemID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return err
			}
		}

		out = u.view(cart)
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return out, nil
}

func (u *CartUsecase) view(cart model.Cart) CartView {
	items := make([]CartItemView, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, toCartItemView(it))
	}

	subtotal := cart.ComputeTotals(decimal.Zero).Subtotal
	return CartView{
		ID:     cart.ID,
		Items:  items,
		Totals: cart.ComputeTotals(u.shipping.Cost(subtotal)),
	}
}

func toCartItemView(it model.CartItem) CartItemView {
	v := CartItemView{
		ID:        it.ID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		LineTotal: it.LineTotal(),
		UnitPrice: decimal.Zero,
	}
	if it.Product != nil {
		v.Title = it.Product.Title
		v.ImageURL = it.Product.ImageURL
		v.UnitPrice = it.Product.Price
		v.Available = it.Product.Purchasable()
	}
	return v
}

// AbandonIdle はbeforeより更新の古いACTIVEカートをABANDONEDにする（定期ジョブ）
func (u *CartUsecase) AbandonIdle(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		n, err = r.Carts().AbandonIdle(ctx, before)
		return err
	})
	return n, err
}
