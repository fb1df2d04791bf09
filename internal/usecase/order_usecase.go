package usecase

import (
	"context"
	"strings"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/event"
	repo "campusmarket/internal/repository"
	"campusmarket/internal/validator"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const maxIdempotencyKeyLen = 255

// 同時に同じキーで作られた（Txをやり直して既存を返す）
var errIdempotencyRace = errors.New("idempotency key race")

type OrderUsecase struct {
	tx       repo.TransactionManager
	ids      IDGenerator
	numbers  OrderNumberGenerator
	clock    Clock
	shipping ShippingCalculator
	status   statusChanger
	events   EventPublisher
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	ids IDGenerator,
	numbers OrderNumberGenerator,
	clock Clock,
	shipping ShippingCalculator,
	lifecycle model.Lifecycle,
	events EventPublisher,
) *OrderUsecase {
	return &OrderUsecase{
		tx:       tx,
		ids:      ids,
		numbers:  numbers,
		clock:    clock,
		shipping: shipping,
		status:   statusChanger{lifecycle: lifecycle, ids: ids, clock: clock},
		events:   publisherOrNop(events),
	}
}

type OrderPage struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// PlaceOrder はACTIVEカートを注文にする。
// 在庫減算・注文作成・カートのクリアは1つのTxで、どれかが失敗したら全部戻す。
// 同じidempotencyKeyなら既存の注文を返す（createdはfalse）
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in validator.CreateOrderRequest, idempotencyKey string) (model.Order, bool, error) {
	if err := requireUser(userID); err != nil {
		return model.Order{}, false, err
	}
	req, err := validator.ValidateCreateOrder(in)
	if err != nil {
		return model.Order{}, false, err
	}
	key := strings.TrimSpace(idempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return model.Order{}, false, model.NewValidationError(model.FieldError{Field: "idempotency_key", Message: "must be at most 255 characters"})
	}

	var out model.Order
	created := false

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return err
			}
			if found {
				out = existing
				return nil
			}
		}

		addr, err := u.shippingAddress(ctx, r, userID, req)
		if err != nil {
			return err
		}

		//同じユーザーの同時確定はここで直列になる
		cart, err := r.Carts().LockActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return emptyCartError()
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return emptyCartError()
		}

		now := u.clock.Now()
		orderID := u.ids.NewID()
		items := make([]model.OrderItem, 0, len(cart.Items))
		subtotal := decimal.Zero

		for _, ci := range cart.Items {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return &model.NotFoundError{Resource: "product", ID: ci.ProductID}
			}
			if err != nil {
				return err
			}
			if !p.Purchasable() {
				return &model.NotFoundError{Resource: "product", ID: ci.ProductID}
			}

			//在庫を確定時に再チェックして減らす（足りないならfalse）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &model.InsufficientStockError{ProductID: ci.ProductID, Requested: ci.Quantity, Available: -1}
			}

			//スナップショット
			it := model.OrderItem{
				ID:                u.ids.NewID(),
				OrderID:           orderID,
				ProductID:         p.ID,
				TitleSnapshot:     p.Title,
				UnitPriceSnapshot: p.Price,
				Quantity:          ci.Quantity,
				CreatedAt:         now,
			}
			items = append(items, it)
			subtotal = subtotal.Add(it.LineTotal())
		}

		shipping := u.shipping.Cost(subtotal)
		order := model.Order{
			ID:           orderID,
			Number:       u.numbers.Next(),
			UserID:       userID,
			Status:       model.OrderStatusPending,
			Address:      addr,
			Subtotal:     subtotal,
			ShippingCost: shipping,
			TotalPrice:   subtotal.Add(shipping),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if key != "" {
			k := key
			order.IdempotencyKey = &k
		}

		if err := r.Orders().Create(ctx, order); err != nil {
			if key != "" && errors.Is(err, repo.ErrDuplicate) {
				return errIdempotencyRace
			}
			return err
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return err
		}

		//カートを空にしてCHECKED_OUT（再注文防止）
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}
		if err := r.Carts().CheckOut(ctx, cart.ID); err != nil {
			if errors.Is(err, repo.ErrCartNotActive) {
				return &model.ConflictError{Message: "cart was already checked out"}
			}
			return err
		}

		order.Items = items
		out = order
		created = true
		return nil
	})

	if errors.Is(err, errIdempotencyRace) {
		out, err = u.findByIdempotencyKey(ctx, userID, key)
		created = false
	}
	if err != nil {
		return model.Order{}, false, err
	}

	if created {
		u.events.Publish(event.TopicOrderCreated, event.OrderCreated{Order: out})
	}
	return out, created, nil
}

func (u *OrderUsecase) findByIdempotencyKey(ctx context.Context, userID, key string) (model.Order, error) {
	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if !found {
			//他のユーザーが同じキーを使っている
			return &model.ConflictError{Message: "idempotency key already used"}
		}
		out = existing
		return nil
	})
	return out, err
}

// 配送先。住所帳のものはコピーする
func (u *OrderUsecase) shippingAddress(ctx context.Context, r repo.TxRepos, userID string, req validator.CreateOrder) (model.ShippingAddress, error) {
	if req.Address != nil {
		return *req.Address, nil
	}

	a, err := r.Addresses().FindByID(ctx, req.AddressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ShippingAddress{}, &model.NotFoundError{Resource: "address", ID: req.AddressID}
	}
	if err != nil {
		return model.ShippingAddress{}, err
	}
	//他人の住所は存在しない扱い
	if a.UserID != userID {
		return model.ShippingAddress{}, &model.NotFoundError{Resource: "address", ID: req.AddressID}
	}
	return a.Snapshot(), nil
}

func emptyCartError() error {
	return model.NewValidationError(model.FieldError{Field: "cart", Message: "must not be empty"})
}

func validatePage(page, limit int) error {
	verr := &model.ValidationError{}
	if page < 1 {
		verr.Add("page", "must be at least 1")
	}
	if limit < 1 || limit > 100 {
		verr.Add("limit", "must be between 1 and 100")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, page, limit int) (OrderPage, error) {
	if err := requireUser(userID); err != nil {
		return OrderPage{}, err
	}
	if err := validatePage(page, limit); err != nil {
		return OrderPage{}, err
	}

	out := OrderPage{Page: page, Limit: limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return err
		}
		out.Items = orders
		out.Total = total
		return nil
	})
	if err != nil {
		return OrderPage{}, err
	}
	if out.Items == nil {
		out.Items = []model.Order{}
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID string, orderID string) (model.Order, error) {
	if err := requireUser(userID); err != nil {
		return model.Order{}, err
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID, false)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return &model.NotFoundError{Resource: "order", ID: orderID}
		}
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// CancelMyOrder は購入者によるキャンセル。遷移ルールは管理者と同じ
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID string, orderID string) (model.Order, error) {
	if err := requireUser(userID); err != nil {
		return model.Order{}, err
	}

	var out model.Order
	var from model.OrderStatus
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID, true)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return &model.NotFoundError{Resource: "order", ID: orderID}
		}
		from = o.Status

		out, err = u.status.apply(ctx, r, o, model.OrderStatusCancelled, userID)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}

	u.events.Publish(event.TopicOrderStatusChanged, event.OrderStatusChanged{Order: out, From: from, ActorID: userID})
	return out, nil
}

// 不正なIDは存在しない扱い
func findOrder(ctx context.Context, r repo.TxRepos, orderID string, forUpdate bool) (model.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return model.Order{}, &model.NotFoundError{Resource: "order", ID: orderID}
	}

	var o model.Order
	var err error
	if forUpdate {
		o, err = r.Orders().FindByIDForUpdate(ctx, orderID)
	} else {
		o, err = r.Orders().FindByID(ctx, orderID)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, &model.NotFoundError{Resource: "order", ID: orderID}
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}
