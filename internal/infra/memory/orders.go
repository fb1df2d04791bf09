package memory

import (
	"context"
	"sort"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"
)

type orderRepo struct{ h handle }

func (st *state) loadOrder(o model.Order) model.Order {
	ids := make([]string, 0)
	for id, it := range st.orderItems {
		if it.OrderID == o.ID {
			ids = append(ids, id)
		}
	}
	st.sortBySeq(ids)

	o.Items = make([]model.OrderItem, 0, len(ids))
	for _, id := range ids {
		o.Items = append(o.Items, st.orderItems[id])
	}
	return o
}

// 新しい順（created_at desc）
func (st *state) sortOrdersDesc(list []model.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return st.seq[a.ID] > st.seq[b.ID]
	})
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var out model.Order
	err := r.h.do(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repo.ErrNotFound
		}
		out = st.loadOrder(o)
		return nil
	})
	return out, err
}

// トランザクション自体が排他なのでFindByIDと同じ
func (r *orderRepo) FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	var total int64
	err := r.h.do(func(st *state) error {
		var list []model.Order
		for _, o := range st.orders {
			if o.UserID == userID {
				list = append(list, o)
			}
		}
		st.sortOrdersDesc(list)
		total = int64(len(list))
		start, end := paginate(len(list), page, limit)
		out = make([]model.Order, 0, end-start)
		for _, o := range list[start:end] {
			out = append(out, st.loadOrder(o))
		}
		return nil
	})
	return out, total, err
}

func (r *orderRepo) Create(ctx context.Context, order model.Order) error {
	return r.h.do(func(st *state) error {
		for _, o := range st.orders {
			if o.Number == order.Number {
				return errDuplicate("orders.number", order.ID)
			}
			if order.IdempotencyKey != nil && o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
				return errDuplicate("orders.idempotency_key", *order.IdempotencyKey)
			}
		}
		now := r.h.now()
		if order.CreatedAt.IsZero() {
			order.CreatedAt = now
		}
		if order.UpdatedAt.IsZero() {
			order.UpdatedAt = now
		}
		order.Items = nil
		st.orders[order.ID] = order
		st.track(order.ID)
		return nil
	})
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return r.h.do(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repo.ErrNotFound
		}
		o.Status = status
		o.UpdatedAt = r.h.now()
		st.orders[orderID] = o
		return nil
	})
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, userID string, key string) (model.Order, bool, error) {
	var out model.Order
	found := false
	err := r.h.do(func(st *state) error {
		for _, o := range st.orders {
			if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
				out = st.loadOrder(o)
				found = true
				return nil
			}
		}
		return nil
	})
	return out, found, err
}

func (r *orderRepo) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 50
	}

	var out []model.Order
	var total int64
	err := r.h.do(func(st *state) error {
		var list []model.Order
		for _, o := range st.orders {
			if f.Status != "" && string(o.Status) != f.Status {
				continue
			}
			if f.UserID != nil && o.UserID != *f.UserID {
				continue
			}
			if f.From != nil && o.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && o.CreatedAt.After(*f.To) {
				continue
			}
			list = append(list, o)
		}
		st.sortOrdersDesc(list)
		total = int64(len(list))
		start, end := paginate(len(list), f.Page, f.Limit)
		out = make([]model.Order, 0, end-start)
		for _, o := range list[start:end] {
			out = append(out, st.loadOrder(o))
		}
		return nil
	})
	return out, total, err
}

type orderItemRepo struct{ h handle }

func (r *orderItemRepo) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.h.do(func(st *state) error {
		now := r.h.now()
		for i := range items {
			items[i].OrderID = orderID
			if items[i].CreatedAt.IsZero() {
				items[i].CreatedAt = now
			}
			st.orderItems[items[i].ID] = items[i]
			st.track(items[i].ID)
		}
		return nil
	})
}

func (r *orderItemRepo) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	var out []model.OrderItem
	err := r.h.do(func(st *state) error {
		out = st.loadOrder(model.Order{ID: orderID}).Items
		return nil
	})
	return out, err
}
