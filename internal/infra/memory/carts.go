package memory

import (
	"context"
	"time"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"
)

type cartRepo struct{ h handle }

// 明細と商品（削除済み含む）を詰める
func (st *state) loadCart(c model.Cart) model.Cart {
	ids := make([]string, 0)
	for id, it := range st.cartItems {
		if it.CartID == c.ID {
			ids = append(ids, id)
		}
	}
	st.sortBySeq(ids)

	c.Items = make([]model.CartItem, 0, len(ids))
	for _, id := range ids {
		it := st.cartItems[id]
		if p, ok := st.products[it.ProductID]; ok {
			it.Product = &p
		}
		c.Items = append(c.Items, it)
	}
	return c
}

func (st *state) activeCart(userID string) (model.Cart, bool) {
	var found model.Cart
	ok := false
	for _, c := range st.carts {
		if c.UserID != userID || c.Status != model.CartStatusActive {
			continue
		}
		if !ok || st.seq[c.ID] > st.seq[found.ID] {
			found = c
			ok = true
		}
	}
	return found, ok
}

func (r *cartRepo) GetOrCreateActiveByUserID(ctx context.Context, userID string, newID string) (model.Cart, error) {
	var out model.Cart
	err := r.h.do(func(st *state) error {
		if c, ok := st.activeCart(userID); ok {
			out = st.loadCart(c)
			return nil
		}
		now := r.h.now()
		c := model.Cart{
			ID:        newID,
			UserID:    userID,
			Status:    model.CartStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.carts[c.ID] = c
		st.track(c.ID)
		out = st.loadCart(c)
		return nil
	})
	return out, err
}

func (r *cartRepo) FindActiveByUserID(ctx context.Context, userID string) (model.Cart, error) {
	var out model.Cart
	err := r.h.do(func(st *state) error {
		c, ok := st.activeCart(userID)
		if !ok {
			return repo.ErrNotFound
		}
		out = st.loadCart(c)
		return nil
	})
	return out, err
}

// Txは直列なのでロックは不要
func (r *cartRepo) LockActiveByUserID(ctx context.Context, userID string) (model.Cart, error) {
	return r.FindActiveByUserID(ctx, userID)
}

func (r *cartRepo) CheckOut(ctx context.Context, cartID string) error {
	return r.h.do(func(st *state) error {
		c, ok := st.carts[cartID]
		if !ok {
			return repo.ErrNotFound
		}
		if c.Status != model.CartStatusActive {
			return repo.ErrCartNotActive
		}
		c.Status = model.CartStatusCheckedOut
		c.UpdatedAt = r.h.now()
		st.carts[cartID] = c
		return nil
	})
}

func (r *cartRepo) Clear(ctx context.Context, cartID string) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.carts[cartID]; !ok {
			return repo.ErrNotFound
		}
		for id, it := range st.cartItems {
			if it.CartID == cartID {
				delete(st.cartItems, id)
			}
		}
		return nil
	})
}

func (r *cartRepo) AbandonIdle(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.h.do(func(st *state) error {
		touched := map[string]bool{}
		for _, it := range st.cartItems {
			if !it.UpdatedAt.Before(before) {
				touched[it.CartID] = true
			}
		}
		now := r.h.now()
		for id, c := range st.carts {
			if c.Status != model.CartStatusActive || !c.UpdatedAt.Before(before) || touched[id] {
				continue
			}
			c.Status = model.CartStatusAbandoned
			c.UpdatedAt = now
			st.carts[id] = c
			n++
		}
		return nil
	})
	return n, err
}

type cartItemRepo struct{ h handle }

func (r *cartItemRepo) ListByCartID(ctx context.Context, cartID string) ([]model.CartItem, error) {
	var out []model.CartItem
	err := r.h.do(func(st *state) error {
		c, ok := st.carts[cartID]
		if !ok {
			out = []model.CartItem{}
			return nil
		}
		out = st.loadCart(c).Items
		for i := range out {
			out[i].Product = nil
		}
		return nil
	})
	return out, err
}

// (cart_id, product_id) の一意制約も再現する
func (r *cartItemRepo) Create(ctx context.Context, item model.CartItem) error {
	return r.h.do(func(st *state) error {
		for _, it := range st.cartItems {
			if it.CartID == item.CartID && it.ProductID == item.ProductID {
				return errDuplicate("cart_items", item.CartID+"/"+item.ProductID)
			}
		}
		now := r.h.now()
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		item.Product = nil
		st.cartItems[item.ID] = item
		st.track(item.ID)
		return nil
	})
}

func (r *cartItemRepo) UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error {
	return r.h.do(func(st *state) error {
		it, ok := st.cartItems[cartItemID]
		if !ok {
			return repo.ErrNotFound
		}
		it.Quantity = qty
		it.UpdatedAt = r.h.now()
		st.cartItems[cartItemID] = it
		return nil
	})
}

func (r *cartItemRepo) DeleteByID(ctx context.Context, cartItemID string) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.cartItems[cartItemID]; !ok {
			return repo.ErrNotFound
		}
		delete(st.cartItems, cartItemID)
		return nil
	})
}
