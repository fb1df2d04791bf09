package memory

import (
	"context"
	"sort"
	"strings"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	"gorm.io/gorm"
)

type productRepo struct{ h handle }

func visible(p model.Product) bool {
	return !p.DeletedAt.Valid
}

func (r *productRepo) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	var total int64

	if q.FilterSellers && len(q.SellerIDs) == 0 {
		return []model.Product{}, 0, nil
	}
	sellers := map[string]bool{}
	for _, id := range q.SellerIDs {
		sellers[id] = true
	}
	needle := strings.ToLower(strings.TrimSpace(q.Q))

	err := r.h.do(func(st *state) error {
		var hits []model.Product
		for _, p := range st.products {
			if !visible(p) || !p.IsActive {
				continue
			}
			if needle != "" &&
				!strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
			if q.Category != "" && p.Category != q.Category {
				continue
			}
			if q.FilterSellers && !sellers[p.SellerID] {
				continue
			}
			hits = append(hits, p)
		}

		sort.SliceStable(hits, func(i, j int) bool {
			a, b := hits[i], hits[j]
			switch q.Sort {
			case "price_asc":
				if !a.Price.Equal(b.Price) {
					return a.Price.LessThan(b.Price)
				}
				return a.ID < b.ID
			case "price_desc":
				if !a.Price.Equal(b.Price) {
					return a.Price.GreaterThan(b.Price)
				}
				return a.ID > b.ID
			case "popular":
				if a.ViewCount != b.ViewCount {
					return a.ViewCount > b.ViewCount
				}
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return st.seq[a.ID] > st.seq[b.ID]
		})

		total = int64(len(hits))
		start, end := paginate(len(hits), q.Page, q.Limit)
		out = append([]model.Product{}, hits[start:end]...)
		return nil
	})
	return out, total, err
}

func (r *productRepo) FindByID(ctx context.Context, id string) (model.Product, error) {
	var out model.Product
	err := r.h.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok || !visible(p) {
			return repo.ErrNotFound
		}
		out = p
		return nil
	})
	return out, err
}

func (r *productRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	err := r.h.do(func(st *state) error {
		now := r.h.now()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		st.products[p.ID] = p
		st.track(p.ID)
		return nil
	})
	return p, err
}

func (r *productRepo) Update(ctx context.Context, p model.Product) error {
	return r.h.do(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok || !visible(cur) {
			return repo.ErrNotFound
		}
		cur.Title = p.Title
		cur.Description = p.Description
		cur.Price = p.Price
		cur.ImageURL = p.ImageURL
		cur.Category = p.Category
		cur.Condition = p.Condition
		cur.ListingType = p.ListingType
		cur.Location = p.Location
		cur.Stock = p.Stock
		cur.IsActive = p.IsActive
		cur.EndsAt = p.EndsAt
		cur.UpdatedAt = r.h.now()
		st.products[p.ID] = cur
		return nil
	})
}

func (r *productRepo) SoftDelete(ctx context.Context, id string) error {
	return r.h.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok || !visible(p) {
			return repo.ErrNotFound
		}
		p.DeletedAt = gorm.DeletedAt{Time: r.h.now(), Valid: true}
		st.products[id] = p
		return nil
	})
}

func (r *productRepo) IncrementViewCount(ctx context.Context, id string) error {
	return r.h.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok || !visible(p) {
			return repo.ErrNotFound
		}
		p.ViewCount++
		st.products[id] = p
		return nil
	})
}

type inventoryRepo struct{ h handle }

func (r *inventoryRepo) SetStock(ctx context.Context, productID string, newStock int64) (int64, error) {
	var before int64
	err := r.h.do(func(st *state) error {
		p, ok := st.products[productID]
		if !ok || !visible(p) {
			return repo.ErrNotFound
		}
		before = p.Stock
		p.Stock = newStock
		p.UpdatedAt = r.h.now()
		st.products[productID] = p
		return nil
	})
	return before, err
}

// 条件付き減算（UPDATE ... WHERE stock >= qty と同じ）
func (r *inventoryRepo) DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error) {
	ok := false
	err := r.h.do(func(st *state) error {
		p, found := st.products[productID]
		if !found || !visible(p) || p.Stock < qty {
			return nil
		}
		p.Stock -= qty
		st.products[productID] = p
		ok = true
		return nil
	})
	return ok, err
}

func (r *inventoryRepo) IncreaseStock(ctx context.Context, productID string, qty int64) error {
	return r.h.do(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return repo.ErrNotFound
		}
		p.Stock += qty
		st.products[productID] = p
		return nil
	})
}

func (r *inventoryRepo) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.h.do(func(st *state) error {
		if adj.CreatedAt.IsZero() {
			adj.CreatedAt = r.h.now()
		}
		st.adjustments = append(st.adjustments, adj)
		return nil
	})
}
