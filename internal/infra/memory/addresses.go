package memory

import (
	"context"
	"sort"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"
)

type addressRepo struct{ h handle }

func (r *addressRepo) Create(ctx context.Context, address model.Address) (model.Address, error) {
	err := r.h.do(func(st *state) error {
		now := r.h.now()
		if address.CreatedAt.IsZero() {
			address.CreatedAt = now
		}
		address.UpdatedAt = now
		st.addresses[address.ID] = address
		st.track(address.ID)
		return nil
	})
	return address, err
}

// デフォルトを先頭、あとは作成順
func (r *addressRepo) ListByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	out := []model.Address{}
	err := r.h.do(func(st *state) error {
		for _, a := range st.addresses {
			if a.UserID == userID {
				out = append(out, a)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].IsDefault != out[j].IsDefault {
				return out[i].IsDefault
			}
			return st.seq[out[i].ID] < st.seq[out[j].ID]
		})
		return nil
	})
	return out, err
}

func (r *addressRepo) FindByID(ctx context.Context, addressID string) (model.Address, error) {
	var out model.Address
	err := r.h.do(func(st *state) error {
		a, ok := st.addresses[addressID]
		if !ok {
			return repo.ErrNotFound
		}
		out = a
		return nil
	})
	return out, err
}

func (r *addressRepo) Update(ctx context.Context, address model.Address) error {
	return r.h.do(func(st *state) error {
		cur, ok := st.addresses[address.ID]
		if !ok {
			return repo.ErrNotFound
		}
		cur.Street = address.Street
		cur.City = address.City
		cur.ZipCode = address.ZipCode
		cur.Phone = address.Phone
		cur.UpdatedAt = r.h.now()
		st.addresses[address.ID] = cur
		return nil
	})
}

func (r *addressRepo) Delete(ctx context.Context, addressID string) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.addresses[addressID]; !ok {
			return repo.ErrNotFound
		}
		delete(st.addresses, addressID)
		return nil
	})
}

func (r *addressRepo) SetDefault(ctx context.Context, userID, addressID string) error {
	return r.h.do(func(st *state) error {
		target, ok := st.addresses[addressID]
		if !ok || target.UserID != userID {
			return repo.ErrNotFound
		}
		for id, a := range st.addresses {
			if a.UserID != userID {
				continue
			}
			a.IsDefault = id == addressID
			st.addresses[id] = a
		}
		return nil
	})
}

type auditLogRepo struct{ h handle }

func (r *auditLogRepo) Create(ctx context.Context, log model.AuditLog) error {
	return r.h.do(func(st *state) error {
		if log.CreatedAt.IsZero() {
			log.CreatedAt = r.h.now()
		}
		st.auditLogs = append(st.auditLogs, log)
		return nil
	})
}

// 新しい順
func (r *auditLogRepo) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	out := []model.AuditLog{}
	err := r.h.do(func(st *state) error {
		var hits []model.AuditLog
		for i := len(st.auditLogs) - 1; i >= 0; i-- {
			l := st.auditLogs[i]
			if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
				continue
			}
			if f.Action != nil && l.Action != *f.Action {
				continue
			}
			if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
				continue
			}
			if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
				continue
			}
			if f.CreatedFrom != nil && l.CreatedAt.Before(*f.CreatedFrom) {
				continue
			}
			if f.CreatedTo != nil && l.CreatedAt.After(*f.CreatedTo) {
				continue
			}
			hits = append(hits, l)
		}
		if f.Offset >= len(hits) {
			return nil
		}
		end := f.Offset + limit
		if end > len(hits) {
			end = len(hits)
		}
		out = append(out, hits[f.Offset:end]...)
		return nil
	})
	return out, err
}
