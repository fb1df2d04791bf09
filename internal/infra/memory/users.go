package memory

import (
	"context"
	"sort"
	"strings"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"

	"github.com/pkg/errors"
)

func errDuplicate(table, key string) error {
	return errors.Wrapf(repo.ErrDuplicate, "%s %s", table, key)
}

type userRepo struct{ h handle }

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.h.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) {
				return repo.ErrEmailTaken
			}
		}
		now := r.h.now()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		if user.UpdatedAt.IsZero() {
			user.UpdatedAt = now
		}
		if user.Role == "" {
			user.Role = model.RoleUser
		}
		st.users[user.ID] = *user
		st.track(user.ID)
		return nil
	})
}

func (r *userRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var out *model.User
	err := r.h.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repo.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	err := r.h.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return repo.ErrUserNotFound
	})
	return out, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return repo.ErrUserNotFound
		}
		user.UpdatedAt = r.h.now()
		st.users[user.ID] = *user
		return nil
	})
}

type followRepo struct{ h handle }

func (r *followRepo) Follow(ctx context.Context, followerID, sellerID string) error {
	return r.h.do(func(st *state) error {
		k := followKey{followerID: followerID, sellerID: sellerID}
		if _, ok := st.follows[k]; ok {
			return nil
		}
		st.follows[k] = model.Follow{FollowerID: followerID, SellerID: sellerID, CreatedAt: r.h.now()}
		return nil
	})
}

func (r *followRepo) Unfollow(ctx context.Context, followerID, sellerID string) error {
	return r.h.do(func(st *state) error {
		delete(st.follows, followKey{followerID: followerID, sellerID: sellerID})
		return nil
	})
}

func (r *followRepo) ListSellerIDs(ctx context.Context, followerID string) ([]string, error) {
	out := []string{}
	err := r.h.do(func(st *state) error {
		for k := range st.follows {
			if k.followerID == followerID {
				out = append(out, k.sellerID)
			}
		}
		sort.Strings(out)
		return nil
	})
	return out, err
}
