package auth

import (
	"context"
	"strings"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/repository"
	"campusmarket/internal/validator"

	"github.com/pkg/errors"
)

type RegisterUserOutput struct {
	User model.User `json:"user"`
}

// 同じメールで登録済み
var ErrEmailAlreadyExists error = &model.ConflictError{Message: "email already exists"}

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

// RegisterUserUsecase は学生アカウントを作る。ロールは常にUSER
type RegisterUserUsecase struct {
	users  repository.UserRepository
	hasher PasswordHasher
	ids    IDGenerator
	clock  Clock
}

// DI
func NewRegisterUserUsecase(users repository.UserRepository, hasher PasswordHasher, ids IDGenerator, clock Clock) *RegisterUserUsecase {
	return &RegisterUserUsecase{users: users, hasher: hasher, ids: ids, clock: clock}
}

func (u *RegisterUserUsecase) Execute(ctx context.Context, in validator.RegisterRequest) (RegisterUserOutput, error) {
	req, err := validator.ValidateRegister(in)
	if err != nil {
		return RegisterUserOutput{}, err
	}
	if err := checkPasswordPolicy(req.Email, req.Password); err != nil {
		return RegisterUserOutput{}, err
	}

	//先に見ておく。同時登録は一意制約で弾かれる
	_, err = u.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return RegisterUserOutput{}, ErrEmailAlreadyExists
	case !errors.Is(err, repository.ErrUserNotFound):
		return RegisterUserOutput{}, err
	}

	hashed, err := u.hasher.Hash(req.Password)
	if err != nil {
		return RegisterUserOutput{}, err
	}

	user := u.newUser(req, hashed)
	if err := u.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return RegisterUserOutput{}, ErrEmailAlreadyExists
		}
		return RegisterUserOutput{}, err
	}
	return RegisterUserOutput{User: user}, nil
}

// 表示名が空ならメールの@より前を出品者名に使う
func (u *RegisterUserUsecase) newUser(req validator.RegisterRequest, passwordHash string) model.User {
	name := req.DisplayName
	if name == "" {
		name, _, _ = strings.Cut(req.Email, "@")
	}
	now := u.clock.Now()
	return model.User{
		ID:           u.ids.NewID(),
		Email:        req.Email,
		DisplayName:  name,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
