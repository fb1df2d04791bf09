package usecase

import (
	"context"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/event"
	repo "campusmarket/internal/repository"

	"github.com/pkg/errors"
)

// 出品者のフォロー
type FollowUsecase struct {
	users   repo.UserRepository
	follows repo.FollowRepository
	events  EventPublisher
}

func NewFollowUsecase(users repo.UserRepository, follows repo.FollowRepository, events EventPublisher) *FollowUsecase {
	return &FollowUsecase{users: users, follows: follows, events: publisherOrNop(events)}
}

func (u *FollowUsecase) Follow(ctx context.Context, followerID, sellerID string) error {
	id, err := u.checkSeller(ctx, followerID, sellerID)
	if err != nil {
		return err
	}
	if err := u.follows.Follow(ctx, followerID, id); err != nil {
		return err
	}
	u.events.Publish(event.TopicFollowChanged, event.FollowChanged{FollowerID: followerID, SellerID: id, Following: true})
	return nil
}

// フォローしていなくてもエラーにしない
func (u *FollowUsecase) Unfollow(ctx context.Context, followerID, sellerID string) error {
	if err := requireUser(followerID); err != nil {
		return err
	}
	id, err := parseID("id", sellerID)
	if err != nil {
		return err
	}
	if err := u.follows.Unfollow(ctx, followerID, id); err != nil {
		return err
	}
	u.events.Publish(event.TopicFollowChanged, event.FollowChanged{FollowerID: followerID, SellerID: id, Following: false})
	return nil
}

func (u *FollowUsecase) ListFollowing(ctx context.Context, followerID string) ([]string, error) {
	if err := requireUser(followerID); err != nil {
		return nil, err
	}
	return u.follows.ListSellerIDs(ctx, followerID)
}

func (u *FollowUsecase) checkSeller(ctx context.Context, followerID, sellerID string) (string, error) {
	if err := requireUser(followerID); err != nil {
		return "", err
	}
	id, err := parseID("id", sellerID)
	if err != nil {
		return "", err
	}
	if id == followerID {
		return "", model.NewValidationError(model.FieldError{Field: "id", Message: "cannot follow yourself"})
	}

	seller, err := u.users.FindByID(ctx, id)
	if errors.Is(err, repo.ErrUserNotFound) {
		return "", &model.NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return "", err
	}
	if !seller.IsActive {
		return "", &model.NotFoundError{Resource: "user", ID: id}
	}
	return id, nil
}
