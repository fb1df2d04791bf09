package repository

import "context"

type FollowRepository interface {
	// 既にフォロー済みなら何もしない
	Follow(ctx context.Context, followerID, sellerID string) error
	Unfollow(ctx context.Context, followerID, sellerID string) error
	ListSellerIDs(ctx context.Context, followerID string) ([]string, error)
}
