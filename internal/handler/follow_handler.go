package handler

import (
	"net/http"

	"campusmarket/internal/middleware"
	"campusmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 出品者のフォロー
type FollowHandler struct {
	uc *usecase.FollowUsecase
}

func NewFollowHandler(uc *usecase.FollowUsecase) *FollowHandler {
	return &FollowHandler{uc: uc}
}

func (h *FollowHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	auth := middleware.AuthJWT(jwtSecret)

	e.POST("/users/:id/follow", h.follow, auth)
	e.DELETE("/users/:id/follow", h.unfollow, auth)
	e.GET("/me/following", h.listFollowing, auth)
}

type followingResponse struct {
	SellerIDs []string `json:"seller_ids"`
}

func (h *FollowHandler) follow(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	if err := h.uc.Follow(c.Request().Context(), userID, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "followed"})
}

func (h *FollowHandler) unfollow(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	if err := h.uc.Unfollow(c.Request().Context(), userID, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "unfollowed"})
}

func (h *FollowHandler) listFollowing(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	ids, err := h.uc.ListFollowing(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, followingResponse{SellerIDs: ids})
}
