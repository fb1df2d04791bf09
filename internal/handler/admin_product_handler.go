package handler

import (
	"net/http"

	"campusmarket/internal/middleware"
	"campusmarket/internal/usecase"
	"campusmarket/internal/validator"

	"github.com/labstack/echo/v4"
)

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.AdminRoleGuard())

	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PUT("/inventory/:product_id", h.updateInventory)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	var req validator.ProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	p, err := h.uc.UpdateProduct(c.Request().Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	if err := h.uc.DeleteProduct(c.Request().Context(), actorFromContext(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// 在庫を絶対値で上書き。差分は調整履歴に残る
func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	var req validator.InventoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	p, err := h.uc.UpdateInventory(c.Request().Context(), actorFromContext(c), c.Param("product_id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
