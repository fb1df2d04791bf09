package handler

import (
	"net/http"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/middleware"
	"campusmarket/internal/usecase"
	"campusmarket/internal/validator"

	"github.com/labstack/echo/v4"
)

// /products の公開APIと出品者の操作
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 一覧と詳細はログイン不要
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	auth := middleware.AuthJWT(jwtSecret)

	e.GET("/products", h.listProducts, middleware.OptionalAuthJWT(jwtSecret))
	e.GET("/products/:id", h.getProduct)
	e.POST("/products", h.createProduct, auth)
	e.PUT("/products/:id", h.updateProduct, auth)
	e.DELETE("/products/:id", h.deleteProduct, auth)
}

func (h *ProductHandler) listProducts(c echo.Context) error {
	verr := &model.ValidationError{}
	req := validator.ListProductsRequest{
		Page:         queryInt(c, "page", 1, verr),
		Limit:        queryInt(c, "limit", 20, verr),
		Q:            c.QueryParam("q"),
		Category:     c.QueryParam("category"),
		Sort:         c.QueryParam("sort"),
		OnlyFollowed: queryBool(c, "onlyFollowed", verr),
	}
	if len(verr.Fields) > 0 {
		return writeError(c, verr)
	}

	viewerID, _ := getUserIDFromContext(c)
	out, err := h.uc.ListProducts(c.Request().Context(), viewerID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) getProduct(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) createProduct(c echo.Context) error {
	var req validator.ProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) updateProduct(c echo.Context) error {
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

func (h *ProductHandler) deleteProduct(c echo.Context) error {
	if err := h.uc.DeleteProduct(c.Request().Context(), actorFromContext(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
