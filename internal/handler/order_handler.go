package handler

import (
	"net/http"
	"strings"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/middleware"
	"campusmarket/internal/usecase"
	"campusmarket/internal/validator"

	"github.com/labstack/echo/v4"
)

// 同じキーの再送は同じ注文を返す
const IdempotencyKeyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// /orders系のルーティング
func (h *OrderHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(jwtSecret))

	g.POST("", h.placeOrder)
	g.GET("", h.listMyOrders)
	g.GET("/:id", h.getMyOrder)
	g.POST("/:id/cancel", h.cancelMyOrder)
}

func (h *OrderHandler) placeOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req validator.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	key := strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))

	order, created, err := h.uc.PlaceOrder(c.Request().Context(), userID, req, key)
	if err != nil {
		return writeError(c, err)
	}

	//再送なら200
	if !created {
		return c.JSON(http.StatusOK, order)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) listMyOrders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	verr := &model.ValidationError{}
	page := queryInt(c, "page", 1, verr)
	limit := queryInt(c, "limit", 20, verr)
	if len(verr.Fields) > 0 {
		return writeError(c, verr)
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) getMyOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancelMyOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.CancelMyOrder(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
