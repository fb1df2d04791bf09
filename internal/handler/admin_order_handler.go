package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/middleware"
	"campusmarket/internal/usecase"
	"campusmarket/internal/validator"

	"github.com/labstack/echo/v4"
)

// 管理者の注文操作
type AdminOrderHandler struct {
	uc    *usecase.AdminOrderUsecase
	clock usecase.Clock
}

// DI
func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, clock usecase.Clock) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, clock: clock}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	guards := []echo.MiddlewareFunc{middleware.AuthJWT(jwtSecret), middleware.AdminRoleGuard()}

	e.PATCH("/orders/:id/status", h.updateStatus, guards...)

	admin := e.Group("/admin", guards...)
	admin.GET("/orders", h.listOrders)
	admin.GET("/orders/export", h.exportCSV)
	admin.PUT("/orders/:id/status", h.updateStatus)
}

func (h *AdminOrderHandler) query(c echo.Context, verr *model.ValidationError) usecase.AdminOrderQuery {
	return usecase.AdminOrderQuery{
		Page:   queryInt(c, "page", 1, verr),
		Limit:  queryInt(c, "limit", 20, verr),
		Status: c.QueryParam("status"),
		UserID: c.QueryParam("user_id"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	}
}

func (h *AdminOrderHandler) listOrders(c echo.Context) error {
	verr := &model.ValidationError{}
	q := h.query(c, verr)
	if len(verr.Fields) > 0 {
		return writeError(c, verr)
	}

	out, err := h.uc.List(c.Request().Context(), actorFromContext(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CSVはメモリに書いてから返す。途中で失敗したら普通のエラーJSON
func (h *AdminOrderHandler) exportCSV(c echo.Context) error {
	verr := &model.ValidationError{}
	q := h.query(c, verr)
	if len(verr.Fields) > 0 {
		return writeError(c, verr)
	}

	var buf bytes.Buffer
	if err := h.uc.ExportCSV(c.Request().Context(), actorFromContext(c), q, &buf); err != nil {
		return writeError(c, err)
	}

	name := fmt.Sprintf("orders-%s.csv", h.clock.Now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req validator.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
