package server

import (
	"net/http"

	"campusmarket/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルーティングに載せるハンドラ一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Follow       *handler.FollowHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Address      *handler.AddressHandler
}

func RegisterRoutes(e *echo.Echo, jwtSecret string, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	h.Auth.RegisterRoutes(e, jwtSecret)
	h.Product.RegisterRoutes(e, jwtSecret)
	h.AdminProduct.RegisterRoutes(e, jwtSecret)
	h.Follow.RegisterRoutes(e, jwtSecret)
	h.Cart.RegisterRoutes(e, jwtSecret)
	h.Order.RegisterRoutes(e, jwtSecret)
	h.AdminOrder.RegisterRoutes(e, jwtSecret)
	h.Address.RegisterRoutes(e, jwtSecret)
}
