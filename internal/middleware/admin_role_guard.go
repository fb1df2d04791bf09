package middleware

import (
	"net/http"

	"campusmarket/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// RequireRole はAuthJWTが積んだロールがallowedのどれかであることを確認する
func RequireRole(allowed ...model.Role) echo.MiddlewareFunc {
	permitted := make(map[model.Role]struct{}, len(allowed))
	for _, r := range allowed {
		permitted[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if _, ok := permitted[model.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden: role "+role))
			}
			return next(c)
		}
	}
}

// 在庫・注文ステータス・CSV出力用
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
