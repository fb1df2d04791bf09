package handler

import (
	"net/http"
	"strconv"
	"strings"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/middleware"
	"campusmarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// エラーの形。fieldsは入力エラーのときだけ
type ErrorResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// writeError はドメインのエラーをステータスコードに変換して返す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var (
		vErr     *model.ValidationError
		uaErr    *model.UnauthorizedError
		fbErr    *model.ForbiddenError
		nfErr    *model.NotFoundError
		stockErr *model.InsufficientStockError
		trErr    *model.InvalidTransitionError
		cErr     *model.ConflictError
		termErr  *model.TerminalStateError
		fetchErr *model.FetchError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation error", Fields: vErr.Fields})
	case errors.As(err, &uaErr):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: uaErr.Error()})
	case errors.As(err, &fbErr):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: fbErr.Error()})
	case errors.As(err, &nfErr):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: nfErr.Error()})
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: stockErr.Error()})
	case errors.As(err, &trErr):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: trErr.Error()})
	case errors.As(err, &cErr):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: cErr.Error()})
	case errors.As(err, &termErr):
		return c.JSON(http.StatusGone, ErrorResponse{Error: termErr.Error()})
	case errors.As(err, &fetchErr):
		zap.L().Warn("upstream fetch failed", zap.String("key", fetchErr.Key), zap.Int("attempts", fetchErr.Attempts), zap.Error(fetchErr.Err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "listing temporarily unavailable"})
	}

	//500
	zap.L().Error("internal error",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bodyが読めない・JSONが壊れている
func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

//middleware.AuthJWT が c.Set("user_id", string) した値を取り出す

func getUserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func actorFromContext(c echo.Context) usecase.Actor {
	id, _ := getUserIDFromContext(c)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return usecase.Actor{ID: id, Role: model.Role(role)}
}

// クエリの整数。空ならdef、数字でなければverrに積む
func queryInt(c echo.Context, name string, def int, verr *model.ValidationError) int {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		verr.Add(name, "must be a number")
		return def
	}
	return n
}

func queryBool(c echo.Context, name string, verr *model.ValidationError) bool {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		verr.Add(name, "must be true or false")
		return false
	}
	return b
}
