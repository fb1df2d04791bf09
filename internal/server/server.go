package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"campusmarket/internal/handler"
	"campusmarket/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	echo   *echo.Echo
	addr   string
	logger *zap.Logger
}

func New(addr, jwtSecret string, logger *zap.Logger, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())

	RegisterRoutes(e, jwtSecret, h)

	return &Server{echo: e, addr: addr, logger: logger}
}

// テストからhttptestで叩く用
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run はctxが終わるまで待ち、終わったらgraceful shutdownする
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server started", zap.String("addr", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("server shutting down")
		return errors.Wrap(s.echo.Shutdown(shutdownCtx), "shutdown")
	})

	return g.Wait()
}

// ルート未登録やmiddlewareのエラーもErrorResponseの形にそろえる
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, handler.ErrorResponse{Error: msg})
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}
