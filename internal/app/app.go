// Package app は設定からusecase・handler・cronを組み立てる。
package app

import (
	"context"
	"time"

	"campusmarket/internal/config"
	"campusmarket/internal/domain/model"
	"campusmarket/internal/event"
	"campusmarket/internal/handler"
	"campusmarket/internal/infra/mail"
	"campusmarket/internal/jobs"
	"campusmarket/internal/querycache"
	"campusmarket/internal/server"
	"campusmarket/internal/usecase"
	auth "campusmarket/internal/usecase/auth_usecase"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBcryptCost = 12

	jobsStopTimeout = 30 * time.Second
)

type Options struct {
	Clock      usecase.Clock
	BcryptCost int
	Mailer     event.Mailer
}

type App struct {
	Server *server.Server
	Jobs   *jobs.Scheduler
	Bus    *event.Bus
	Cache  *querycache.Cache[usecase.ProductPage]
}

func New(cfg config.Config, logger *zap.Logger, st Storage, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = usecase.SystemClock{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d out of range", opts.BcryptCost)
	}
	if opts.Mailer == nil {
		opts.Mailer = mail.New(cfg.Mail)
	}

	//usecaseに渡す部品
	ids := usecase.UUIDGenerator{}
	numbers, err := usecase.NewSnowflakeNumbers(cfg.Order.SnowflakeNode)
	if err != nil {
		return nil, err
	}
	shipping := usecase.FlatRateShipping{Rate: cfg.Shipping.FlatRate, FreeOver: cfg.Shipping.FreeOver}
	lifecycle := model.Lifecycle{AllowCancelAfterPaid: cfg.Order.AllowCancelAfterPaid}

	//CACHE_RETRY=0はリトライなし
	retry := cfg.Cache.Retry
	if retry == 0 {
		retry = querycache.NoRetry
	}
	cache := querycache.New[usecase.ProductPage](querycache.Options{
		StaleTime:         cfg.Cache.StaleTime,
		Retry:             retry,
		RetryDelay:        cfg.Cache.RetryDelay,
		ServeStaleOnError: cfg.Cache.ServeStale,
		Now:               opts.Clock.Now,
		Logger:            logger.Named("querycache"),
	})

	//イベント：キャッシュ破棄は同期、メールは非同期
	bus := event.NewBus()
	if err := event.RegisterCacheInvalidation(bus, cache, usecase.ResourceProducts); err != nil {
		return nil, err
	}
	if err := event.NewNotifier(st.Users, opts.Mailer).Register(bus); err != nil {
		return nil, err
	}

	//Usecase生成
	hasher := auth.NewBcryptPasswordHasher(opts.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	registerUC := auth.NewRegisterUserUsecase(st.Users, hasher, ids, opts.Clock)
	loginUC := auth.NewLoginUsecase(st.Users, verifier, issuer, opts.Clock)
	meUC := auth.NewMeUsecase(st.Users)

	carts := usecase.NewCartUsecase(st.Tx, ids, shipping)
	orders := usecase.NewOrderUsecase(st.Tx, ids, numbers, opts.Clock, shipping, lifecycle, bus)
	adminOrders := usecase.NewAdminOrderUsecase(st.Tx, ids, opts.Clock, lifecycle, bus)
	products := usecase.NewProductUsecase(st.Products, st.Follows, st.Tx, cache, ids, opts.Clock, bus)
	follows := usecase.NewFollowUsecase(st.Users, st.Follows, bus)
	addresses := usecase.NewAddressUsecase(st.Addresses, ids, opts.Clock)

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, meUC),
		Product:      handler.NewProductHandler(products),
		AdminProduct: handler.NewAdminProductHandler(products),
		Follow:       handler.NewFollowHandler(follows),
		Cart:         handler.NewCartHandler(carts),
		Order:        handler.NewOrderHandler(orders),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrders, opts.Clock),
		Address:      handler.NewAddressHandler(addresses),
	}

	sched := jobs.NewScheduler(carts, cache, jobs.Config{
		AbandonAfter:  cfg.Cart.AbandonAfter,
		PurgeInterval: cfg.Cache.PurgeInterval,
		Now:           opts.Clock.Now,
	}, logger.Named("jobs"))

	return &App{
		Server: server.New(cfg.Addr(), cfg.JWT.Secret, logger, h),
		Jobs:   sched,
		Bus:    bus,
		Cache:  cache,
	}, nil
}

// Run はcronとHTTPを動かし、ctxが終わったら両方止める。
// 最後に非同期のメール送信を待つ
func (a *App) Run(ctx context.Context) error {
	if err := a.Jobs.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), jobsStopTimeout)
		defer cancel()
		a.Jobs.Stop(stopCtx)
		return nil
	})

	err := g.Wait()
	a.Bus.WaitAsync()
	return err
}
