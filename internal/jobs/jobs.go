// Package jobs はcronで回す定期処理。
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// 放置カートの掃除は毎時
	AbandonSpec = "@hourly"

	jobTimeout = 5 * time.Minute
)

type CartAbandoner interface {
	AbandonIdle(ctx context.Context, before time.Time) (int64, error)
}

type CachePurger interface {
	Purge() int
}

type Config struct {
	// 最終更新からこれ以上経ったACTIVEカートをABANDONEDにする（0以下なら無効）
	AbandonAfter time.Duration
	// キャッシュの期限切れエントリを捨てる間隔（0以下なら無効）
	PurgeInterval time.Duration
	Now           func() time.Time
}

type Scheduler struct {
	cron   *cron.Cron
	carts  CartAbandoner
	cache  CachePurger
	cfg    Config
	logger *zap.Logger
}

func NewScheduler(carts CartAbandoner, cache CachePurger, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		carts:  carts,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Start はジョブを登録して動かす
func (s *Scheduler) Start() error {
	if s.carts != nil && s.cfg.AbandonAfter > 0 {
		if _, err := s.cron.AddFunc(AbandonSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			s.AbandonIdleCarts(ctx)
		}); err != nil {
			return errors.Wrap(err, "schedule abandon idle carts")
		}
	}
	if s.cache != nil && s.cfg.PurgeInterval > 0 {
		if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.PurgeInterval), s.PurgeCache); err != nil {
			return errors.Wrap(err, "schedule cache purge")
		}
	}
	s.cron.Start()
	return nil
}

// Stop は実行中のジョブを待つ
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("jobs still running at shutdown")
	}
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) AbandonIdleCarts(ctx context.Context) {
	before := s.cfg.Now().Add(-s.cfg.AbandonAfter)
	n, err := s.carts.AbandonIdle(ctx, before)
	if err != nil {
		s.logger.Error("abandon idle carts failed", zap.Time("before", before), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("abandoned idle carts", zap.Int64("count", n), zap.Time("before", before))
	}
}

func (s *Scheduler) PurgeCache() {
	if n := s.cache.Purge(); n > 0 {
		s.logger.Debug("purged query cache", zap.Int("entries", n))
	}
}

// cron.Logger をzapにつなぐ
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
