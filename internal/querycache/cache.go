// Package querycache は一覧・詳細取得の結果をキーごとに保持する読み込みキャッシュ。
//
// 新しいエントリはそのまま返し、古ければ取得し直す。取得は回数を決めてリトライし、
// 同じキーへの同時取得は1本にまとめる。
package querycache

import (
	"context"
	"errors"
	"sync"
	"time"

	"campusmarket/internal/domain/model"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Status string

const (
	// 必須パラメータが空なので取得していない
	StatusInactive Status = "inactive"
	// 期限内のエントリを返した
	StatusFresh Status = "fresh"
	// 取得して保存した
	StatusFetched Status = "fetched"
	// 取得に失敗したので期限切れのエントリを返した
	StatusStale Status = "stale"
)

type Result[T any] struct {
	Data      T
	Status    Status
	FetchedAt time.Time
	Stale     bool
}

type Fetcher[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
	resource  string
}

// 取得中の呼び出し
type flight struct {
	id       uint64
	resource string
}

type Cache[T any] struct {
	opts Options

	mu      sync.Mutex
	entries map[string]entry[T]
	// 無効化の世代。取得中に無効化されたら結果を保存しない
	keyGen      map[string]uint64
	resourceGen map[string]uint64
	inflight    map[string]flight
	flightSeq   uint64

	group singleflight.Group
}

func New[T any](opts Options) *Cache[T] {
	return &Cache[T]{
		opts:        opts.withDefaults(),
		entries:     map[string]entry[T]{},
		keyGen:      map[string]uint64{},
		resourceGen: map[string]uint64{},
		inflight:    map[string]flight{},
	}
}

// Get はキーの結果を返す。期限内ならfetchを呼ばない。
// ctxが切れたら即座にctx.Err()を返すが、取得自体は続けて結果を保存する。
func (c *Cache[T]) Get(ctx context.Context, key Key, fetch Fetcher[T]) (Result[T], error) {
	if !key.Active() {
		return Result[T]{Status: StatusInactive}, nil
	}

	k := key.String()
	if res, ok := c.fresh(k); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{}, err
	}

	ch := c.group.DoChan(k, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), key, k, fetch)
	})

	select {
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result[T]{}, r.Err
		}
		return r.Val.(Result[T]), nil
	}
}

func (c *Cache[T]) fresh(k string) (Result[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok || c.opts.Now().Sub(e.fetchedAt) >= c.opts.StaleTime {
		return Result[T]{}, false
	}
	return Result[T]{Data: e.value, Status: StatusFresh, FetchedAt: e.fetchedAt}, true
}

func (c *Cache[T]) load(ctx context.Context, key Key, k string, fetch Fetcher[T]) (Result[T], error) {
	c.mu.Lock()
	keyGen, resGen := c.keyGen[k], c.resourceGen[key.Resource]
	c.flightSeq++
	me := flight{id: c.flightSeq, resource: key.Resource}
	c.inflight[k] = me
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		//Forget後に同じキーで始まった取得は消さない
		if c.inflight[k].id == me.id {
			delete(c.inflight, k)
		}
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	var lastErr error
	attempts := 0
	for attempts <= c.opts.Retry {
		if attempts > 0 && !sleep(ctx, c.opts.RetryDelay) {
			break
		}
		attempts++

		v, err := safeFetch(ctx, fetch)
		if err == nil {
			now := c.opts.Now()
			c.mu.Lock()
			if c.keyGen[k] == keyGen && c.resourceGen[key.Resource] == resGen {
				c.entries[k] = entry[T]{value: v, fetchedAt: now, resource: key.Resource}
			}
			c.mu.Unlock()
			return Result[T]{Data: v, Status: StatusFetched, FetchedAt: now}, nil
		}

		//入力・存在の誤りはリトライしても変わらない
		if permanent(err) {
			return Result[T]{}, err
		}
		lastErr = err
		c.logger().Debug("query fetch failed",
			zap.String("key", k),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	if c.opts.ServeStaleOnError {
		c.mu.Lock()
		e, ok := c.entries[k]
		c.mu.Unlock()
		if ok {
			c.logger().Warn("serving stale query result", zap.String("key", k), zap.Error(lastErr))
			return Result[T]{Data: e.value, Status: StatusStale, FetchedAt: e.fetchedAt, Stale: true}, nil
		}
	}
	return Result[T]{}, &model.FetchError{Key: k, Attempts: attempts, Err: lastErr}
}

// fetchのpanicはエラーとして扱う
func safeFetch[T any](ctx context.Context, fetch Fetcher[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("fetch panicked")
			zap.L().Error("query fetch panicked", zap.Any("panic", r))
		}
	}()
	return fetch(ctx)
}

func permanent(err error) bool {
	var vErr *model.ValidationError
	var nfErr *model.NotFoundError
	var fbErr *model.ForbiddenError
	var uaErr *model.UnauthorizedError
	return errors.As(err, &vErr) || errors.As(err, &nfErr) || errors.As(err, &fbErr) || errors.As(err, &uaErr)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Invalidate はエントリを消す。次のGetは必ず取得する
func (c *Cache[T]) Invalidate(key Key) {
	k := key.String()

	c.mu.Lock()
	delete(c.entries, k)
	c.keyGen[k]++
	c.mu.Unlock()

	c.group.Forget(k)
}

// InvalidateResource はリソースの全エントリを消す
func (c *Cache[T]) InvalidateResource(resource string) {
	var forget []string

	c.mu.Lock()
	for k, e := range c.entries {
		if e.resource == resource {
			delete(c.entries, k)
		}
	}
	for k, f := range c.inflight {
		if f.resource == resource {
			forget = append(forget, k)
		}
	}
	c.resourceGen[resource]++
	c.mu.Unlock()

	for _, k := range forget {
		c.group.Forget(k)
	}
}

// Purge は期限切れのエントリを消す。消した件数を返す
func (c *Cache[T]) Purge() int {
	maxAge := c.opts.StaleTime
	if c.opts.ServeStaleOnError {
		maxAge += c.opts.StaleRetention
	}
	now := c.opts.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= maxAge {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache[T]) logger() *zap.Logger {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return zap.L()
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
