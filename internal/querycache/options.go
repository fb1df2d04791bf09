package querycache

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultStaleTime    = 5 * time.Minute
	DefaultRetry        = 1
	DefaultRetryDelay   = 200 * time.Millisecond
	DefaultFetchTimeout = 30 * time.Second

	// Retryに入れるとリトライしない
	NoRetry = -1
)

type Options struct {
	// これより新しいエントリは取得せずに返す
	StaleTime time.Duration
	// 失敗時の追加試行回数。0ならDefaultRetry、NoRetryならリトライしない
	Retry      int
	RetryDelay time.Duration
	// 1回の取得全体の上限（呼び出し元が離れても走り続けるため）
	FetchTimeout time.Duration
	// 取得失敗時に期限切れのエントリを返すか
	ServeStaleOnError bool
	// ServeStaleOnErrorのとき、期限切れ後も保持する期間（Purge用）
	StaleRetention time.Duration

	Now func() time.Time
	// nilならzap.L()
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.StaleTime <= 0 {
		o.StaleTime = DefaultStaleTime
	}
	switch {
	case o.Retry == 0:
		o.Retry = DefaultRetry
	case o.Retry < 0:
		o.Retry = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// 既定値（StaleTime 5分、リトライ1回）
func DefaultOptions() Options {
	return Options{
		StaleTime:  DefaultStaleTime,
		Retry:      DefaultRetry,
		RetryDelay: DefaultRetryDelay,
	}
}
