package usecase

import (
	"time"

	"campusmarket/internal/domain/model"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// 注文番号（人が読む番号）
type OrderNumberGenerator interface {
	Next() int64
}

type SnowflakeNumbers struct {
	node *snowflake.Node
}

// nodeIDは0〜1023
func NewSnowflakeNumbers(nodeID int64) (*SnowflakeNumbers, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake node")
	}
	return &SnowflakeNumbers{node: node}, nil
}

func (s *SnowflakeNumbers) Next() int64 {
	return s.node.Generate().Int64()
}

// 送料計算
type ShippingCalculator interface {
	Cost(subtotal decimal.Decimal) decimal.Decimal
}

// 一律送料。FreeOverが正ならその金額以上で無料
type FlatRateShipping struct {
	Rate     decimal.Decimal
	FreeOver decimal.Decimal
}

func (s FlatRateShipping) Cost(subtotal decimal.Decimal) decimal.Decimal {
	//空カートは送料なし
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	if s.FreeOver.IsPositive() && subtotal.GreaterThanOrEqual(s.FreeOver) {
		return decimal.Zero
	}
	return s.Rate
}

// イベント発行
type EventPublisher interface {
	Publish(topic string, args ...interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// 操作しているユーザー（JWTのsub・role）
type Actor struct {
	ID   string
	Role model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func requireUser(userID string) error {
	if userID == "" {
		return &model.UnauthorizedError{}
	}
	return nil
}

// パスパラメータのID。不正なら項目つきの400
func parseID(field, raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", model.NewValidationError(model.FieldError{Field: field, Message: "must be a valid UUID"})
	}
	return id.String(), nil
}
