package db

import (
	"time"

	"campusmarket/internal/config"
	"campusmarket/internal/domain/model"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
// DATABASE_URL があれば最優先で使う
func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		//一意制約違反を gorm.ErrDuplicatedKey にする
		TranslateError: true,
		Logger: logger.New(zap.NewStdLog(zap.L()), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	return gormDB, nil
}

// 全テーブル
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Follow{},
		&model.Product{},
		&model.InventoryAdjustment{},
		&model.Address{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	}
}

// AutoMigrateでは書けない索引
var extraIndexes = []string{
	//ACTIVEなカートは1ユーザー1つ
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_active ON carts (user_id) WHERE status = 'ACTIVE'`,
}

func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	for _, stmt := range extraIndexes {
		if err := gormDB.Exec(stmt).Error; err != nil {
			return errors.Wrap(err, "create index")
		}
	}
	return nil
}
