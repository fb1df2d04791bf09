package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Configはアプリ全体の設定
type Config struct {
	Port string `yaml:"port"` // サーバーポート（8080）

	DB       DBConfig       `yaml:"db"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Shipping ShippingConfig `yaml:"shipping"`
	Order    OrderConfig    `yaml:"order"`
	Cart     CartConfig     `yaml:"cart"`
	Mail     MailConfig     `yaml:"mail"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"` // postgres / memory
	URL      string `yaml:"url"`    // DATABASE_URL があれば最優先
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN は接続文字列を返す
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // development / production
	File string `yaml:"file"` // 空ならstdoutのみ
}

// 一覧キャッシュ
type CacheConfig struct {
	StaleTime     time.Duration `yaml:"stale_time"`
	Retry         int           `yaml:"retry"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	ServeStale    bool          `yaml:"serve_stale"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

type ShippingConfig struct {
	FlatRate decimal.Decimal `yaml:"flat_rate"`
	// この金額以上は送料無料（0なら無効）
	FreeOver decimal.Decimal `yaml:"free_over"`
}

type OrderConfig struct {
	AllowCancelAfterPaid bool  `yaml:"allow_cancel_after_paid"`
	SnowflakeNode        int64 `yaml:"snowflake_node"`
}

type CartConfig struct {
	AbandonAfter time.Duration `yaml:"abandon_after"`
}

type MailConfig struct {
	Host     string `yaml:"host"` // 空なら送信しない
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

func (c MailConfig) Enabled() bool {
	return c.Host != ""
}

// 既定値
func Default() Config {
	return Config{
		Port: "8080",
		DB: DBConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "campusmarket",
			SSLMode: "disable",
		},
		JWT: JWTConfig{TTL: 24 * time.Hour},
		Log: LogConfig{Mode: "development"},
		Cache: CacheConfig{
			StaleTime:     5 * time.Minute,
			Retry:         1,
			RetryDelay:    200 * time.Millisecond,
			PurgeInterval: 10 * time.Minute,
		},
		Shipping: ShippingConfig{
			FlatRate: decimal.NewFromInt(10),
			FreeOver: decimal.Zero,
		},
		Order: OrderConfig{AllowCancelAfterPaid: true, SnowflakeNode: 1},
		Cart:  CartConfig{AbandonAfter: 7 * 24 * time.Hour},
		Mail:  MailConfig{Port: 587, From: "no-reply@campusmarket.local"},
	}
}

// Loadは .env → APP_CONFIG(yaml) → 環境変数 の順に読む
func Load() (Config, error) {
	//.envは無くてもよい
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("APP_CONFIG"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			i, e := cast.ToIntE(v)
			if e != nil {
				err = fmt.Errorf("%s must be number: %w", key, e)
				return
			}
			*dst = i
		}
	}
	num64 := func(key string, dst *int64) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			i, e := cast.ToInt64E(v)
			if e != nil {
				err = fmt.Errorf("%s must be number: %w", key, e)
				return
			}
			*dst = i
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			b, e := cast.ToBoolE(v)
			if e != nil {
				err = fmt.Errorf("%s must be bool: %w", key, e)
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			d, e := cast.ToDurationE(v)
			if e != nil {
				err = fmt.Errorf("%s must be duration: %w", key, e)
				return
			}
			*dst = d
		}
	}
	money := func(key string, dst *decimal.Decimal) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			d, e := decimal.NewFromString(strings.TrimSpace(v))
			if e != nil {
				err = fmt.Errorf("%s must be decimal: %w", key, e)
				return
			}
			*dst = d
		}
	}

	str("PORT", &cfg.Port)

	str("DB_DRIVER", &cfg.DB.Driver)
	str("DATABASE_URL", &cfg.DB.URL)
	str("POSTGRES_HOST", &cfg.DB.Host)
	num("POSTGRES_PORT", &cfg.DB.Port)
	str("POSTGRES_USER", &cfg.DB.User)
	str("POSTGRES_PASSWORD", &cfg.DB.Password)
	str("POSTGRES_DB", &cfg.DB.Name)
	str("POSTGRES_SSLMODE", &cfg.DB.SSLMode)

	str("JWT_SECRET", &cfg.JWT.Secret)
	dur("JWT_TTL", &cfg.JWT.TTL)

	str("LOG_MODE", &cfg.Log.Mode)
	str("LOG_FILE", &cfg.Log.File)

	dur("CACHE_STALE_TIME", &cfg.Cache.StaleTime)
	num("CACHE_RETRY", &cfg.Cache.Retry)
	dur("CACHE_RETRY_DELAY", &cfg.Cache.RetryDelay)
	flag("CACHE_SERVE_STALE", &cfg.Cache.ServeStale)
	dur("CACHE_PURGE_INTERVAL", &cfg.Cache.PurgeInterval)

	money("SHIPPING_FLAT_RATE", &cfg.Shipping.FlatRate)
	money("SHIPPING_FREE_OVER", &cfg.Shipping.FreeOver)

	flag("ORDER_ALLOW_CANCEL_AFTER_PAID", &cfg.Order.AllowCancelAfterPaid)
	num64("SNOWFLAKE_NODE", &cfg.Order.SnowflakeNode)

	dur("CART_ABANDON_AFTER", &cfg.Cart.AbandonAfter)

	str("SMTP_HOST", &cfg.Mail.Host)
	num("SMTP_PORT", &cfg.Mail.Port)
	str("SMTP_USER", &cfg.Mail.User)
	str("SMTP_PASSWORD", &cfg.Mail.Password)
	str("MAIL_FROM", &cfg.Mail.From)

	return err
}

// 必須チェック
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	switch c.DB.Driver {
	case "postgres":
		if c.DB.URL == "" && (c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "") {
			return fmt.Errorf("DATABASE_URL or POSTGRES_HOST/POSTGRES_USER/POSTGRES_DB is required")
		}
	case "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or memory: %q", c.DB.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Cache.StaleTime <= 0 {
		return fmt.Errorf("CACHE_STALE_TIME must be positive")
	}
	if c.Cache.Retry < 0 {
		return fmt.Errorf("CACHE_RETRY must not be negative")
	}
	if c.Shipping.FlatRate.IsNegative() || c.Shipping.FreeOver.IsNegative() {
		return fmt.Errorf("SHIPPING_FLAT_RATE and SHIPPING_FREE_OVER must not be negative")
	}
	//snowflakeのノードは10bit
	if c.Order.SnowflakeNode < 0 || c.Order.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023")
	}
	return nil
}

// ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
