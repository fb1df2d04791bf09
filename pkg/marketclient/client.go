// Package marketclient は商品APIを読むクライアント。
// 一覧・詳細はquerycacheで共有し、同じ条件の取得は1回にまとめる。
package marketclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/querycache"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	resourceProducts = "products"
	resourceProduct  = "product"
)

type Product struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Condition   string          `json:"condition"`
	ListingType string          `json:"listing_type"`
	Location    string          `json:"location"`
	Stock       int64           `json:"stock"`
	ViewCount   int64           `json:"view_count"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ProductPage struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Stale bool      `json:"stale,omitempty"`
}

type ListParams struct {
	Page         int
	Limit        int
	Q            string
	Category     string
	Sort         string
	OnlyFollowed bool
}

func (p ListParams) query() map[string]string {
	q := map[string]string{}
	if p.Page > 0 {
		q["page"] = strconv.Itoa(p.Page)
	}
	if p.Limit > 0 {
		q["limit"] = strconv.Itoa(p.Limit)
	}
	if s := strings.TrimSpace(p.Q); s != "" {
		q["q"] = s
	}
	if s := strings.TrimSpace(p.Category); s != "" {
		q["category"] = s
	}
	if s := strings.TrimSpace(p.Sort); s != "" {
		q["sort"] = s
	}
	if p.OnlyFollowed {
		q["onlyFollowed"] = "true"
	}
	return q
}

// APIError は分類できなかったHTTPエラー。リトライ対象になる
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("campusmarket api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL  string
	token    string
	hc       *http.Client
	pages    *querycache.Cache[ProductPage]
	products *querycache.Cache[Product]
}

type Option func(*config)

type config struct {
	token      string
	httpClient *http.Client
	cache      querycache.Options
}

// Bearerトークン。onlyFollowedに必要
func WithToken(token string) Option {
	return func(c *config) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

func WithCacheOptions(opts querycache.Options) Option {
	return func(c *config) { c.cache = opts }
}

func New(baseURL string, opts ...Option) *Client {
	cfg := config{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      querycache.DefaultOptions(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    cfg.token,
		hc:       cfg.httpClient,
		pages:    querycache.New[ProductPage](cfg.cache),
		products: querycache.New[Product](cfg.cache),
	}
}

// ListProducts は GET /products
func (c *Client) ListProducts(ctx context.Context, p ListParams) (querycache.Result[ProductPage], error) {
	params := p.query()
	return c.pages.Get(ctx, querycache.NewKey(resourceProducts, params), func(ctx context.Context) (ProductPage, error) {
		var page ProductPage
		err := c.get(ctx, "/products", params, &page)
		return page, err
	})
}

// GetProduct は GET /products/:id。idが空のあいだは取得しない
func (c *Client) GetProduct(ctx context.Context, id string) (querycache.Result[Product], error) {
	key := querycache.NewKey(resourceProduct, map[string]string{"id": id}, "id")
	return c.products.Get(ctx, key, func(ctx context.Context) (Product, error) {
		var p Product
		err := c.get(ctx, "/products/"+url.PathEscape(id), nil, &p)
		return p, err
	})
}

// 出品や在庫を変えたあとに呼ぶ
func (c *Client) InvalidateProducts() {
	c.pages.InvalidateResource(resourceProducts)
	c.products.InvalidateResource(resourceProduct)
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	query := gout.H{}
	for k, v := range params {
		query[k] = v
	}
	header := gout.H{"Accept": "application/json"}
	if c.token != "" {
		header["Authorization"] = "Bearer " + c.token
	}

	var (
		body []byte
		code int
	)
	err := gout.New(c.hc).GET(c.baseURL + path).
		WithContext(ctx).
		SetQuery(query).
		SetHeader(header).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}

	if code >= 200 && code < 300 {
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrapf(err, "decode %s", path)
		}
		return nil
	}
	return decodeError(code, body)
}

type errorBody struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields"`
}

// 4xxはリトライしない種類のエラーにする
func decodeError(code int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	switch code {
	case http.StatusBadRequest:
		return &model.ValidationError{Fields: eb.Fields}
	case http.StatusUnauthorized:
		return &model.UnauthorizedError{Message: eb.Error}
	case http.StatusForbidden:
		return &model.ForbiddenError{Message: eb.Error}
	case http.StatusNotFound:
		return &model.NotFoundError{Resource: "product"}
	}
	return &APIError{Status: code, Message: eb.Error}
}
