package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/event"
	repo "campusmarket/internal/repository"
	"campusmarket/internal/validator"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CSV出力で1回に読む件数
const exportPageSize = 500

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	status statusChanger
	events EventPublisher
}

func NewAdminOrderUsecase(tx repo.TransactionManager, ids IDGenerator, clock Clock, lifecycle model.Lifecycle, events EventPublisher) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:     tx,
		status: statusChanger{lifecycle: lifecycle, ids: ids, clock: clock},
		events: publisherOrNop(events),
	}
}

// 管理者一覧の検索条件（クエリ文字列そのまま）
type AdminOrderQuery struct {
	Page   int
	Limit  int
	Status string
	UserID string
	From   string
	To     string
}

func (q AdminOrderQuery) filter() (repo.AdminOrderListFilter, error) {
	verr := &model.ValidationError{}
	f := repo.AdminOrderListFilter{Page: q.Page, Limit: q.Limit}

	if status := strings.ToLower(strings.TrimSpace(q.Status)); status != "" {
		if !model.OrderStatus(status).Valid() {
			verr.Add("status", "must be one of pending paid shipped delivered cancelled")
		}
		f.Status = status
	}
	if userID := strings.TrimSpace(q.UserID); userID != "" {
		id, err := uuid.Parse(userID)
		if err != nil {
			verr.Add("user_id", "must be a valid UUID")
		} else {
			s := id.String()
			f.UserID = &s
		}
	}
	if t, ok := parseDateTimeRFC3339(q.From); ok {
		f.From = t
	} else if strings.TrimSpace(q.From) != "" {
		verr.Add("from", "must be an RFC3339 timestamp")
	}
	if t, ok := parseDateTimeRFC3339(q.To); ok {
		f.To = t
	} else if strings.TrimSpace(q.To) != "" {
		verr.Add("to", "must be an RFC3339 timestamp")
	}

	if len(verr.Fields) > 0 {
		return repo.AdminOrderListFilter{}, verr
	}
	return f, nil
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, actor Actor, q AdminOrderQuery) (OrderPage, error) {
	if !actor.IsAdmin() {
		return OrderPage{}, &model.ForbiddenError{}
	}
	if err := validatePage(q.Page, q.Limit); err != nil {
		return OrderPage{}, err
	}
	f, err := q.filter()
	if err != nil {
		return OrderPage{}, err
	}

	out := OrderPage{Page: q.Page, Limit: q.Limit, Items: []model.Order{}}
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}
		out.Items = append(out.Items, orders...)
		out.Total = total
		return nil
	})
	if err != nil {
		return OrderPage{}, err
	}
	return out, nil
}

// UpdateStatus はSELECT ... FOR UPDATEで注文を押さえてから遷移する。
// cancelledなら在庫戻し
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor Actor, orderID string, in validator.StatusUpdateRequest) (model.Order, error) {
	if !actor.IsAdmin() {
		return model.Order{}, &model.ForbiddenError{}
	}
	to, err := validator.ValidateStatusUpdate(in)
	if err != nil {
		return model.Order{}, err
	}

	var out model.Order
	var from model.OrderStatus
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID, true)
		if err != nil {
			return err
		}
		from = o.Status

		out, err = u.status.apply(ctx, r, o, to, actor.ID)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}

	u.events.Publish(event.TopicOrderStatusChanged, event.OrderStatusChanged{Order: out, From: from, ActorID: actor.ID})
	return out, nil
}

// CSVの1行
type orderCSVRow struct {
	Number       int64  `csv:"number"`
	ID           string `csv:"id"`
	UserID       string `csv:"user_id"`
	Status       string `csv:"status"`
	Items        int    `csv:"items"`
	Subtotal     string `csv:"subtotal"`
	ShippingCost string `csv:"shipping_cost"`
	Total        string `csv:"total"`
	City         string `csv:"city"`
	ZipCode      string `csv:"zip_code"`
	CreatedAt    string `csv:"created_at"`
}

func toOrderCSVRow(o model.Order) *orderCSVRow {
	var qty int
	for _, it := range o.Items {
		qty += int(it.Quantity)
	}
	return &orderCSVRow{
		Number:       o.Number,
		ID:           o.ID,
		UserID:       o.UserID,
		Status:       string(o.Status),
		Items:        qty,
		Subtotal:     o.Subtotal.StringFixed(2),
		ShippingCost: o.ShippingCost.StringFixed(2),
		Total:        o.TotalPrice.StringFixed(2),
		City:         o.Address.City,
		ZipCode:      o.Address.ZipCode,
		CreatedAt:    o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ExportCSV は条件に合う注文を全件CSVで書き出す（page/limitは無視）
func (u *AdminOrderUsecase) ExportCSV(ctx context.Context, actor Actor, q AdminOrderQuery, w io.Writer) error {
	if !actor.IsAdmin() {
		return &model.ForbiddenError{}
	}
	f, err := q.filter()
	if err != nil {
		return err
	}

	rows := []*orderCSVRow{}
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		f.Limit = exportPageSize
		for page := 1; ; page++ {
			f.Page = page
			orders, total, err := r.Orders().ListAdmin(ctx, f)
			if err != nil {
				return err
			}
			for _, o := range orders {
				rows = append(rows, toOrderCSVRow(o))
			}
			if len(orders) == 0 || int64(page*exportPageSize) >= total {
				return nil
			}
		}
	})
	if err != nil {
		return err
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return errors.Wrap(err, "write orders csv")
	}
	return nil
}

// 期間パラメータ。空や不正ならfalse
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return &t, true
}
