// Package memory はrepositoryの約束をプロセス内メモリで実装する。
// DB_DRIVER=memory とテストで使う。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusmarket/internal/domain/model"
	repo "campusmarket/internal/repository"
)

type followKey struct {
	followerID string
	sellerID   string
}

// 保存データ一式。トランザクション開始時に丸ごと複製する
type state struct {
	users       map[string]model.User
	follows     map[followKey]model.Follow
	products    map[string]model.Product
	adjustments []model.InventoryAdjustment
	addresses   map[string]model.Address
	carts       map[string]model.Cart
	cartItems   map[string]model.CartItem
	orders      map[string]model.Order
	orderItems  map[string]model.OrderItem
	auditLogs   []model.AuditLog

	//挿入順（並び替えの同順位用）
	seq  map[string]int64
	next int64
}

func newState() *state {
	return &state{
		users:      map[string]model.User{},
		follows:    map[followKey]model.Follow{},
		products:   map[string]model.Product{},
		addresses:  map[string]model.Address{},
		carts:      map[string]model.Cart{},
		cartItems:  map[string]model.CartItem{},
		orders:     map[string]model.Order{},
		orderItems: map[string]model.OrderItem{},
		seq:        map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		users:       cloneMap(s.users),
		follows:     cloneMap(s.follows),
		products:    cloneMap(s.products),
		adjustments: append([]model.InventoryAdjustment(nil), s.adjustments...),
		addresses:   cloneMap(s.addresses),
		carts:       cloneMap(s.carts),
		cartItems:   cloneMap(s.cartItems),
		orders:      cloneMap(s.orders),
		orderItems:  cloneMap(s.orderItems),
		auditLogs:   append([]model.AuditLog(nil), s.auditLogs...),
		seq:         cloneMap(s.seq),
		next:        s.next,
	}
}

func (s *state) track(id string) {
	if _, ok := s.seq[id]; ok {
		return
	}
	s.next++
	s.seq[id] = s.next
}

// 挿入順で並べる
func (s *state) sortBySeq(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.seq[ids[i]] < s.seq[ids[j]] })
}

// Store はメモリ上のDB。
// トランザクションは1本ずつ直列に実行し、エラー時は開始前の状態に戻す。
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// 時刻を固定したいテスト用
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// handle はロック済み(inTx)かどうかでロックの取り方を変える
type handle struct {
	s    *Store
	inTx bool
}

func (h handle) do(fn func(st *state) error) error {
	if h.inTx {
		return fn(h.s.st)
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return fn(h.s.st)
}

func (h handle) now() time.Time {
	return h.s.now()
}

// WithinTx はfnを排他的に実行する。fnがエラーかpanicならロールバック。
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err := fn(newTxRepos(handle{s: s, inTx: true})); err != nil {
		return err
	}
	committed = true
	return nil
}

type txRepos struct {
	h handle
}

func newTxRepos(h handle) *txRepos {
	return &txRepos{h: h}
}

func (r *txRepos) Orders() repo.OrderRepository         { return &orderRepo{r.h} }
func (r *txRepos) OrderItems() repo.OrderItemRepository { return &orderItemRepo{r.h} }
func (r *txRepos) Carts() repo.CartRepository           { return &cartRepo{r.h} }
func (r *txRepos) CartItems() repo.CartItemRepository   { return &cartItemRepo{r.h} }
func (r *txRepos) Inventory() repo.InventoryRepository  { return &inventoryRepo{r.h} }
func (r *txRepos) Products() repo.ProductRepository     { return &productRepo{r.h} }
func (r *txRepos) Addresses() repo.AddressRepository    { return &addressRepo{r.h} }
func (r *txRepos) AuditLogs() repo.AuditLogRepository   { return &auditLogRepo{r.h} }

// トランザクション外で使うリポジトリ
func (s *Store) Orders() repo.OrderRepository         { return &orderRepo{handle{s: s}} }
func (s *Store) OrderItems() repo.OrderItemRepository { return &orderItemRepo{handle{s: s}} }
func (s *Store) Carts() repo.CartRepository           { return &cartRepo{handle{s: s}} }
func (s *Store) CartItems() repo.CartItemRepository   { return &cartItemRepo{handle{s: s}} }
func (s *Store) Inventory() repo.InventoryRepository  { return &inventoryRepo{handle{s: s}} }
func (s *Store) Products() repo.ProductRepository     { return &productRepo{handle{s: s}} }
func (s *Store) Addresses() repo.AddressRepository    { return &addressRepo{handle{s: s}} }
func (s *Store) AuditLogs() repo.AuditLogRepository   { return &auditLogRepo{handle{s: s}} }
func (s *Store) Users() repo.UserRepository           { return &userRepo{handle{s: s}} }
func (s *Store) Follows() repo.FollowRepository       { return &followRepo{handle{s: s}} }

// 在庫調整履歴（テスト・確認用）
func (s *Store) Adjustments() []model.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.InventoryAdjustment(nil), s.st.adjustments...)
}

var _ repo.TransactionManager = (*Store)(nil)

func paginate(total, page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return 0, 0
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}
