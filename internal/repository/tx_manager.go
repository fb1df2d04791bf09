package repository

import "context"

// TxRepos は1つのTxに束ねたリポジトリ。
// 在庫の条件付き減算と注文作成はここを通す
type TxRepos interface {
	Carts() CartRepository
	CartItems() CartItemRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Addresses() AddressRepository
	AuditLogs() AuditLogRepository
}

// fnがエラーを返すかpanicしたらロールバック。
// postgresは行ロック、メモリストアは直列化で同じ結果になる
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
