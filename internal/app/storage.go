package app

import (
	"campusmarket/internal/infra/memory"
	infraRepo "campusmarket/internal/infra/repository"
	repo "campusmarket/internal/repository"

	"gorm.io/gorm"
)

// Storage はusecaseに渡すリポジトリ一式
type Storage struct {
	Tx        repo.TransactionManager
	Users     repo.UserRepository
	Products  repo.ProductRepository
	Follows   repo.FollowRepository
	Addresses repo.AddressRepository
}

// DB_DRIVER=memory のとき
func MemoryStorage(s *memory.Store) Storage {
	return Storage{
		Tx:        s,
		Users:     s.Users(),
		Products:  s.Products(),
		Follows:   s.Follows(),
		Addresses: s.Addresses(),
	}
}

//Repository（GORM実装）
func PostgresStorage(db *gorm.DB) Storage {
	return Storage{
		Tx:        infraRepo.NewTxManagerGorm(db),
		Users:     infraRepo.NewUserGormRepository(db),
		Products:  infraRepo.NewProductGormRepository(db),
		Follows:   infraRepo.NewFollowGormRepository(db),
		Addresses: infraRepo.NewAddressGormRepository(db),
	}
}
