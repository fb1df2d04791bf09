package repository

import (
	repo "campusmarket/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// gormのエラーをrepositoryのエラーにそろえる
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(repo.ErrDuplicate, msg)
	}
	return errors.Wrap(err, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
