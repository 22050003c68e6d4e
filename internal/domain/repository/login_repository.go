package repository

import (
	"context"
	"fmt"

	"github.com/UzukeeIA/ROBUXFREE/internal/domain/model"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/store"
)

type LoginRecordRepository interface {
	Append(ctx context.Context, rec model.LoginRecord) error
	List(ctx context.Context) ([]model.LoginRecord, error)
}

type storeLoginRecordRepository struct {
	store store.RecordStore
}

func NewLoginRecordRepository(s store.RecordStore) LoginRecordRepository {
	return &storeLoginRecordRepository{store: s}
}

func (r *storeLoginRecordRepository) Append(ctx context.Context, rec model.LoginRecord) error {
	if err := appendRecord(ctx, r.store, store.Logins, rec); err != nil {
		return fmt.Errorf("loginRecordRepository.Append: %w", err)
	}
	return nil
}

func (r *storeLoginRecordRepository) List(ctx context.Context) ([]model.LoginRecord, error) {
	out, err := store.LoadInto[model.LoginRecord](ctx, r.store, store.Logins)
	if err != nil {
		return nil, fmt.Errorf("loginRecordRepository.List: %w", err)
	}
	return out, nil
}
