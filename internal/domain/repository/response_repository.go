package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/UzukeeIA/ROBUXFREE/internal/domain/model"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/store"
)

type ResponseRepository interface {
	Append(ctx context.Context, resp model.SurveyResponse) error
	List(ctx context.Context) ([]model.SurveyResponse, error)
}

type storeResponseRepository struct {
	store store.RecordStore
}

func NewResponseRepository(s store.RecordStore) ResponseRepository {
	return &storeResponseRepository{store: s}
}

func (r *storeResponseRepository) Append(ctx context.Context, resp model.SurveyResponse) error {
	if err := appendRecord(ctx, r.store, store.Responses, resp); err != nil {
		return fmt.Errorf("responseRepository.Append: %w", err)
	}
	return nil
}

func (r *storeResponseRepository) List(ctx context.Context) ([]model.SurveyResponse, error) {
	out, err := store.LoadInto[model.SurveyResponse](ctx, r.store, store.Responses)
	if err != nil {
		return nil, fmt.Errorf("responseRepository.List: %w", err)
	}
	return out, nil
}

func appendRecord(ctx context.Context, s store.RecordStore, c store.Collection, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Update(ctx, c, func(raw []json.RawMessage) ([]json.RawMessage, error) {
		return append(raw, data), nil
	})
}
