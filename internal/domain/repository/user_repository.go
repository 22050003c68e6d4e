package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/UzukeeIA/ROBUXFREE/internal/common"
	"github.com/UzukeeIA/ROBUXFREE/internal/domain/model"
	"github.com/UzukeeIA/ROBUXFREE/internal/platform/store"
)

type UserRepository interface {
	// Create assigns ID and CreatedAt and appends the user. Usernames are
	// unique ignoring case; a clash returns common.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	UpdateAvatar(ctx context.Context, id int64, avatarURL string) (*model.User, error)
}

type storeUserRepository struct {
	store store.RecordStore
	now   func() time.Time
}

func NewUserRepository(s store.RecordStore) UserRepository {
	return &storeUserRepository{store: s, now: time.Now}
}

func (r *storeUserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.store.Update(ctx, store.Users, func(raw []json.RawMessage) ([]json.RawMessage, error) {
		users, err := store.Decode[model.User](store.Users, raw)
		if err != nil {
			return nil, err
		}

		var maxID int64
		for _, u := range users {
			if strings.EqualFold(u.Username, user.Username) {
				return nil, fmt.Errorf("%w: username already taken", common.ErrConflict)
			}
			if u.ID > maxID {
				maxID = u.ID
			}
		}

		now := r.now().UTC()
		user.ID = now.UnixMilli()
		if user.ID <= maxID {
			user.ID = maxID + 1
		}
		user.CreatedAt = now

		data, err := json.Marshal(user)
		if err != nil {
			return nil, err
		}
		return append(raw, data), nil
	})
	if err != nil {
		return fmt.Errorf("userRepository.Create: %w", err)
	}
	return nil
}

func (r *storeUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	users, err := store.LoadInto[model.User](ctx, r.store, store.Users)
	if err != nil {
		return nil, fmt.Errorf("userRepository.FindByUsername: %w", err)
	}
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return &users[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *storeUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	users, err := store.LoadInto[model.User](ctx, r.store, store.Users)
	if err != nil {
		return nil, fmt.Errorf("userRepository.FindByID: %w", err)
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *storeUserRepository) UpdateAvatar(ctx context.Context, id int64, avatarURL string) (*model.User, error) {
	var updated *model.User
	err := r.store.Update(ctx, store.Users, func(raw []json.RawMessage) ([]json.RawMessage, error) {
		users, err := store.Decode[model.User](store.Users, raw)
		if err != nil {
			return nil, err
		}
		for i := range users {
			if users[i].ID != id {
				continue
			}
			users[i].AvatarURL = avatarURL
			data, err := json.Marshal(users[i])
			if err != nil {
				return nil, err
			}
			raw[i] = data
			updated = &users[i]
			return raw, nil
		}
		return nil, fmt.Errorf("%w: user no longer exists", common.ErrNotFound)
	})
	if err != nil {
		return nil, fmt.Errorf("userRepository.UpdateAvatar: %w", err)
	}
	return updated, nil
}
