package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mealvision-server/internal/domain/auth"
	platformerrors "mealvision-server/internal/platform/errors"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates the SQLite-backed account repository.
func NewUserRepository(db *gorm.DB) auth.AccountRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, account *auth.Account) error {
	model := r.toModel(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "users.create", "failed to create account", err)
	}
	account.ID = model.ID
	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	var model User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "users.find_by_username", "failed to find account", err)
	}
	return r.fromModel(&model), nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*auth.Account, error) {
	var model User
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "users.find_by_id", "failed to find account", err)
	}
	return r.fromModel(&model), nil
}

func (r *userRepository) toModel(account *auth.Account) *User {
	return &User{
		ID:        account.ID,
		Username:  account.Username,
		Password:  account.PasswordHash,
		Salt:      account.Salt,
		Nickname:  account.Nickname,
		CreatedAt: account.CreatedAt,
	}
}

func (r *userRepository) fromModel(model *User) *auth.Account {
	return &auth.Account{
		ID:           model.ID,
		Username:     model.Username,
		PasswordHash: model.Password,
		Salt:         model.Salt,
		Nickname:     model.Nickname,
		CreatedAt:    model.CreatedAt,
	}
}
