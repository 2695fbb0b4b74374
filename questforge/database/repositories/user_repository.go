package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/solrise/questforge/questforge/database/models"
	"github.com/uptrace/bun"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Level == 0 {
		user.Level = 1
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().Model(user).Exec(ctx)
	return r.HandleErrorWithID("create", "user", user.ID, err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("User not found",
				slog.String("type", "db"),
				slog.String("operation", "GetByID"),
				slog.Int64("user_id", id))
		}
		return nil, r.HandleErrorWithID("get", "user", id, err)
	}

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)
	return r.HandleErrorWithID("update", "user", user.ID, err)
}
