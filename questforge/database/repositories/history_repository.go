package repositories

import (
	"context"

	"github.com/solrise/questforge/questforge/database/models"
	"github.com/uptrace/bun"
)

type HistoryRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*models.CompletionHistory, error)
}

type historyRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewHistoryRepository(db *bun.DB) HistoryRepository {
	return &historyRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

// ListByUser returns the user's completion log, most recent date first.
func (r *historyRepository) ListByUser(ctx context.Context, userID int64) ([]*models.CompletionHistory, error) {
	var history []*models.CompletionHistory
	err := r.db.NewSelect().
		Model(&history).
		Relation("Quest").
		Where("ch.user_id = ?", userID).
		Order("ch.completion_date DESC").
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("list", "completion history", userID, err)
	}
	return history, nil
}
