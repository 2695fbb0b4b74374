package repositories

import (
	"context"
	"time"

	"github.com/solrise/questforge/questforge/database/models"
	"github.com/uptrace/bun"
)

type QuestRepository interface {
	Create(ctx context.Context, quest *models.Quest) error
	GetByID(ctx context.Context, id int64) (*models.Quest, error)
	GetByType(ctx context.Context, questType string) ([]*models.Quest, error)
	GetAll(ctx context.Context, skip, limit int) ([]*models.Quest, error)
	Delete(ctx context.Context, id int64) error
}

type questRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewQuestRepository(db *bun.DB) QuestRepository {
	return &questRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

func (r *questRepository) Create(ctx context.Context, quest *models.Quest) error {
	quest.CreatedAt = time.Now()
	quest.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().Model(quest).Exec(ctx)
	return r.HandleErrorWithID("create", "quest", quest.ID, err)
}

func (r *questRepository) GetByID(ctx context.Context, id int64) (*models.Quest, error) {
	quest := new(models.Quest)
	err := r.db.NewSelect().
		Model(quest).
		Where("q.id = ?", id).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("get", "quest", id, err)
	}

	return quest, nil
}

func (r *questRepository) GetByType(ctx context.Context, questType string) ([]*models.Quest, error) {
	var quests []*models.Quest
	err := r.db.NewSelect().
		Model(&quests).
		Where("quest_type = ?", questType).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("list", "quest", questType, err)
	}
	return quests, nil
}

// GetAll lists every quest, newest first.
func (r *questRepository) GetAll(ctx context.Context, skip, limit int) ([]*models.Quest, error) {
	var quests []*models.Quest
	err := r.db.NewSelect().
		Model(&quests).
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("list", "quest", "all", err)
	}
	return quests, nil
}

func (r *questRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*models.Quest)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return r.HandleErrorWithID("delete", "quest", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return r.HandleErrorWithID("delete", "quest", id, err)
	}
	if affected == 0 {
		return &NotFoundError{Entity: "quest", ID: id}
	}
	return nil
}
