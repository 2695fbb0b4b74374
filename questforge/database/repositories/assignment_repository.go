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

type AssignmentRepository interface {
	ExistsForDate(ctx context.Context, userID int64, day time.Time) (bool, error)
	CreateBatch(ctx context.Context, assignments []*models.DailyAssignment) error
	Create(ctx context.Context, assignment *models.DailyAssignment) error
	GetByKey(ctx context.Context, userID, questID int64, day time.Time) (*models.DailyAssignment, error)
	ListIncompleteQuests(ctx context.Context, userID int64, day time.Time, skip, limit int) ([]*models.Quest, error)
	ListCompletedQuests(ctx context.Context, userID int64, day time.Time) ([]*models.Quest, error)
	CompleteAssignment(ctx context.Context, user *models.User, questID int64, day time.Time) error
}

type assignmentRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewAssignmentRepository(db *bun.DB) AssignmentRepository {
	return &assignmentRepository{db: db, BaseRepository: NewBaseRepository(db)}
}

func (r *assignmentRepository) ExistsForDate(ctx context.Context, userID int64, day time.Time) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.DailyAssignment)(nil)).
		Where("user_id = ? AND assignment_date = ?", userID, day).
		Exists(ctx)

	if err != nil {
		return false, r.HandleErrorWithID("exists", "daily assignment", userID, err)
	}
	return exists, nil
}

// CreateBatch inserts a full day's assignment in one transaction. Either every
// row lands or none does; a duplicate key on any row aborts the batch and is
// reported as a ConflictError.
func (r *assignmentRepository) CreateBatch(ctx context.Context, assignments []*models.DailyAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	now := time.Now()
	for _, a := range assignments {
		a.CreatedAt = now
	}

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&assignments).Exec(ctx)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return &ConflictError{Entity: "daily assignment", Key: assignments[0].UserID}
		}
		return r.HandleErrorWithID("create_batch", "daily assignment", assignments[0].UserID, err)
	}

	slog.Debug("Daily assignments inserted",
		slog.String("type", "db"),
		slog.Int("count", len(assignments)),
		slog.Int64("user_id", assignments[0].UserID))
	return nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.DailyAssignment) error {
	assignment.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(assignment).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return &ConflictError{Entity: "daily assignment", Key: assignment.QuestID}
		}
		return r.HandleErrorWithID("create", "daily assignment", assignment.QuestID, err)
	}
	return nil
}

func (r *assignmentRepository) GetByKey(ctx context.Context, userID, questID int64, day time.Time) (*models.DailyAssignment, error) {
	assignment := new(models.DailyAssignment)
	err := r.db.NewSelect().
		Model(assignment).
		Where("da.user_id = ? AND da.quest_id = ? AND da.assignment_date = ?", userID, questID, day).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("get", "daily assignment", questID, err)
	}
	return assignment, nil
}

func (r *assignmentRepository) ListIncompleteQuests(ctx context.Context, userID int64, day time.Time, skip, limit int) ([]*models.Quest, error) {
	var quests []*models.Quest
	err := r.db.NewSelect().
		Model(&quests).
		Join("JOIN daily_assignments AS da ON da.quest_id = q.id").
		Where("da.user_id = ? AND da.assignment_date = ? AND da.is_completed = FALSE", userID, day).
		Order("q.id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("list_incomplete", "daily assignment", userID, err)
	}
	return quests, nil
}

func (r *assignmentRepository) ListCompletedQuests(ctx context.Context, userID int64, day time.Time) ([]*models.Quest, error) {
	var quests []*models.Quest
	err := r.db.NewSelect().
		Model(&quests).
		Join("JOIN daily_assignments AS da ON da.quest_id = q.id").
		Where("da.user_id = ? AND da.assignment_date = ? AND da.is_completed = TRUE", userID, day).
		Order("q.id ASC").
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("list_completed", "daily assignment", userID, err)
	}
	return quests, nil
}

// CompleteAssignment commits a quest completion in a single transaction:
// flips the assignment flag, persists the user's already-computed progression
// and appends the history row. The guarded update and the history primary key
// collapse concurrent duplicates into a ConflictError; a missing assignment
// row surfaces as a NotFoundError.
func (r *assignmentRepository) CompleteAssignment(ctx context.Context, user *models.User, questID int64, day time.Time) error {
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.DailyAssignment)(nil)).
			Set("is_completed = TRUE").
			Where("user_id = ? AND quest_id = ? AND assignment_date = ? AND is_completed = FALSE",
				user.ID, questID, day).
			Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Row missing or already flipped; look it up to tell the two apart.
			exists, err := tx.NewSelect().
				Model((*models.DailyAssignment)(nil)).
				Where("user_id = ? AND quest_id = ? AND assignment_date = ?", user.ID, questID, day).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return &NotFoundError{Entity: "daily assignment", ID: questID}
			}
			return &ConflictError{Entity: "completion", Key: questID}
		}

		user.UpdatedAt = time.Now()
		if _, err := tx.NewUpdate().
			Model(user).
			Column("level", "exp", "total_exp", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		history := &models.CompletionHistory{
			UserID:         user.ID,
			QuestID:        questID,
			CompletionDate: day,
			CreatedAt:      time.Now(),
		}
		if _, err := tx.NewInsert().Model(history).Exec(ctx); err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		var nfe *NotFoundError
		var ce *ConflictError
		if errors.As(err, &nfe) || errors.As(err, &ce) {
			return err
		}
		if isUniqueViolation(err) {
			return &ConflictError{Entity: "completion", Key: questID}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "daily assignment", ID: questID}
		}
		return &RepositoryError{Operation: "complete", Entity: "daily assignment", Err: err}
	}
	return nil
}
