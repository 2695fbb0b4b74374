package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solrise/questforge/questforge/database/models"
	"github.com/solrise/questforge/questforge/database/repositories"
)

// Expected business outcomes of engine operations. They are informational
// results for the caller, not failures.
var (
	ErrNotAssigned      = errors.New("quest not assigned for today")
	ErrAlreadyCompleted = errors.New("quest already completed today")
)

// ErrInvalidInput marks a rejected quest payload.
var ErrInvalidInput = errors.New("invalid quest input")

// Config bounds the random portion of a day's assignment.
type Config struct {
	MinRandomQuests int
	MaxRandomQuests int
}

func DefaultConfig() Config {
	return Config{MinRandomQuests: 3, MaxRandomQuests: 5}
}

type AssignmentResult struct {
	AlreadyAssigned bool
	AssignedCount   int
}

type CompletionResult struct {
	ExpGained int64
	Level     int
	Exp       int64
}

type StatusView struct {
	ID                   int64           `json:"id"`
	Level                int             `json:"level"`
	Exp                  int64           `json:"exp"`
	ExpToNextLevel       int64           `json:"exp_to_next_level"`
	TotalExp             int64           `json:"total_exp"`
	CompletedQuestsCount int             `json:"completed_quests_count"`
	CompletedQuests      []*models.Quest `json:"completed_quests"`
}

type CompletionRecord struct {
	CompletionDate time.Time     `json:"completion_date"`
	Quest          *models.Quest `json:"quest"`
}

type QuestInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ExpValue    int64   `json:"exp_value"`
	QuestType   string  `json:"quest_type"`
}

// Service is the progression engine: daily assignment, completion with EXP
// and leveling, and the derived status views. It is stateless between calls;
// all state lives in the store.
type Service struct {
	users       repositories.UserRepository
	quests      repositories.QuestRepository
	assignments repositories.AssignmentRepository
	history     repositories.HistoryRepository
	sampler     *Sampler
	cfg         Config
	now         func() time.Time
}

func NewService(
	users repositories.UserRepository,
	quests repositories.QuestRepository,
	assignments repositories.AssignmentRepository,
	history repositories.HistoryRepository,
	sampler *Sampler,
	cfg Config,
) *Service {
	return &Service{
		users:       users,
		quests:      quests,
		assignments: assignments,
		history:     history,
		sampler:     sampler,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Today returns the current calendar date at midnight UTC.
func (s *Service) Today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AssignDailyQuests builds today's quest set for the user: every daily-type
// quest plus a random sample from the random pool. Idempotent per calendar
// day; a concurrent duplicate insert is reported as already assigned.
func (s *Service) AssignDailyQuests(ctx context.Context, userID int64) (*AssignmentResult, error) {
	today := s.Today()

	assigned, err := s.assignments.ExistsForDate(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing assignments: %w", err)
	}
	if assigned {
		slog.Debug("Quests already assigned for today",
			slog.Int64("user_id", userID),
			slog.Time("date", today))
		return &AssignmentResult{AlreadyAssigned: true}, nil
	}

	dailyQuests, err := s.quests.GetByType(ctx, models.QuestTypeDaily)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily quests: %w", err)
	}

	pool, err := s.quests.GetByType(ctx, models.QuestTypeRandom)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch random quest pool: %w", err)
	}

	count := s.sampler.CountBetween(s.cfg.MinRandomQuests, s.cfg.MaxRandomQuests)
	picked := s.sampler.Pick(pool, count)

	questSet := append(dailyQuests, picked...)
	if len(questSet) == 0 {
		return &AssignmentResult{AssignedCount: 0}, nil
	}

	assignments := make([]*models.DailyAssignment, 0, len(questSet))
	for _, quest := range questSet {
		assignments = append(assignments, &models.DailyAssignment{
			UserID:         userID,
			QuestID:        quest.ID,
			AssignmentDate: today,
		})
	}

	if err := s.assignments.CreateBatch(ctx, assignments); err != nil {
		if repositories.IsConflict(err) {
			// Another request won the race for this day.
			return &AssignmentResult{AlreadyAssigned: true}, nil
		}
		return nil, fmt.Errorf("failed to insert assignments: %w", err)
	}

	slog.Info("Assigned daily quests",
		slog.Int64("user_id", userID),
		slog.Int("daily", len(dailyQuests)),
		slog.Int("random", len(picked)))

	return &AssignmentResult{AssignedCount: len(questSet)}, nil
}

// AssignQuest adds a single quest to today's set without touching the rest of
// the day's assignment.
func (s *Service) AssignQuest(ctx context.Context, userID, questID int64) (*AssignmentResult, error) {
	if _, err := s.quests.GetByID(ctx, questID); err != nil {
		return nil, err
	}

	assignment := &models.DailyAssignment{
		UserID:         userID,
		QuestID:        questID,
		AssignmentDate: s.Today(),
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if repositories.IsConflict(err) {
			return &AssignmentResult{AlreadyAssigned: true}, nil
		}
		return nil, fmt.Errorf("failed to assign quest: %w", err)
	}

	slog.Info("Quest assigned manually",
		slog.Int64("user_id", userID),
		slog.Int64("quest_id", questID))
	return &AssignmentResult{AssignedCount: 1}, nil
}

// CompleteQuest validates and records a completion: flips the assignment
// flag, grants EXP with the leveling loop and appends the history row, all in
// one transaction on the repository side.
func (s *Service) CompleteQuest(ctx context.Context, userID, questID int64) (*CompletionResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	quest, err := s.quests.GetByID(ctx, questID)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	assignment, err := s.assignments.GetByKey(ctx, userID, questID, today)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrNotAssigned
		}
		return nil, err
	}
	if assignment.IsCompleted {
		return nil, ErrAlreadyCompleted
	}

	user.Level, user.Exp = ApplyExp(user.Level, user.Exp, quest.ExpValue)
	user.TotalExp += quest.ExpValue

	if err := s.assignments.CompleteAssignment(ctx, user, questID, today); err != nil {
		if repositories.IsConflict(err) {
			return nil, ErrAlreadyCompleted
		}
		if repositories.IsNotFound(err) {
			return nil, ErrNotAssigned
		}
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	slog.Info("Quest completed",
		slog.Int64("user_id", userID),
		slog.Int64("quest_id", questID),
		slog.Int64("exp_gained", quest.ExpValue),
		slog.Int("level", user.Level))

	return &CompletionResult{
		ExpGained: quest.ExpValue,
		Level:     user.Level,
		Exp:       user.Exp,
	}, nil
}

// UserStatus derives the read-only progression summary for a user.
func (s *Service) UserStatus(ctx context.Context, userID int64) (*StatusView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed, err := s.assignments.ListCompletedQuests(ctx, userID, s.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed quests: %w", err)
	}
	if completed == nil {
		completed = []*models.Quest{}
	}

	return &StatusView{
		ID:                   user.ID,
		Level:                user.Level,
		Exp:                  user.Exp,
		ExpToNextLevel:       ExpToNextLevel(user.Level),
		TotalExp:             user.TotalExp,
		CompletedQuestsCount: len(completed),
		CompletedQuests:      completed,
	}, nil
}

// TodayQuests lists the user's outstanding quests for today.
func (s *Service) TodayQuests(ctx context.Context, userID int64, skip, limit int) ([]*models.Quest, error) {
	return s.assignments.ListIncompleteQuests(ctx, userID, s.Today(), skip, limit)
}

// History returns the user's completion log, most recent date first.
func (s *Service) History(ctx context.Context, userID int64) ([]CompletionRecord, error) {
	rows, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := make([]CompletionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, CompletionRecord{
			CompletionDate: row.CompletionDate,
			Quest:          row.Quest,
		})
	}
	return records, nil
}

func (s *Service) CreateUser(ctx context.Context) (*models.User, error) {
	user := &models.User{Level: 1}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) CreateQuest(ctx context.Context, input QuestInput) (*models.Quest, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.ExpValue <= 0 {
		return nil, fmt.Errorf("%w: exp_value must be positive", ErrInvalidInput)
	}
	if !models.ValidQuestType(input.QuestType) {
		return nil, fmt.Errorf("%w: quest_type must be %q or %q",
			ErrInvalidInput, models.QuestTypeDaily, models.QuestTypeRandom)
	}

	quest := &models.Quest{
		Name:        input.Name,
		Description: input.Description,
		ExpValue:    input.ExpValue,
		QuestType:   input.QuestType,
	}
	if err := s.quests.Create(ctx, quest); err != nil {
		return nil, fmt.Errorf("failed to create quest: %w", err)
	}
	return quest, nil
}

func (s *Service) DeleteQuest(ctx context.Context, questID int64) error {
	return s.quests.Delete(ctx, questID)
}

func (s *Service) AllQuests(ctx context.Context, skip, limit int) ([]*models.Quest, error) {
	return s.quests.GetAll(ctx, skip, limit)
}
