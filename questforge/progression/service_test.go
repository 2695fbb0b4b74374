package progression

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/solrise/questforge/questforge/database/models"
	"github.com/solrise/questforge/questforge/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore backs all four repository interfaces with in-memory maps so the
// engine can be exercised without a database.
type fakeStore struct {
	users       map[int64]*models.User
	quests      map[int64]*models.Quest
	assignments map[assignmentKey]*models.DailyAssignment
	history     []*models.CompletionHistory

	nextUserID  int64
	nextQuestID int64
}

type assignmentKey struct {
	userID  int64
	questID int64
	date    string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[int64]*models.User{},
		quests:      map[int64]*models.Quest{},
		assignments: map[assignmentKey]*models.DailyAssignment{},
	}
}

func keyOf(userID, questID int64, day time.Time) assignmentKey {
	return assignmentKey{userID: userID, questID: questID, date: day.Format("2006-01-02")}
}

// UserRepository

func (f *fakeStore) Create(ctx context.Context, user *models.User) error {
	f.nextUserID++
	user.ID = f.nextUserID
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "user", ID: id}
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) Update(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return &repositories.NotFoundError{Entity: "user", ID: user.ID}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

// QuestRepository (method names prefixed to avoid clashing with UserRepository)

type fakeQuestRepo struct{ store *fakeStore }

func (f fakeQuestRepo) Create(ctx context.Context, quest *models.Quest) error {
	f.store.nextQuestID++
	quest.ID = f.store.nextQuestID
	copied := *quest
	f.store.quests[quest.ID] = &copied
	return nil
}

func (f fakeQuestRepo) GetByID(ctx context.Context, id int64) (*models.Quest, error) {
	quest, ok := f.store.quests[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "quest", ID: id}
	}
	return quest, nil
}

func (f fakeQuestRepo) GetByType(ctx context.Context, questType string) ([]*models.Quest, error) {
	var quests []*models.Quest
	for _, q := range f.store.quests {
		if q.QuestType == questType {
			quests = append(quests, q)
		}
	}
	sort.Slice(quests, func(i, j int) bool { return quests[i].ID < quests[j].ID })
	return quests, nil
}

func (f fakeQuestRepo) GetAll(ctx context.Context, skip, limit int) ([]*models.Quest, error) {
	var quests []*models.Quest
	for _, q := range f.store.quests {
		quests = append(quests, q)
	}
	sort.Slice(quests, func(i, j int) bool { return quests[i].ID > quests[j].ID })
	if skip >= len(quests) {
		return nil, nil
	}
	quests = quests[skip:]
	if limit < len(quests) {
		quests = quests[:limit]
	}
	return quests, nil
}

func (f fakeQuestRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.store.quests[id]; !ok {
		return &repositories.NotFoundError{Entity: "quest", ID: id}
	}
	delete(f.store.quests, id)
	return nil
}

// AssignmentRepository

type fakeAssignmentRepo struct{ store *fakeStore }

func (f fakeAssignmentRepo) ExistsForDate(ctx context.Context, userID int64, day time.Time) (bool, error) {
	for k := range f.store.assignments {
		if k.userID == userID && k.date == day.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeAssignmentRepo) CreateBatch(ctx context.Context, assignments []*models.DailyAssignment) error {
	for _, a := range assignments {
		if _, ok := f.store.assignments[keyOf(a.UserID, a.QuestID, a.AssignmentDate)]; ok {
			return &repositories.ConflictError{Entity: "daily assignment", Key: a.UserID}
		}
	}
	for _, a := range assignments {
		copied := *a
		f.store.assignments[keyOf(a.UserID, a.QuestID, a.AssignmentDate)] = &copied
	}
	return nil
}

func (f fakeAssignmentRepo) Create(ctx context.Context, assignment *models.DailyAssignment) error {
	k := keyOf(assignment.UserID, assignment.QuestID, assignment.AssignmentDate)
	if _, ok := f.store.assignments[k]; ok {
		return &repositories.ConflictError{Entity: "daily assignment", Key: assignment.QuestID}
	}
	copied := *assignment
	f.store.assignments[k] = &copied
	return nil
}

func (f fakeAssignmentRepo) GetByKey(ctx context.Context, userID, questID int64, day time.Time) (*models.DailyAssignment, error) {
	a, ok := f.store.assignments[keyOf(userID, questID, day)]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "daily assignment", ID: questID}
	}
	copied := *a
	return &copied, nil
}

func (f fakeAssignmentRepo) listQuests(userID int64, day time.Time, completed bool) []*models.Quest {
	var quests []*models.Quest
	for k, a := range f.store.assignments {
		if k.userID == userID && k.date == day.Format("2006-01-02") && a.IsCompleted == completed {
			if q, ok := f.store.quests[k.questID]; ok {
				quests = append(quests, q)
			}
		}
	}
	sort.Slice(quests, func(i, j int) bool { return quests[i].ID < quests[j].ID })
	return quests
}

func (f fakeAssignmentRepo) ListIncompleteQuests(ctx context.Context, userID int64, day time.Time, skip, limit int) ([]*models.Quest, error) {
	quests := f.listQuests(userID, day, false)
	if skip >= len(quests) {
		return nil, nil
	}
	quests = quests[skip:]
	if limit < len(quests) {
		quests = quests[:limit]
	}
	return quests, nil
}

func (f fakeAssignmentRepo) ListCompletedQuests(ctx context.Context, userID int64, day time.Time) ([]*models.Quest, error) {
	return f.listQuests(userID, day, true), nil
}

func (f fakeAssignmentRepo) CompleteAssignment(ctx context.Context, user *models.User, questID int64, day time.Time) error {
	a, ok := f.store.assignments[keyOf(user.ID, questID, day)]
	if !ok {
		return &repositories.NotFoundError{Entity: "daily assignment", ID: questID}
	}
	if a.IsCompleted {
		return &repositories.ConflictError{Entity: "completion", Key: questID}
	}
	a.IsCompleted = true
	copied := *user
	f.store.users[user.ID] = &copied
	f.store.history = append(f.store.history, &models.CompletionHistory{
		UserID:         user.ID,
		QuestID:        questID,
		CompletionDate: day,
		Quest:          f.store.quests[questID],
	})
	return nil
}

// HistoryRepository

type fakeHistoryRepo struct{ store *fakeStore }

func (f fakeHistoryRepo) ListByUser(ctx context.Context, userID int64) ([]*models.CompletionHistory, error) {
	var rows []*models.CompletionHistory
	for _, h := range f.store.history {
		if h.UserID == userID {
			rows = append(rows, h)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CompletionDate.After(rows[j].CompletionDate) })
	return rows, nil
}

func newTestService(store *fakeStore, seed int64) *Service {
	svc := NewService(
		store,
		fakeQuestRepo{store},
		fakeAssignmentRepo{store},
		fakeHistoryRepo{store},
		NewSampler(rand.NewSource(seed)),
		DefaultConfig(),
	)
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	}
	return svc
}

func seedQuests(t *testing.T, store *fakeStore, daily, random int) {
	t.Helper()
	repo := fakeQuestRepo{store}
	for i := 0; i < daily; i++ {
		require.NoError(t, repo.Create(context.Background(), &models.Quest{
			Name: "daily", ExpValue: 10, QuestType: models.QuestTypeDaily,
		}))
	}
	for i := 0; i < random; i++ {
		require.NoError(t, repo.Create(context.Background(), &models.Quest{
			Name: "random", ExpValue: 10, QuestType: models.QuestTypeRandom,
		}))
	}
}

func TestAssignDailyQuests(t *testing.T) {
	tests := []struct {
		name      string
		daily     int
		random    int
		wantTotal func(assigned int) bool
	}{
		{
			name: "all daily plus 3 to 5 random", daily: 2, random: 10,
			wantTotal: func(n int) bool { return n >= 5 && n <= 7 },
		},
		{
			name: "no daily quests", daily: 0, random: 10,
			wantTotal: func(n int) bool { return n >= 3 && n <= 5 },
		},
		{
			name: "pool smaller than sample", daily: 1, random: 2,
			wantTotal: func(n int) bool { return n == 3 },
		},
		{
			name: "empty random pool", daily: 4, random: 0,
			wantTotal: func(n int) bool { return n == 4 },
		},
		{
			name: "no quests at all", daily: 0, random: 0,
			wantTotal: func(n int) bool { return n == 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			seedQuests(t, store, tt.daily, tt.random)
			svc := newTestService(store, 1)

			user, err := svc.CreateUser(context.Background())
			require.NoError(t, err)

			res, err := svc.AssignDailyQuests(context.Background(), user.ID)
			require.NoError(t, err)
			assert.False(t, res.AlreadyAssigned)
			assert.True(t, tt.wantTotal(res.AssignedCount),
				"assigned count %d out of range", res.AssignedCount)
			assert.Len(t, store.assignments, res.AssignedCount)

			// Every daily-type quest must be in the set.
			for id, q := range store.quests {
				if q.QuestType == models.QuestTypeDaily {
					_, ok := store.assignments[keyOf(user.ID, id, svc.Today())]
					assert.True(t, ok, "daily quest %d not assigned", id)
				}
			}
		})
	}
}

func TestAssignDailyQuestsIdempotent(t *testing.T) {
	store := newFakeStore()
	seedQuests(t, store, 2, 8)
	svc := newTestService(store, 5)

	user, err := svc.CreateUser(context.Background())
	require.NoError(t, err)

	first, err := svc.AssignDailyQuests(context.Background(), user.ID)
	require.NoError(t, err)
	assigned := len(store.assignments)

	second, err := svc.AssignDailyQuests(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyAssigned)
	assert.Equal(t, assigned, len(store.assignments), "second call changed the assignment set")
	assert.False(t, first.AlreadyAssigned)
}

func TestAssignQuest(t *testing.T) {
	store := newFakeStore()
	seedQuests(t, store, 0, 1)
	svc := newTestService(store, 1)

	user, err := svc.CreateUser(context.Background())
	require.NoError(t, err)

	res, err := svc.AssignQuest(context.Background(), user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AssignedCount)

	res, err = svc.AssignQuest(context.Background(), user.ID, 1)
	require.NoError(t, err)
	assert.True(t, res.AlreadyAssigned)

	_, err = svc.AssignQuest(context.Background(), user.ID, 999)
	assert.True(t, repositories.IsNotFound(err))
}

func TestCompleteQuest(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx)
	require.NoError(t, err)

	quest, err := svc.CreateQuest(ctx, QuestInput{
		Name: "Morning run", ExpValue: 40, QuestType: models.QuestTypeDaily,
	})
	require.NoError(t, err)

	_, err = svc.CompleteQuest(ctx, user.ID, quest.ID)
	assert.ErrorIs(t, err, ErrNotAssigned)

	_, err = svc.AssignQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)

	res, err := svc.CompleteQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.ExpGained)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, int64(40), res.Exp)

	stored := store.users[user.ID]
	assert.Equal(t, int64(40), stored.Exp)
	assert.Equal(t, int64(40), stored.TotalExp)
	require.Len(t, store.history, 1)
	assert.Equal(t, quest.ID, store.history[0].QuestID)

	// Repeating the completion must not grant EXP a second time.
	_, err = svc.CompleteQuest(ctx, user.ID, quest.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, int64(40), store.users[user.ID].TotalExp)
	assert.Len(t, store.history, 1)
}

func TestCompleteQuestLevelsUp(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx)
	require.NoError(t, err)
	quest, err := svc.CreateQuest(ctx, QuestInput{
		Name: "Marathon", ExpValue: 250, QuestType: models.QuestTypeRandom,
	})
	require.NoError(t, err)
	_, err = svc.AssignQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)

	res, err := svc.CompleteQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Level)
	assert.Equal(t, int64(0), res.Exp)

	stored := store.users[user.ID]
	assert.Equal(t, 3, stored.Level)
	assert.Equal(t, int64(0), stored.Exp)
	assert.Equal(t, int64(250), stored.TotalExp)
}

func TestCompleteQuestNotFound(t *testing.T) {
	store := newFakeStore()
	seedQuests(t, store, 1, 0)
	svc := newTestService(store, 1)
	ctx := context.Background()

	_, err := svc.CompleteQuest(ctx, 42, 1)
	assert.True(t, repositories.IsNotFound(err), "missing user should be not-found, got %v", err)

	user, err := svc.CreateUser(ctx)
	require.NoError(t, err)
	_, err = svc.CompleteQuest(ctx, user.ID, 999)
	assert.True(t, repositories.IsNotFound(err), "missing quest should be not-found, got %v", err)
}

func TestUserStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1)
	ctx := context.Background()

	_, err := svc.UserStatus(ctx, 1)
	assert.True(t, repositories.IsNotFound(err), "missing user must not yield a default view")

	user, err := svc.CreateUser(ctx)
	require.NoError(t, err)

	quest, err := svc.CreateQuest(ctx, QuestInput{
		Name: "Stretch", ExpValue: 30, QuestType: models.QuestTypeDaily,
	})
	require.NoError(t, err)
	_, err = svc.AssignQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)

	status, err := svc.UserStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Level)
	assert.Equal(t, int64(100), status.ExpToNextLevel)
	assert.Equal(t, 0, status.CompletedQuestsCount)
	assert.Empty(t, status.CompletedQuests)

	_, err = svc.CompleteQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)

	status, err = svc.UserStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), status.Exp)
	assert.Equal(t, int64(30), status.TotalExp)
	assert.Equal(t, 1, status.CompletedQuestsCount)
	require.Len(t, status.CompletedQuests, 1)
	assert.Equal(t, quest.ID, status.CompletedQuests[0].ID)
}

func TestStatusAndLevelingShareTheCurve(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx)
	require.NoError(t, err)
	quest, err := svc.CreateQuest(ctx, QuestInput{
		Name: "Deep work", ExpValue: 250, QuestType: models.QuestTypeDaily,
	})
	require.NoError(t, err)
	_, err = svc.AssignQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)
	_, err = svc.CompleteQuest(ctx, user.ID, quest.ID)
	require.NoError(t, err)

	status, err := svc.UserStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ExpToNextLevel(status.Level), status.ExpToNextLevel)
	assert.Equal(t, int64(225), status.ExpToNextLevel)
}

func TestTodayQuestsExcludesCompleted(t *testing.T) {
	store := newFakeStore()
	seedQuests(t, store, 3, 0)
	svc := newTestService(store, 1)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx)
	require.NoError(t, err)
	_, err = svc.AssignDailyQuests(ctx, user.ID)
	require.NoError(t, err)

	quests, err := svc.TodayQuests(ctx, user.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, quests, 3)

	_, err = svc.CompleteQuest(ctx, user.ID, quests[0].ID)
	require.NoError(t, err)

	quests, err = svc.TodayQuests(ctx, user.ID, 0, 100)
	require.NoError(t, err)
	assert.Len(t, quests, 2)

	paged, err := svc.TodayQuests(ctx, user.ID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestHistoryOrderedByDateDescending(t *testing.T) {
	store := newFakeStore()
	seedQuests(t, store, 1, 0)
	svc := newTestService(store, 1)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx)
	require.NoError(t, err)

	d1 := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{d1, d3, d2} {
		store.history = append(store.history, &models.CompletionHistory{
			UserID:         user.ID,
			QuestID:        1,
			CompletionDate: d,
			Quest:          store.quests[1],
		})
	}

	records, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, d3, records[0].CompletionDate)
	assert.Equal(t, d2, records[1].CompletionDate)
	assert.Equal(t, d1, records[2].CompletionDate)
}

func TestCreateQuestValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), 1)
	ctx := context.Background()

	tests := []struct {
		name  string
		input QuestInput
	}{
		{"missing name", QuestInput{ExpValue: 10, QuestType: models.QuestTypeDaily}},
		{"zero exp", QuestInput{Name: "x", ExpValue: 0, QuestType: models.QuestTypeDaily}},
		{"negative exp", QuestInput{Name: "x", ExpValue: -5, QuestType: models.QuestTypeDaily}},
		{"bad type", QuestInput{Name: "x", ExpValue: 10, QuestType: "weekly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateQuest(ctx, tt.input)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestDeleteQuest(t *testing.T) {
	store := newFakeStore()
	seedQuests(t, store, 1, 0)
	svc := newTestService(store, 1)
	ctx := context.Background()

	assert.True(t, repositories.IsNotFound(svc.DeleteQuest(ctx, 999)))

	require.NoError(t, svc.DeleteQuest(ctx, 1))

	all, err := svc.AllQuests(ctx, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAllQuestsOrderedNewestFirst(t *testing.T) {
	store := newFakeStore()
	seedQuests(t, store, 3, 0)
	svc := newTestService(store, 1)

	all, err := svc.AllQuests(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(1), all[2].ID)
}
