package database

import (
	"context"
	"fmt"

	"log/slog"
)

// InitializeQuestData seeds a starter quest catalog so a fresh install has
// something to assign. Runs only when the quests table is empty; operator or
// API-created quests are never touched.
func (db *DB) InitializeQuestData(ctx context.Context) error {
	var questCount int
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quests").Scan(&questCount); err != nil {
		return fmt.Errorf("failed to count quests: %w", err)
	}
	if questCount > 0 {
		slog.Debug("Quest data already present, skipping seed",
			slog.String("type", "db"),
			slog.Int("count", questCount))
		return nil
	}

	type questSeed struct {
		Name        string
		Description string
		ExpValue    int64
		QuestType   string
	}

	quests := []questSeed{
		// Daily set, assigned every day
		{"Morning Review", "Go through yesterday's notes and plan the day", 20, "daily"},
		{"Inbox Zero", "Clear every unread message before noon", 25, "daily"},
		{"Daily Reflection", "Write three lines about how the day went", 15, "daily"},

		// Random pool, sampled daily
		{"Deep Work Block", "90 minutes of uninterrupted focus", 60, "random"},
		{"Take a Walk", "At least twenty minutes outside", 30, "random"},
		{"Read a Chapter", "One chapter of any book counts", 35, "random"},
		{"Tidy Workspace", "Desk cleared, nothing left to file", 25, "random"},
		{"Reach Out", "Message someone you have not talked to in a while", 40, "random"},
		{"Learn Something New", "Half an hour on a skill outside your routine", 50, "random"},
		{"Early Night", "Screens off an hour before bed", 45, "random"},
		{"Cook a Meal", "From ingredients, not a box", 35, "random"},
	}

	insertSQL := `
		INSERT INTO quests (name, description, exp_value, quest_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`

	for _, q := range quests {
		if _, err := db.ExecWithLog(ctx, insertSQL,
			q.Name, q.Description, q.ExpValue, q.QuestType,
		); err != nil {
			return fmt.Errorf("failed to seed quest %q: %w", q.Name, err)
		}
	}

	slog.Info("Starter quest catalog seeded",
		slog.String("type", "db"),
		slog.Int("count", len(quests)))
	return nil
}
