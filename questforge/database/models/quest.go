package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Quest struct {
	bun.BaseModel `bun:"table:quests,alias:q"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description *string   `bun:"description" json:"description"`
	ExpValue    int64     `bun:"exp_value,notnull" json:"exp_value"`
	QuestType   string    `bun:"quest_type,notnull" json:"quest_type"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Quest type constants
const (
	QuestTypeDaily  = "daily"  // assigned unconditionally every day
	QuestTypeRandom = "random" // eligible for the daily random sample
)

func ValidQuestType(t string) bool {
	return t == QuestTypeDaily || t == QuestTypeRandom
}
