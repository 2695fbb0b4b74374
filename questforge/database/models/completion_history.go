package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CompletionHistory is the append-only log of completed quests, one row per
// (user, quest, date). The composite primary key caps completions at one per
// quest per day.
type CompletionHistory struct {
	bun.BaseModel `bun:"table:completion_history,alias:ch"`

	UserID         int64     `bun:"user_id,pk" json:"user_id"`
	QuestID        int64     `bun:"quest_id,pk" json:"quest_id"`
	CompletionDate time.Time `bun:"completion_date,pk,type:date" json:"completion_date"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`

	Quest *Quest `bun:"rel:belongs-to,join:quest_id=id" json:"quest,omitempty"`
}
