package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DailyAssignment marks a quest as active for a user on a calendar date.
// The composite primary key is the enforcement boundary against duplicate
// assignment under concurrent requests. Rows are never deleted.
type DailyAssignment struct {
	bun.BaseModel `bun:"table:daily_assignments,alias:da"`

	UserID         int64     `bun:"user_id,pk" json:"user_id"`
	QuestID        int64     `bun:"quest_id,pk" json:"quest_id"`
	AssignmentDate time.Time `bun:"assignment_date,pk,type:date" json:"assignment_date"`
	IsCompleted    bool      `bun:"is_completed,notnull,default:false" json:"is_completed"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`

	Quest *Quest `bun:"rel:belongs-to,join:quest_id=id" json:"quest,omitempty"`
}
