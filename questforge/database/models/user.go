package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64 `bun:"id,pk,autoincrement" json:"id"`
	Level    int   `bun:"level,notnull,default:1" json:"level"`
	Exp      int64 `bun:"exp,notnull,default:0" json:"exp"`             // EXP accumulated within the current level
	TotalExp int64 `bun:"total_exp,notnull,default:0" json:"total_exp"` // lifetime EXP, never decreases

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}
