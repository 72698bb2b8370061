package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel gives every table soft deletion: removed hunts and
// questions disappear from queries but stay in the database, so
// completion records never point at missing rows.
// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
