package model

import (
	"time"
)

type UserRole string

const (
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// User is a registered account. Students never register: they play
// through anonymous participant sessions and do not appear here.
// swagger:model User
type User struct {
	BaseModel
	Name     string    `gorm:"size:100;not null" json:"name"`
	Email    string    `gorm:"size:100;unique;not null" json:"email"`
	Password string    `gorm:"size:100;not null" json:"-"`
	School   string    `gorm:"size:200" json:"school"`
	Role     UserRole  `gorm:"size:20;default:'teacher'" json:"role"`
	LastSeen time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
