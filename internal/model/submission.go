package model

import (
	"encoding/json"
	"time"
)

// Submission is the permanent record written once when a participant
// answers the final question of a hunt.
// swagger:model Submission
type Submission struct {
	BaseModel
	HuntID             uint      `gorm:"index;not null" json:"huntId"`
	StudentName        string    `gorm:"size:100;not null" json:"studentName"`
	TotalScore         int       `gorm:"default:0" json:"totalScore"`
	MaxScore           int       `gorm:"default:0" json:"maxScore"`
	CompletedQuestions int       `gorm:"default:0" json:"completedQuestions"`
	TotalQuestions     int       `gorm:"default:0" json:"totalQuestions"`
	MarksJSON          string    `gorm:"type:text" json:"-"`
	CompletedAt        time.Time `json:"completedAt"`
}

func (Submission) TableName() string {
	return "submissions"
}

// DecodeMarks returns the per-question points keyed by QR token.
func (s *Submission) DecodeMarks() map[string]int {
	marks := map[string]int{}
	if s.MarksJSON != "" {
		json.Unmarshal([]byte(s.MarksJSON), &marks)
	}
	return marks
}
