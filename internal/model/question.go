package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	QuestionMultipleChoice = "multiple-choice"
	QuestionText           = "text"
	QuestionPhoto          = "photo"
)

// ChoiceSlots is how many options a multiple-choice question always
// stores; unused slots are kept as empty strings.
const ChoiceSlots = 4

// Question is one step of a hunt. QuestionOrder is 1-based and dense
// within a hunt; QRToken is the opaque id printed into the QR code.
// swagger:model Question
type Question struct {
	BaseModel
	HuntID           uint   `gorm:"index;not null" json:"huntId"`
	QuestionOrder    int    `gorm:"not null" json:"questionOrder"`
	QuestionType     string `gorm:"size:50;not null;default:'multiple-choice'" json:"questionType"`
	Text             string `gorm:"type:text;not null" json:"text"`
	Choices          string `gorm:"type:text" json:"-"`
	CorrectAnswer    string `gorm:"type:text" json:"-"`
	Hint             string `gorm:"type:text" json:"hint"`
	NextLocationHint string `gorm:"type:text" json:"nextLocationHint"`
	QRToken          string `gorm:"size:100;uniqueIndex" json:"qrToken"`
	Points           int    `gorm:"default:10" json:"points"`
}

func (Question) TableName() string {
	return "questions"
}

// NewQRToken mints the opaque id embedded in a question's QR code.
// Tokens are never reused, even across deleted questions.
func NewQRToken() string {
	return uuid.New().String()
}

// DecodeChoices returns the stored choice slots, always padded to
// ChoiceSlots entries.
func (q *Question) DecodeChoices() []string {
	var choices []string
	if q.Choices != "" {
		json.Unmarshal([]byte(q.Choices), &choices)
	}
	for len(choices) < ChoiceSlots {
		choices = append(choices, "")
	}
	return choices
}

// PresentChoices returns only the non-empty choices, in stored order.
func (q *Question) PresentChoices() []string {
	present := make([]string, 0, ChoiceSlots)
	for _, c := range q.DecodeChoices() {
		if c != "" {
			present = append(present, c)
		}
	}
	return present
}
