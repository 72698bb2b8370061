package model

// PhotoSubmission stores the photo a participant handed in for a
// question. One row per (question, participant): re-uploading
// replaces the previous photo instead of clobbering other students'.
// swagger:model PhotoSubmission
type PhotoSubmission struct {
	BaseModel
	QuestionID    uint   `gorm:"not null;uniqueIndex:idx_photo_question_participant" json:"questionId"`
	ParticipantID string `gorm:"size:36;not null;uniqueIndex:idx_photo_question_participant" json:"participantId"`
	StudentName   string `gorm:"size:100" json:"studentName"`
	Filename      string `gorm:"size:255;not null" json:"filename"`
	URL           string `gorm:"size:255" json:"url"`
}

func (PhotoSubmission) TableName() string {
	return "photo_submissions"
}
