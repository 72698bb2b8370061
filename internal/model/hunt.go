package model

// Hunt is an ordered trail of questions authored by a teacher.
// Students can only enter hunts that are flagged active.
// swagger:model Hunt
type Hunt struct {
	BaseModel
	Name        string     `gorm:"size:200;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	TeacherID   uint       `gorm:"index;not null" json:"teacherId"`
	IsActive    bool       `gorm:"default:false" json:"isActive"`
	Questions   []Question `gorm:"foreignKey:HuntID" json:"questions,omitempty"`
}

func (Hunt) TableName() string {
	return "hunts"
}
