package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuestionnaireResponse records a submitted answer set so a generation run
// can be traced back to the answers that produced it.
type QuestionnaireResponse struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ContentType string         `gorm:"not null;column:content_type" json:"content_type"`
	Answers     datatypes.JSON `gorm:"column:answers" json:"answers"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (QuestionnaireResponse) TableName() string {
	return "questionnaire_response"
}

// Question is one generated (or fallback) questionnaire prompt.
type Question struct {
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
}
