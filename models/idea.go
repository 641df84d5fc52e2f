package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FrameworkOwn tags ideas the user submitted themselves rather than extracted
// from a generation response.
const FrameworkOwn = "own"

// Idea is one extracted marketing angle for a conversation.
type Idea struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:uuid;index;not null" json:"conversationId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Framework      string    `gorm:"type:varchar(40)" json:"framework,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	Evaluations []Evaluation `gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE" json:"evaluations,omitempty"`
}

func (i *Idea) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Evaluated reports whether the idea already has at least one evaluation.
func (i *Idea) Evaluated() bool {
	return len(i.Evaluations) > 0
}

// Evaluation holds the model's assessment of one idea. OverallScore is nil when
// no score could be extracted from the evaluation text, which is a valid state.
// The unique index on IdeaID keeps evaluations one-per-idea.
type Evaluation struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	IdeaID       string    `gorm:"type:uuid;uniqueIndex;not null" json:"ideaId"`
	OverallScore *float64  `json:"overallScore"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
