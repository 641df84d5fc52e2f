package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message types. A message without a type is plain chat.
const (
	MessageTypeChat              = "chat"
	MessageTypeIdeaGeneration    = "idea_generation"
	MessageTypeEvaluation        = "evaluation"
	MessageTypeEvaluationSummary = "evaluation_summary"
)

// Conversation holds the product description a user submitted and everything
// generated from it. The description is never mutated after creation; only the
// derived title is set alongside it.
type Conversation struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string    `gorm:"type:varchar(120)" json:"title"`
	ProductDescription string    `gorm:"type:text;not null" json:"productDescription"`
	CreatedAt          time.Time `json:"createdAt"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Ideas    []Idea    `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"ideas,omitempty"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Message is one turn in a conversation, append-only and ordered by creation time.
type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:uuid;index;not null" json:"conversationId"`
	Role           string    `gorm:"type:varchar(20);not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	MessageType    string    `gorm:"type:varchar(40)" json:"messageType,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
