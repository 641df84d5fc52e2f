package db

import (
	"fmt"
	"log"

	"anglehub/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the process-wide database handle. It is constructed once in main
// and passed into every consumer rather than held as ambient global state.
type Store struct {
	db *gorm.DB
}

// Connect opens the Postgres connection and migrates the schema.
func Connect(dsn string, verbose bool) (*Store, error) {
	level := logger.Error
	if verbose {
		level = logger.Warn
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&models.Conversation{},
		&models.Message{},
		&models.Idea{},
		&models.Evaluation{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Println("Connected to Postgres")
	return &Store{db: gdb}, nil
}

// conversationListLimit caps the browse listing.
const conversationListLimit = 50

func (s *Store) CreateConversation(c *models.Conversation) error {
	return s.db.Create(c).Error
}

func (s *Store) GetConversation(id string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetConversationDetail loads a conversation with its messages in creation
// order and its ideas with evaluations.
func (s *Store) GetConversationDetail(id string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.
		Preload("Messages", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at asc") }).
		Preload("Ideas", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at asc") }).
		Preload("Ideas.Evaluations").
		First(&conversation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (s *Store) ListConversations() ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := s.db.
		Select("id", "title", "product_description", "created_at").
		Order("created_at desc").
		Limit(conversationListLimit).
		Find(&conversations).Error
	return conversations, err
}

func (s *Store) CreateMessage(m *models.Message) error {
	return s.db.Create(m).Error
}

// ListRecentMessages returns the newest limit messages in creation order.
func (s *Store) ListRecentMessages(conversationID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *Store) CreateIdea(i *models.Idea) error {
	return s.db.Create(i).Error
}

func (s *Store) GetIdea(id string) (*models.Idea, error) {
	var idea models.Idea
	if err := s.db.Preload("Evaluations").First(&idea, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *Store) ListIdeas(conversationID string) ([]models.Idea, error) {
	var ideas []models.Idea
	err := s.db.
		Preload("Evaluations").
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&ideas).Error
	return ideas, err
}

func (s *Store) CreateEvaluation(e *models.Evaluation) error {
	return s.db.Create(e).Error
}
