package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"anglehub/models"

	"gorm.io/gorm"
)

// Store is the conversation state gateway the angle service persists through.
// The gorm-backed implementation lives in the db package; tests substitute an
// in-memory fake. Lookups report missing rows as gorm.ErrRecordNotFound.
type Store interface {
	GetConversation(id string) (*models.Conversation, error)
	CreateMessage(m *models.Message) error
	ListRecentMessages(conversationID string, limit int) ([]models.Message, error)
	CreateIdea(i *models.Idea) error
	GetIdea(id string) (*models.Idea, error)
	ListIdeas(conversationID string) ([]models.Idea, error)
	CreateEvaluation(e *models.Evaluation) error
}

// AngleService orchestrates the four angle operations: one prompt, one
// completion call, extraction, persistence.
type AngleService struct {
	store Store
	llm   Completer

	// OnProgress, when set, receives batch evaluation progress events.
	OnProgress func(ProgressEvent)

	// Deadlines and pacing are fields so tests can shrink them.
	batchDeadline  time.Duration
	itemDeadline   time.Duration
	singleDeadline time.Duration
	chatDeadline   time.Duration
	pacing         time.Duration
}

func NewAngleService(store Store, llm Completer) *AngleService {
	return &AngleService{
		store:          store,
		llm:            llm,
		batchDeadline:  batchDeadlineDefault,
		itemDeadline:   batchItemDeadline,
		singleDeadline: singleCallDeadline,
		chatDeadline:   chatCallDeadline,
		pacing:         batchPacingDefault,
	}
}

// GenerateResult is the outcome of one angle generation call.
type GenerateResult struct {
	Content        string `json:"content"`
	IdeasExtracted int    `json:"ideasExtracted"`
}

// Generate asks the model for fresh angles, saves the response as a message,
// and persists every extractable idea. Zero extracted ideas is still a
// successful generation.
func (s *AngleService) Generate(ctx context.Context, conversationID string) (*GenerateResult, error) {
	conversation, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}

	content, err := s.llm.Complete(ctx, []CompletionMessage{
		{Role: "system", Content: generationSystemPrompt},
		{Role: models.RoleUser, Content: AngleGenerationPrompt(conversation.ProductDescription)},
	}, CompletionOptions{
		Deadline:    s.singleDeadline,
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
		Fallback:    "No response generated",
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateMessage(&models.Message{
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        content,
		MessageType:    models.MessageTypeIdeaGeneration,
	}); err != nil {
		log.Printf("Error saving generation message: %v", err)
	}

	saved := s.saveIdeas(conversationID, ExtractIdeas(content))
	log.Printf("Extracted %d ideas from generation response", saved)

	return &GenerateResult{Content: content, IdeasExtracted: saved}, nil
}

// saveIdeas persists each candidate as its own row. A failure for one
// candidate is logged and skipped, never aborting the rest.
func (s *AngleService) saveIdeas(conversationID string, candidates []string) int {
	saved := 0
	for _, text := range candidates {
		if err := s.store.CreateIdea(&models.Idea{
			ConversationID: conversationID,
			Content:        text,
		}); err != nil {
			log.Printf("Error saving idea: %v", err)
			continue
		}
		saved++
	}
	return saved
}

// EvaluateResult is the outcome of evaluating a single idea.
type EvaluateResult struct {
	Content      string   `json:"content"`
	EvaluationID string   `json:"evaluationId"`
	OverallScore *float64 `json:"overallScore"`
}

// EvaluateIdea runs one Big Marketing Idea Formula evaluation for an idea and
// stores the result. An idea that already has an evaluation is not evaluated
// twice.
func (s *AngleService) EvaluateIdea(ctx context.Context, conversationID, ideaID string) (*EvaluateResult, error) {
	conversation, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}

	idea, err := s.store.GetIdea(ideaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdeaNotFound
		}
		return nil, err
	}
	if idea.Evaluated() {
		return nil, ErrAlreadyEvaluated
	}

	return s.evaluateOne(ctx, conversation, idea, s.singleDeadline)
}

// evaluateOne is the shared evaluation step: prompt, completion, score
// extraction, persistence of the evaluation row and the assistant message.
func (s *AngleService) evaluateOne(ctx context.Context, conversation *models.Conversation, idea *models.Idea, deadline time.Duration) (*EvaluateResult, error) {
	content, err := s.llm.Complete(ctx, []CompletionMessage{
		{Role: "system", Content: evaluationSystemPrompt},
		{Role: models.RoleUser, Content: EvaluationPrompt(idea.Content, conversation.ProductDescription)},
	}, CompletionOptions{
		Deadline:    deadline,
		MaxTokens:   evaluationMaxTokens,
		Temperature: evaluationTemperature,
		Fallback:    "No evaluation generated",
	})
	if err != nil {
		return nil, err
	}

	score := ExtractScore(content)

	evaluation := &models.Evaluation{
		IdeaID:       idea.ID,
		OverallScore: score,
		Notes:        content,
	}
	if err := s.store.CreateEvaluation(evaluation); err != nil {
		return nil, err
	}

	if err := s.store.CreateMessage(&models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleAssistant,
		Content:        content,
		MessageType:    models.MessageTypeEvaluation,
	}); err != nil {
		log.Printf("Error saving evaluation message: %v", err)
	}

	return &EvaluateResult{Content: content, EvaluationID: evaluation.ID, OverallScore: score}, nil
}

// EvaluateOwnAngle stores a user-submitted angle tagged "own" and immediately
// evaluates it. Text shorter than 10 characters is rejected before any
// persistence or provider call.
func (s *AngleService) EvaluateOwnAngle(ctx context.Context, conversationID, text string) (*EvaluateResult, error) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minAngleLength {
		return nil, ErrAngleTooShort
	}

	conversation, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}

	idea := &models.Idea{
		ConversationID: conversationID,
		Content:        trimmed,
		Framework:      models.FrameworkOwn,
	}
	if err := s.store.CreateIdea(idea); err != nil {
		return nil, err
	}

	return s.evaluateOne(ctx, conversation, idea, s.singleDeadline)
}

// FinalResult is the outcome of the post-evaluation synthesis call.
type FinalResult struct {
	Content string `json:"content"`
}

// GenerateFinal runs the synthesis call over the supplied evaluated ideas and
// notes. No extraction happens here; the response is saved as a generation
// message and returned as-is.
func (s *AngleService) GenerateFinal(ctx context.Context, conversationID string, evaluatedIdeas, evaluations []string) (*FinalResult, error) {
	conversation, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}

	content, err := s.llm.Complete(ctx, []CompletionMessage{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: models.RoleUser, Content: PostEvaluationAnglePrompt(evaluatedIdeas, evaluations, conversation.ProductDescription)},
	}, CompletionOptions{
		Deadline:    s.singleDeadline,
		MaxTokens:   synthesisMaxTokens,
		Temperature: synthesisTemperature,
		Fallback:    "No angles generated",
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateMessage(&models.Message{
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        content,
		MessageType:    models.MessageTypeIdeaGeneration,
	}); err != nil {
		log.Printf("Error saving final angles message: %v", err)
	}

	return &FinalResult{Content: content}, nil
}

// chatHistoryLimit caps how many stored messages are replayed into a
// continuation turn.
const chatHistoryLimit = 24

// ChatResult is the assistant's reply to a continuation message.
type ChatResult struct {
	Content string `json:"content"`
}

// ContinueChat appends the user's message and answers it with full context:
// the product description, every angle with its evaluation, and the most
// recent stored messages.
func (s *AngleService) ContinueChat(ctx context.Context, conversationID, userMessage string) (*ChatResult, error) {
	conversation, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}

	ideas, err := s.store.ListIdeas(conversationID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListRecentMessages(conversationID, chatHistoryLimit)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateMessage(&models.Message{
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        userMessage,
		MessageType:    models.MessageTypeChat,
	}); err != nil {
		log.Printf("Error saving chat message: %v", err)
	}

	messages := []CompletionMessage{
		{Role: "system", Content: ContinueChatContext(conversation.ProductDescription, ideas)},
	}
	for _, m := range history {
		messages = append(messages, CompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, CompletionMessage{Role: models.RoleUser, Content: userMessage})

	content, err := s.llm.Complete(ctx, messages, CompletionOptions{
		Deadline:    s.chatDeadline,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
		Fallback:    "No response generated",
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateMessage(&models.Message{
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        content,
		MessageType:    models.MessageTypeChat,
	}); err != nil {
		log.Printf("Error saving chat reply: %v", err)
	}

	return &ChatResult{Content: content}, nil
}

func (s *AngleService) getConversation(id string) (*models.Conversation, error) {
	conversation, err := s.store.GetConversation(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conversation, nil
}
