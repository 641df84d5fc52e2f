package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"anglehub/models"
)

const (
	// batchDeadlineDefault bounds the wall clock of one evaluate-all
	// invocation; batchPacingDefault throttles consecutive provider calls.
	batchDeadlineDefault = 20 * time.Second
	batchPacingDefault   = 200 * time.Millisecond
)

// BatchEvaluation is one completed item of a batch.
type BatchEvaluation struct {
	IdeaID       string   `json:"ideaId"`
	Content      string   `json:"content"`
	OverallScore *float64 `json:"overallScore"`
}

// BatchResult is the terminal outcome of an evaluate-all invocation. Partial
// means the deadline (global or per-item) cut the batch short; the completed
// evaluations are still returned as a success.
type BatchResult struct {
	Partial     bool              `json:"partial"`
	Evaluations []BatchEvaluation `json:"evaluations"`
	Count       int               `json:"count"`
	Message     string            `json:"message"`
}

// Progress stages published while a batch runs.
const (
	ProgressStarted   = "started"
	ProgressEvaluated = "evaluated"
	ProgressComplete  = "complete"
	ProgressPartial   = "partial"
	ProgressAborted   = "aborted"
)

// ProgressEvent describes one step of a running batch evaluation.
type ProgressEvent struct {
	ConversationID string   `json:"conversationId"`
	Stage          string   `json:"stage"`
	IdeaID         string   `json:"ideaId,omitempty"`
	OverallScore   *float64 `json:"overallScore,omitempty"`
	Completed      int      `json:"completed"`
	Total          int      `json:"total"`
	Message        string   `json:"message,omitempty"`
}

// EvaluateAll evaluates every not-yet-evaluated idea of a conversation in
// order, against a wall-clock deadline.
//
// Failure policy per item: quota exhaustion aborts the whole batch (the one
// non-tolerated class); a per-item timeout ends the batch with a partial
// result; anything else is logged and skipped so the idea can be retried
// later. Only when every pending item succeeded is the post-evaluation
// synthesis message produced, and its failure is swallowed.
func (s *AngleService) EvaluateAll(ctx context.Context, conversationID string) (*BatchResult, error) {
	conversation, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}

	ideas, err := s.store.ListIdeas(conversationID)
	if err != nil {
		return nil, err
	}

	// The worklist is computed once; items evaluated by this invocation do
	// not re-enter it.
	var pending []models.Idea
	for _, idea := range ideas {
		if !idea.Evaluated() {
			pending = append(pending, idea)
		}
	}
	if len(pending) == 0 {
		return nil, ErrAllEvaluated
	}

	log.Printf("Evaluating %d of %d ideas for conversation %s", len(pending), len(ideas), conversationID)
	s.publish(ProgressEvent{
		ConversationID: conversationID,
		Stage:          ProgressStarted,
		Total:          len(pending),
	})

	start := time.Now()
	var completed []BatchEvaluation

	for i := range pending {
		idea := &pending[i]

		if time.Since(start) > s.batchDeadline {
			remaining := len(pending) - len(completed)
			result := s.partialResult(conversationID, completed, remaining)
			return result, nil
		}

		evaluated, err := s.evaluateOne(ctx, conversation, idea, s.itemDeadline)
		if err != nil {
			if IsQuota(err) {
				// Continuing would only burn more quota-exhausted calls.
				s.publish(ProgressEvent{
					ConversationID: conversationID,
					Stage:          ProgressAborted,
					Completed:      len(completed),
					Total:          len(pending),
					Message:        err.Error(),
				})
				return nil, err
			}
			if errors.Is(err, ErrTimedOut) {
				remaining := len(pending) - len(completed)
				result := s.partialResult(conversationID, completed, remaining)
				return result, nil
			}
			log.Printf("Error evaluating idea %s: %v", idea.ID, err)
			continue
		}

		completed = append(completed, BatchEvaluation{
			IdeaID:       idea.ID,
			Content:      evaluated.Content,
			OverallScore: evaluated.OverallScore,
		})
		s.publish(ProgressEvent{
			ConversationID: conversationID,
			Stage:          ProgressEvaluated,
			IdeaID:         idea.ID,
			OverallScore:   evaluated.OverallScore,
			Completed:      len(completed),
			Total:          len(pending),
		})

		if i < len(pending)-1 {
			time.Sleep(s.pacing)
		}
	}

	// The synthesis message only follows a fully evaluated batch.
	if len(completed) == len(pending) {
		s.summarizeEvaluations(ctx, conversation)
	}

	s.publish(ProgressEvent{
		ConversationID: conversationID,
		Stage:          ProgressComplete,
		Completed:      len(completed),
		Total:          len(pending),
	})

	return &BatchResult{
		Evaluations: completed,
		Count:       len(completed),
		Message:     fmt.Sprintf("Successfully evaluated %d ideas", len(completed)),
	}, nil
}

func (s *AngleService) partialResult(conversationID string, completed []BatchEvaluation, remaining int) *BatchResult {
	message := fmt.Sprintf("Evaluated %d ideas before the time limit, %d remaining", len(completed), remaining)
	log.Printf("Partial batch for conversation %s: %s", conversationID, message)
	s.publish(ProgressEvent{
		ConversationID: conversationID,
		Stage:          ProgressPartial,
		Completed:      len(completed),
		Total:          len(completed) + remaining,
		Message:        message,
	})
	return &BatchResult{
		Partial:     true,
		Evaluations: completed,
		Count:       len(completed),
		Message:     message,
	}
}

// summarizeEvaluations runs the post-evaluation synthesis call and saves its
// output as a summary message. The batch already succeeded, so any failure
// here is logged and swallowed.
func (s *AngleService) summarizeEvaluations(ctx context.Context, conversation *models.Conversation) {
	ideas, err := s.store.ListIdeas(conversation.ID)
	if err != nil {
		log.Printf("Error loading ideas for summary: %v", err)
		return
	}

	var ideaTexts, notes []string
	for _, idea := range ideas {
		ideaTexts = append(ideaTexts, idea.Content)
		for _, ev := range idea.Evaluations {
			notes = append(notes, ev.Notes)
		}
	}

	content, err := s.llm.Complete(ctx, []CompletionMessage{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: models.RoleUser, Content: PostEvaluationAnglePrompt(ideaTexts, notes, conversation.ProductDescription)},
	}, CompletionOptions{
		Deadline:    s.singleDeadline,
		MaxTokens:   synthesisMaxTokens,
		Temperature: synthesisTemperature,
		Fallback:    "No final angles generated",
	})
	if err != nil {
		log.Printf("Error generating evaluation summary: %v", err)
		return
	}

	if err := s.store.CreateMessage(&models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleAssistant,
		Content:        "## ✅ All Ideas Evaluated!\n\n" + content,
		MessageType:    models.MessageTypeEvaluationSummary,
	}); err != nil {
		log.Printf("Error saving evaluation summary: %v", err)
	}
}

func (s *AngleService) publish(ev ProgressEvent) {
	if s.OnProgress != nil {
		s.OnProgress(ev)
	}
}
