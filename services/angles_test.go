package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"anglehub/models"
)

func TestGenerateExtractsAndSavesIdeas(t *testing.T) {
	store := newFakeStore()
	llm := &fakeCompleter{script: []fakeReply{
		{text: "1. Angle: \"The Desk Your Back Has Been Begging For\"\n   Explanation: Pain-first.\n2. Angle: \"Finally, A Desk That Remembers You\"\n   Explanation: Memory presets."},
	}}
	svc := newTestService(store, llm)

	result, err := svc.Generate(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.IdeasExtracted != 2 {
		t.Errorf("Expected 2 extracted ideas, got %d", result.IdeasExtracted)
	}
	if len(store.ideas) != 2 {
		t.Fatalf("Expected 2 persisted ideas, got %d", len(store.ideas))
	}
	if store.ideas[0].Content != "The Desk Your Back Has Been Begging For" {
		t.Errorf("Unexpected first idea: %q", store.ideas[0].Content)
	}

	generations := store.messagesOfType(models.MessageTypeIdeaGeneration)
	if len(generations) != 1 || generations[0].Content != result.Content {
		t.Errorf("Expected the raw response saved as a generation message")
	}
	if generations[0].Role != models.RoleAssistant {
		t.Errorf("Expected assistant role, got %q", generations[0].Role)
	}
}

func TestGenerateExtractionMissIsStillSuccess(t *testing.T) {
	store := newFakeStore()
	llm := &fakeCompleter{script: []fakeReply{
		{text: "The model rambled in prose without any numbered list."},
	}}
	svc := newTestService(store, llm)

	result, err := svc.Generate(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("An extraction miss must not fail generation: %v", err)
	}
	if result.IdeasExtracted != 0 {
		t.Errorf("Expected 0 ideas, got %d", result.IdeasExtracted)
	}
	if len(store.messagesOfType(models.MessageTypeIdeaGeneration)) != 1 {
		t.Error("The response must still be saved as a message")
	}
}

func TestGenerateSkipsFailedIdeaSaves(t *testing.T) {
	store := newFakeStore()
	store.ideaSaveErr = errors.New("disk on fire")
	llm := &fakeCompleter{script: []fakeReply{
		{text: "1. Angle: \"The Desk Your Back Has Been Begging For\""},
	}}
	svc := newTestService(store, llm)

	result, err := svc.Generate(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("A persistence failure per idea must not fail generation: %v", err)
	}
	if result.IdeasExtracted != 0 {
		t.Errorf("Expected 0 persisted ideas, got %d", result.IdeasExtracted)
	}
}

func TestGenerateConversationNotFound(t *testing.T) {
	store := newFakeStore()
	llm := &fakeCompleter{}
	svc := newTestService(store, llm)

	if _, err := svc.Generate(context.Background(), "missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("Expected ErrConversationNotFound, got %v", err)
	}
	if len(llm.calls) != 0 {
		t.Errorf("Expected zero provider calls, got %d", len(llm.calls))
	}
}

func TestEvaluateIdeaPersistsScoreAndMessage(t *testing.T) {
	store := newFakeStore()
	store.addIdea("idea-1", "The Desk Your Back Has Been Begging For")
	llm := &fakeCompleter{script: []fakeReply{
		{text: "**Overall Rating:** solid\n\n7.5/10 on the formula."},
	}}
	svc := newTestService(store, llm)

	result, err := svc.EvaluateIdea(context.Background(), "conv-1", "idea-1")
	if err != nil {
		t.Fatalf("EvaluateIdea failed: %v", err)
	}

	if result.OverallScore == nil || *result.OverallScore != 7.5 {
		t.Errorf("Expected score 7.5, got %v", result.OverallScore)
	}
	if result.EvaluationID == "" {
		t.Error("Expected a persisted evaluation id")
	}
	if len(store.evaluations) != 1 || store.evaluations[0].IdeaID != "idea-1" {
		t.Fatalf("Expected one evaluation for idea-1, got %+v", store.evaluations)
	}
	if len(store.messagesOfType(models.MessageTypeEvaluation)) != 1 {
		t.Error("Expected the evaluation saved as an assistant message")
	}
}

func TestEvaluateIdeaNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeCompleter{})

	if _, err := svc.EvaluateIdea(context.Background(), "conv-1", "missing"); !errors.Is(err, ErrIdeaNotFound) {
		t.Fatalf("Expected ErrIdeaNotFound, got %v", err)
	}
}

func TestEvaluateIdeaRefusesSecondEvaluation(t *testing.T) {
	store := newFakeStore()
	store.addIdea("idea-1", "The Desk Your Back Has Been Begging For")
	store.evaluations = append(store.evaluations, models.Evaluation{ID: "eval-1", IdeaID: "idea-1", Notes: "done"})
	llm := &fakeCompleter{}
	svc := newTestService(store, llm)

	if _, err := svc.EvaluateIdea(context.Background(), "conv-1", "idea-1"); !errors.Is(err, ErrAlreadyEvaluated) {
		t.Fatalf("Expected ErrAlreadyEvaluated, got %v", err)
	}
	if len(llm.calls) != 0 {
		t.Errorf("Expected zero provider calls, got %d", len(llm.calls))
	}
}

func TestEvaluateOwnAngleRejectsShortText(t *testing.T) {
	store := newFakeStore()
	llm := &fakeCompleter{}
	svc := newTestService(store, llm)

	_, err := svc.EvaluateOwnAngle(context.Background(), "conv-1", "123456789") // 9 runes
	if !errors.Is(err, ErrAngleTooShort) {
		t.Fatalf("Expected ErrAngleTooShort, got %v", err)
	}
	if len(store.ideas) != 0 || len(llm.calls) != 0 {
		t.Error("Rejection must happen before any persistence or provider call")
	}
}

func TestEvaluateOwnAngleTagsAndEvaluates(t *testing.T) {
	store := newFakeStore()
	llm := &fakeCompleter{script: []fakeReply{
		{text: "Overall Rating: 9/10\nBold and specific."},
	}}
	svc := newTestService(store, llm)

	result, err := svc.EvaluateOwnAngle(context.Background(), "conv-1", "  My Hand-Written Marketing Angle  ")
	if err != nil {
		t.Fatalf("EvaluateOwnAngle failed: %v", err)
	}

	if len(store.ideas) != 1 {
		t.Fatalf("Expected the own angle persisted, got %d ideas", len(store.ideas))
	}
	if store.ideas[0].Framework != models.FrameworkOwn {
		t.Errorf("Expected framework %q, got %q", models.FrameworkOwn, store.ideas[0].Framework)
	}
	if store.ideas[0].Content != "My Hand-Written Marketing Angle" {
		t.Errorf("Expected trimmed content, got %q", store.ideas[0].Content)
	}
	if result.OverallScore == nil || *result.OverallScore != 9 {
		t.Errorf("Expected score 9, got %v", result.OverallScore)
	}
}

func TestGenerateFinalSavesMessage(t *testing.T) {
	store := newFakeStore()
	llm := &fakeCompleter{script: []fakeReply{
		{text: "Three final angles, clearly numbered."},
	}}
	svc := newTestService(store, llm)

	result, err := svc.GenerateFinal(context.Background(), "conv-1",
		[]string{"First idea", "Second idea"},
		[]string{"First evaluation", "Second evaluation"})
	if err != nil {
		t.Fatalf("GenerateFinal failed: %v", err)
	}
	if result.Content != "Three final angles, clearly numbered." {
		t.Errorf("Unexpected content: %q", result.Content)
	}

	// Synthesis only: no extraction, no new ideas.
	if len(store.ideas) != 0 {
		t.Errorf("GenerateFinal must not extract ideas, got %d", len(store.ideas))
	}
	if len(store.messagesOfType(models.MessageTypeIdeaGeneration)) != 1 {
		t.Error("Expected the synthesis response saved as a message")
	}

	prompt := llm.calls[0].messages[1].Content
	for _, fragment := range []string{"First idea", "Second evaluation", store.conversation.description} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("Synthesis prompt missing %q", fragment)
		}
	}
}

func TestContinueChatBuildsContextAndHistory(t *testing.T) {
	store := newFakeStore()
	idea := store.addIdea("idea-1", "The Desk Your Back Has Been Begging For")
	score := 8.0
	store.evaluations = append(store.evaluations, models.Evaluation{
		ID: "eval-1", IdeaID: idea.ID, OverallScore: &score,
		Notes: strings.Repeat("n", 500),
	})
	for i := 0; i < 30; i++ {
		store.messages = append(store.messages, models.Message{
			ConversationID: "conv-1",
			Role:           models.RoleUser,
			Content:        fmt.Sprintf("older message %d", i),
			MessageType:    models.MessageTypeChat,
		})
	}

	llm := &fakeCompleter{script: []fakeReply{
		{text: "Here is a sharper version of that angle."},
	}}
	svc := newTestService(store, llm)

	result, err := svc.ContinueChat(context.Background(), "conv-1", "Can you punch up the first angle?")
	if err != nil {
		t.Fatalf("ContinueChat failed: %v", err)
	}
	if result.Content != "Here is a sharper version of that angle." {
		t.Errorf("Unexpected reply: %q", result.Content)
	}

	sent := llm.calls[0].messages
	// System context, 24 most recent stored messages, then the new turn.
	if len(sent) != 1+chatHistoryLimit+1 {
		t.Fatalf("Expected %d messages, got %d", 1+chatHistoryLimit+1, len(sent))
	}
	system := sent[0].Content
	if !strings.Contains(system, store.conversation.description) {
		t.Error("System context missing the product description")
	}
	if !strings.Contains(system, idea.Content) {
		t.Error("System context missing the angle text")
	}
	if !strings.Contains(system, "score: 8/10") {
		t.Errorf("System context missing the score: %q", system)
	}
	if !strings.Contains(system, strings.Repeat("n", 400)+"...") {
		t.Error("Evaluation notes must be truncated to 400 characters")
	}
	if strings.Contains(system, strings.Repeat("n", 401)) {
		t.Error("Evaluation notes exceeded the truncation limit")
	}
	if sent[1].Content != "older message 6" {
		t.Errorf("Expected history to start at the 24th most recent message, got %q", sent[1].Content)
	}
	if sent[len(sent)-1].Content != "Can you punch up the first angle?" {
		t.Errorf("Expected the new user message last, got %q", sent[len(sent)-1].Content)
	}

	// Both sides of the turn are persisted.
	chats := store.messagesOfType(models.MessageTypeChat)
	if len(chats) != 32 {
		t.Fatalf("Expected 32 chat messages after the turn, got %d", len(chats))
	}
	if chats[len(chats)-1].Role != models.RoleAssistant {
		t.Error("Expected the assistant reply persisted last")
	}
}
