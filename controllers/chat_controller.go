package controllers

import (
	"errors"
	"log"
	"net/http"

	"anglehub/internal/chat"
	"anglehub/services"

	"github.com/gin-gonic/gin"
)

// ChatController serves the angle operations: generate, evaluate, evaluate
// all, evaluate own, generate final, and continuation chat. The action field
// selects the operation, matching the single chat endpoint the UI talks to.
type ChatController struct {
	Service     *services.AngleService
	Limiter     *chat.RateLimiter
	Limits      chat.RateLimitConfig
	Development bool
}

func NewChatController(service *services.AngleService, limiter *chat.RateLimiter, development bool) *ChatController {
	return &ChatController{
		Service:     service,
		Limiter:     limiter,
		Limits:      chat.DefaultRateLimitConfig(),
		Development: development,
	}
}

type chatRequest struct {
	ConversationID string   `json:"conversationId" binding:"required"`
	Action         string   `json:"action" binding:"required"`
	IdeaID         string   `json:"ideaId"`
	Text           string   `json:"text"`
	Message        string   `json:"message"`
	EvaluatedIdeas []string `json:"evaluatedIdeas"`
	Evaluations    []string `json:"evaluations"`
}

// Chat dispatches one chat action.
func (ctl *ChatController) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	log.Printf("Chat action %q for conversation %s", req.Action, req.ConversationID)
	ctx := c.Request.Context()

	switch req.Action {
	case "generate":
		if !ctl.allowGeneration(c, req.ConversationID) {
			return
		}
		result, err := ctl.Service.Generate(ctx, req.ConversationID)
		ctl.respond(c, result, err)

	case "evaluate":
		if req.IdeaID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ideaId is required"})
			return
		}
		result, err := ctl.Service.EvaluateIdea(ctx, req.ConversationID, req.IdeaID)
		ctl.respond(c, result, err)

	case "evaluate_own":
		result, err := ctl.Service.EvaluateOwnAngle(ctx, req.ConversationID, req.Text)
		ctl.respond(c, result, err)

	case "evaluate_all":
		if !ctl.allowBatch(c, req.ConversationID) {
			return
		}
		result, err := ctl.Service.EvaluateAll(ctx, req.ConversationID)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"partial":     result.Partial,
			"evaluations": result.Evaluations,
			"count":       result.Count,
			"message":     result.Message,
		})

	case "generate_final":
		result, err := ctl.Service.GenerateFinal(ctx, req.ConversationID, req.EvaluatedIdeas, req.Evaluations)
		ctl.respond(c, result, err)

	case "continue":
		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		result, err := ctl.Service.ContinueChat(ctx, req.ConversationID, req.Message)
		ctl.respond(c, result, err)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

func (ctl *ChatController) allowGeneration(c *gin.Context, conversationID string) bool {
	allowed, err := ctl.Limiter.CheckGenerationRateLimit(conversationID, ctl.Limits)
	if err != nil {
		log.Printf("Rate limit check failed: %v", err)
		return true
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many generation requests, slow down"})
		return false
	}
	if err := ctl.Limiter.RecordGeneration(conversationID, ctl.Limits); err != nil {
		log.Printf("Failed to record generation for rate limiting: %v", err)
	}
	return true
}

func (ctl *ChatController) allowBatch(c *gin.Context, conversationID string) bool {
	allowed, err := ctl.Limiter.CheckBatchRateLimit(conversationID, ctl.Limits)
	if err != nil {
		log.Printf("Rate limit check failed: %v", err)
		return true
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many batch evaluations, slow down"})
		return false
	}
	if err := ctl.Limiter.RecordBatch(conversationID, ctl.Limits); err != nil {
		log.Printf("Failed to record batch for rate limiting: %v", err)
	}
	return true
}

func (ctl *ChatController) respond(c *gin.Context, result any, err error) {
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondError maps the service error taxonomy onto HTTP statuses. Quota and
// timeout get distinct retryable statuses; everything unexpected falls back to
// a generic failure with detail only in development.
func (ctl *ChatController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrConversationNotFound),
		errors.Is(err, services.ErrIdeaNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrNotConfigured):
		log.Printf("OpenAI API key is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrAllEvaluated),
		errors.Is(err, services.ErrAlreadyEvaluated),
		errors.Is(err, services.ErrAngleTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case services.IsQuota(err):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrTimedOut):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})

	default:
		log.Printf("Error in chat action: %v", err)
		body := gin.H{"error": "Failed to process request"}
		if ctl.Development {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}
