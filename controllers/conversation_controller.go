package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"anglehub/db"
	"anglehub/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// titleLength is how much of the product description seeds the derived title.
const titleLength = 80

// ConversationController serves the conversation CRUD surface.
type ConversationController struct {
	Store       *db.Store
	Development bool
}

func NewConversationController(store *db.Store, development bool) *ConversationController {
	return &ConversationController{Store: store, Development: development}
}

type createConversationRequest struct {
	ProductDescription string `json:"productDescription"`
}

// CreateConversation creates a conversation from a product description. The
// description is immutable afterwards; the title is derived from it here.
func (ctl *ConversationController) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	description := strings.TrimSpace(req.ProductDescription)
	if description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product description is required"})
		return
	}

	conversation := models.Conversation{
		ProductDescription: description,
		Title:              deriveTitle(description),
	}
	if err := ctl.Store.CreateConversation(&conversation); err != nil {
		log.Printf("Error creating conversation: %v", err)
		ctl.internalError(c, "Failed to create conversation", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": conversation.ID})
}

// ListConversations returns the newest conversations for the browse page.
func (ctl *ConversationController) ListConversations(c *gin.Context) {
	conversations, err := ctl.Store.ListConversations()
	if err != nil {
		log.Printf("Error fetching conversations: %v", err)
		ctl.internalError(c, "Failed to fetch conversations", err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetConversation returns one conversation with its messages and ideas.
func (ctl *ConversationController) GetConversation(c *gin.Context) {
	conversation, err := ctl.Store.GetConversationDetail(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		log.Printf("Error fetching conversation: %v", err)
		ctl.internalError(c, "Failed to fetch conversation", err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (ctl *ConversationController) internalError(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if ctl.Development {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

func deriveTitle(description string) string {
	runes := []rune(description)
	if len(runes) <= titleLength {
		return description
	}
	return strings.TrimSpace(string(runes[:titleLength])) + "..."
}
