package routes

import (
	"anglehub/controllers"

	"github.com/gin-gonic/gin"
)

// SetupConversationRoutes sets up the conversation CRUD routes.
func SetupConversationRoutes(router *gin.Engine, ctl *controllers.ConversationController) {
	conversations := router.Group("/conversations")
	{
		conversations.POST("", ctl.CreateConversation)
		conversations.GET("", ctl.ListConversations)
		conversations.GET("/:id", ctl.GetConversation)
	}
}
