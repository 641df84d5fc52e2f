package routes

import (
	"anglehub/controllers"
	"anglehub/websocket"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes sets up the chat actions endpoint and the batch progress
// websocket feed.
func SetupChatRoutes(router *gin.Engine, ctl *controllers.ChatController, broker *websocket.ProgressBroker) {
	router.POST("/chat", ctl.Chat)
	router.GET("/ws/progress", broker.ProgressHandler)
}
