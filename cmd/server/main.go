package main

import (
	"log"
	"strconv"

	"anglehub/config"
	"anglehub/controllers"
	"anglehub/db"
	"anglehub/internal/chat"
	"anglehub/routes"
	"anglehub/services"
	"anglehub/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Secrets come from .env, the rest from the YAML file.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./config/config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := db.Connect(cfg.Database.DSN, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Redis only backs the rate limiter; without it every check allows.
	if cfg.Redis.Addr != "" {
		if err := chat.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Printf("Redis unavailable, rate limiting disabled: %v", err)
		}
	}

	gateway := services.NewOpenAIGateway(cfg.Openai.ApiKey, cfg.Openai.Model)
	service := services.NewAngleService(store, gateway)

	broker := websocket.NewProgressBroker()
	service.OnProgress = broker.Publish

	router := setupRouter(cfg, store, service, broker)
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(cfg *config.Config, store *db.Store, service *services.AngleService, broker *websocket.ProgressBroker) *gin.Engine {
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	conversationCtl := controllers.NewConversationController(store, cfg.IsDevelopment())
	chatCtl := controllers.NewChatController(service, chat.NewRateLimiter(), cfg.IsDevelopment())

	routes.SetupConversationRoutes(router, conversationCtl)
	routes.SetupChatRoutes(router, chatCtl, broker)

	return router
}
