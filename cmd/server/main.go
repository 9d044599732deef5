package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"openshelf/pkg/assistant"
	"openshelf/pkg/catalog"
	"openshelf/pkg/conversations"
	"openshelf/pkg/database"
	"openshelf/pkg/ledger"
	"openshelf/pkg/lending"
	"openshelf/pkg/profile"
)

var (
	db           *gorm.DB
	catalogStore *catalog.Store
	ledgerStore  *ledger.Store
	engine       *lending.Engine
	profiles     *profile.Aggregator
	convStore    *conversations.Store
	bot          *assistant.Assistant
)

func main() {
	godotenv.Load(".env.local")

	log.Println("Starting openshelf server...")

	db = database.Init()
	wireServices(db)
	seedDemoData()

	model := getEnv("GEMINI_MODEL", "gemini-2.0-flash")
	client, err := assistant.NewGeminiClient(context.Background(), model)
	if err != nil {
		log.Printf("Failed to initialize assistant client: %v", err)
		log.Println("Chat will answer with catalog listings only")
	} else {
		bot = assistant.New(client)
		log.Printf("Assistant initialized with model %s", model)
	}

	if getEnv("ENV", "") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := setupRouter()

	port := getEnv("PORT", "8080")
	log.Printf("openshelf server starting on :%s", port)
	if err := server.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func wireServices(database *gorm.DB) {
	catalogStore = catalog.New(database)
	ledgerStore = ledger.New(database)
	engine = lending.New(database, ledgerStore, policyFromEnv())
	profiles = profile.New(database, ledgerStore)
	convStore = conversations.New(database)
}

func policyFromEnv() lending.Config {
	cfg := lending.DefaultConfig()
	if v, err := strconv.Atoi(getEnv("LOAN_PERIOD_DAYS", "")); err == nil && v > 0 {
		cfg.LoanPeriodDays = v
	}
	if v, err := strconv.ParseFloat(getEnv("OVERDUE_RATE_PER_DAY", ""), 64); err == nil && v >= 0 {
		cfg.OverdueRatePerDay = v
	}
	if v, err := strconv.Atoi(getEnv("HOLD_WINDOW_HOURS", "")); err == nil && v > 0 {
		cfg.HoldWindowHours = v
	}
	return cfg
}

func setupRouter() *gin.Engine {
	server := gin.Default()

	allowedOrigins := []string{"http://localhost:5173"}
	if extra := os.Getenv("ALLOWED_ORIGINS"); extra != "" {
		allowedOrigins = append(allowedOrigins, strings.Split(extra, ",")...)
	}
	server.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-User-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	chatLimiter := newIPRateLimiter(rate.Every(2*time.Second), 3)

	api := server.Group("/api/v1")
	{
		api.GET("/libraries", getLibraries)
		api.GET("/libraries/:libraryUid", getLibrary)
		api.POST("/libraries/:libraryUid/visit", visitLibrary)
		api.GET("/libraries/:libraryUid/books", getLibraryBooks)
		api.GET("/libraries/:libraryUid/categories", getLibraryCategories)

		api.GET("/books", getBooks)
		api.GET("/books/:bookUid", getBook)
		api.POST("/books/:bookUid/borrow", borrowBook)
		api.POST("/books/:bookUid/return", returnBook)
		api.POST("/books/:bookUid/reserve", reserveBook)

		api.GET("/transactions", getTransactions)

		api.GET("/users", getUsers)
		api.POST("/users", createUser)
		api.GET("/users/:userUid", getUser)
		api.PATCH("/users/:userUid", updateUser)
		api.GET("/users/:userUid/summary", getUserSummary)
		api.POST("/users/:userUid/favorites/:bookUid", addFavorite)
		api.DELETE("/users/:userUid/favorites/:bookUid", removeFavorite)

		api.GET("/conversations", listConversations)
		api.POST("/conversations", createConversation)
		api.GET("/conversations/:conversationUid", getConversation)
		api.PATCH("/conversations/:conversationUid", renameConversation)
		api.DELETE("/conversations/:conversationUid", deleteConversation)
		api.POST("/conversations/:conversationUid/messages", rateLimit(chatLimiter), postMessage)
		api.GET("/conversations/:conversationUid/chunks", getChunks)
	}
	server.GET("/manage/health", healthCheck)

	return server
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
