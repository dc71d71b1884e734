package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/socraticbse/backend/config"
	"github.com/socraticbse/backend/database"
	"github.com/socraticbse/backend/handlers"
	concept_handlers "github.com/socraticbse/backend/handlers/concept"
	session_handlers "github.com/socraticbse/backend/handlers/session"
	"github.com/socraticbse/backend/services"
	"github.com/socraticbse/backend/services/groq"
	"github.com/socraticbse/backend/utils/cache"
)

func SetupRoutes(app *fiber.App, store *database.GORMStore, sessionStore *database.SessionStore, catalog *services.Catalog) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load environment configuration")
	}

	// Redis is best-effort; the service runs without it
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Caching will be disabled.", err)
			redisCache = nil
		}
	}

	generator := groq.NewClient(groq.Config{
		APIKey:  getEnv.GROQ_API_KEY,
		BaseURL: getEnv.GROQ_API_URL,
		Model:   getEnv.GROQ_MODEL,
		Timeout: 30 * time.Second,
	})

	sessionService := services.NewSessionService(sessionStore, catalog, generator, redisCache)

	sessionHandler := session_handlers.NewSessionHandler(sessionService)
	conceptHandler := concept_handlers.NewConceptHandler(catalog)
	healthHandler := handlers.NewHealthHandler(store, sessionService)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	v1 := app.Group("/api/v1")

	v1.Get("/health", healthHandler.CheckHealth)
	v1.Get("/concepts", conceptHandler.ListConcepts)

	sessions := v1.Group("/sessions")
	sessions.Post("/", sessionHandler.StartSession)
	sessions.Post("/:id/turns", sessionHandler.SubmitTurn)
	sessions.Get("/:id/hint", sessionHandler.GetHint)
	sessions.Post("/:id/retry", sessionHandler.Retry)
	sessions.Post("/:id/skip", sessionHandler.Skip)
	sessions.Get("/:id/reflection", sessionHandler.GetReflection)
	sessions.Get("/:id/progress", sessionHandler.GetProgress)
}
