package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Lec-res/web-register-system-backend/internal/api/handler"
	"github.com/Lec-res/web-register-system-backend/internal/api/middleware"
	"github.com/Lec-res/web-register-system-backend/internal/core/service"
	"github.com/Lec-res/web-register-system-backend/internal/infrastructure/config"
	mongodb "github.com/Lec-res/web-register-system-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/Lec-res/web-register-system-backend/internal/infrastructure/db/redis"
	"github.com/Lec-res/web-register-system-backend/internal/infrastructure/http/handlers"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("register_system"))
	e.Use(middleware.Auth(cfg.JWTSecret))
	e.Use(middleware.AccessPolicy())

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	usernameCache := redisdb.NewUsernameCache(rdb)
	userService := service.NewUserService(userRepo, hasher, usernameCache, log)
	userHandler := handler.NewUserHandler(userService)

	// --- User routes ---
	users := e.Group("/api/users")
	users.POST("/login", userHandler.Login)
	users.POST("/register", userHandler.Register)
	users.GET("/check-username", userHandler.CheckUsername)
	users.GET("", userHandler.List)
	users.GET("/statistics", userHandler.Statistics)
	users.GET("/search", userHandler.Search)
	users.GET("/role/:role", userHandler.ListByRole)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
