package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "time/tzdata"

	_ "github.com/noah-isme/team-calendar/api/swagger"
	"github.com/noah-isme/team-calendar/internal/handler"
	"github.com/noah-isme/team-calendar/internal/middleware"
	"github.com/noah-isme/team-calendar/internal/repository"
	"github.com/noah-isme/team-calendar/internal/service"
	"github.com/noah-isme/team-calendar/pkg/cache"
	"github.com/noah-isme/team-calendar/pkg/config"
	"github.com/noah-isme/team-calendar/pkg/database"
	"github.com/noah-isme/team-calendar/pkg/export"
	"github.com/noah-isme/team-calendar/pkg/logger"
	corsmiddleware "github.com/noah-isme/team-calendar/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/team-calendar/pkg/middleware/requestid"
)

// @title Team Calendar API
// @version 1.0.0
// @description Shared team calendar with meeting rosters and availability search
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("calendar store unavailable",
			zap.String("driver", cfg.Database.Driver),
			zap.String("source", cfg.Database.Source),
			zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(context.Background(), cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, logout will not revoke tokens", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db, metricsSvc)
	tokenRepo := repository.NewTokenRepository(redisClient)

	calendarSvc := service.NewCalendarService(eventRepo, userRepo, metricsSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, tokenRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	exportSvc := service.NewExportService(calendarSvc, export.NewICSExporter(""), export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, eventRepo, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(authSvc)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", requireAuth, authHandler.Logout)

		users := api.Group("/users")
		users.POST("", middleware.OptionalJWT(authSvc), middleware.Audit(logr, "create", "user"), userHandler.Create)
		users.GET("", requireAuth, middleware.RequireManager(false), userHandler.List)
		users.GET("/:username", requireAuth, middleware.RequireManager(true), userHandler.Get)
		users.PATCH("/:username", requireAuth, middleware.Audit(logr, "update", "user"), userHandler.Update)
		users.DELETE("/:username", requireAuth, middleware.Audit(logr, "delete", "user"), userHandler.Delete)

		calendar := api.Group("/calendar", requireAuth)
		calendar.GET("", calendarHandler.Load)
		calendar.GET("/date", calendarHandler.OnDate)
		calendar.GET("/range", calendarHandler.Range)
		calendar.GET("/month", calendarHandler.Month)
		calendar.GET("/export", exportHandler.Export)
		calendar.POST("/events", middleware.Audit(logr, "create", "event"), calendarHandler.CreateEvent)
		calendar.PATCH("/events/:id", middleware.Audit(logr, "update", "event"), calendarHandler.UpdateEvent)
		calendar.DELETE("/events/:id", middleware.Audit(logr, "delete", "event"), calendarHandler.DeleteEvent)
		calendar.POST("/slots", calendarHandler.FindSlots)

		api.GET("/metrics/summary", requireAuth, middleware.RequireManager(false), metricsHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "db_driver", cfg.Database.Driver)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
