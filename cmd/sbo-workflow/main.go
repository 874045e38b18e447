package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/config"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/middleware"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/handler"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/repository"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/shared/mailer"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting sbo-workflow service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&repository.ProcessRecord{},
		&repository.NoteRecord{},
		&repository.PCREmailRecord{},
		&entity.Org{},
		&entity.User{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	repos := repository.NewRepositories(db)

	if err := repos.Org.Seed(context.Background(), defaultOrgs); err != nil {
		zapLogger.Warn("Org seeding warning", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)
	if rdb != nil {
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, org cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	minioClient := initMinIO(cfg.MinIO, zapLogger)

	mail := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)

	services := service.New(service.Deps{
		Repos: repos,
		Redis: rdb,
		Minio: minioClient,
		Mail:  mail,
		Log:   zapLogger,

		BaseURL:        cfg.App.BaseURL,
		MailFrom:       cfg.SMTP.From,
		DocumentBucket: cfg.MinIO.Bucket,
		PageSize:       cfg.App.PageSize,
		PCRInterval:    cfg.App.PCRInterval,
	})

	if services.Document != nil {
		if err := services.Document.EnsureBucket(context.Background()); err != nil {
			zapLogger.Warn("Document bucket check failed", zap.Error(err))
		}
	}

	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go services.PCRWorker.Run(workerCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// defaultOrgs seeds the org reference rows on first boot; existing rows are
// left alone.
var defaultOrgs = []entity.Org{
	{Title: "AFLCMC/HB", ParentOrg: entity.ParentOrgAFMC},
	{Title: "AFLCMC/HI", ParentOrg: entity.ParentOrgAFMC},
	{Title: "AFLCMC/WA", ParentOrg: entity.ParentOrgAFMC},
	{Title: "AFSC/LG", ParentOrg: entity.ParentOrgAFMC},
	{Title: "ACC/A7K", ParentOrg: entity.ParentOrgACC},
	{Title: "ACC/AMIC", ParentOrg: entity.ParentOrgACC},
	{Title: "AETC/PK", ParentOrg: entity.ParentOrgAETC},
	{Title: "AMC/PK", ParentOrg: entity.ParentOrgAMC},
	{Title: "SSC/PK", ParentOrg: entity.ParentOrgUSSF},
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initMinIO(cfg config.MinIOConfig, zapLogger *zap.Logger) *minio.Client {
	if cfg.Endpoint == "" {
		zapLogger.Info("MinIO not configured, document storage disabled")
		return nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		zapLogger.Warn("MinIO init failed, document storage disabled", zap.Error(err))
		return nil
	}
	return client
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": Version})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		processes := api.Group("/processes")
		{
			processes.GET("", h.Process.List)
			processes.POST("", h.Process.Create)
			processes.POST("/page", h.Process.Page)
			processes.POST("/filter", h.Process.Filter)
			processes.POST("/sort", h.Process.Sort)
			processes.GET("/:id", h.Process.Get)
			processes.PUT("/:id", h.Process.Update)
			processes.DELETE("/:id", middleware.RequireRole("sbp"), h.Process.Delete)
			processes.POST("/:id/transition", h.Process.Transition)
			processes.GET("/:id/targets", h.Process.Targets)
			processes.GET("/:id/pcr-status", h.Process.PCRStatus)

			processes.GET("/:id/notes", h.Note.List)
			processes.POST("/:id/notes", h.Note.Create)

			processes.GET("/:id/documents", h.Document.List)
			processes.POST("/:id/documents", h.Document.Upload)
			processes.DELETE("/:id/documents/:name", h.Document.Delete)
		}

		lookup := api.Group("/lookup")
		{
			lookup.GET("/orgs", h.Lookup.Orgs)
			lookup.GET("/enums", h.Lookup.Enums)
			lookup.GET("/users", h.Lookup.SearchUsers)
			lookup.GET("/users/:id", h.Lookup.UserByID)
		}

		api.GET("/me", h.Lookup.Me)

		api.GET("/reports/processes", h.Report.Export)
	}
}
