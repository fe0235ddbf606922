package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docsearch/internal/config"
	"docsearch/internal/database"
	"docsearch/internal/middleware"
	"docsearch/internal/modules/files"
	"docsearch/internal/modules/search"
	"docsearch/internal/pkg/authgw"
	"docsearch/internal/pkg/filesearch"
	"docsearch/internal/pkg/logger"
	"docsearch/internal/repository"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	if cfg.DatabaseURL == "" {
		zlog.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	// A broken schema must stop the process here, not surface later as 500s.
	if err := database.InitSchema(db); err != nil {
		zlog.Fatal("schema initialization failed", zap.Error(err))
	}

	authClient := authgw.New(cfg.AuthBaseURL, zlog)
	searchClient := filesearch.New(cfg.GeminiAPIKey, zlog)

	fileRepo := repository.NewFileUploadRepository(db)
	storageRepo := repository.NewUserStorageRepository(db)
	resolver := files.NewStoreResolver(fileRepo, searchClient)

	filesService := files.NewService(db, fileRepo, storageRepo, searchClient, resolver, zlog)
	filesHandler := files.NewHandler(filesService)

	searchService := search.NewService(fileRepo, searchClient, resolver, zlog)
	searchHandler := search.NewHandler(searchService)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorLogger(zlog))
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":              "healthy",
			"auth_base_url":       cfg.AuthBaseURL,
			"database_configured": cfg.DatabaseConfigured(),
			"search_configured":   cfg.SearchConfigured(),
		})
	})

	protected := r.Group("/")
	protected.Use(middleware.BearerAuth(authClient, zlog))
	{
		files.RegisterRoutes(protected, filesHandler)
		search.RegisterRoutes(protected, searchHandler)

		protected.GET("/debug/auth-test", func(c *gin.Context) {
			info, _ := c.Get("user_info")
			payload, _ := info.(authgw.UserInfo)
			c.JSON(http.StatusOK, gin.H{
				"message":          "Authentication successful",
				"user_id":          c.GetString("user_id"),
				"available_fields": authgw.PresentFields(payload),
			})
		})
	}

	zlog.Info("starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
