package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-pos/internal/ai"
	"clinic-pos/internal/auth"
	"clinic-pos/internal/config"
	"clinic-pos/internal/database"
	"clinic-pos/internal/handlers"
	"clinic-pos/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := newLogger(cfg)
	defer log.Sync()
	if envErr != nil {
		log.Info("no .env file found, using process environment")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatal("upload directory unavailable", zap.Error(err))
	}

	var assistant handlers.Assistant
	if cfg.GeminiAPIKey != "" {
		agent, err := ai.NewAgent(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, ai.NewTools(db))
		if err != nil {
			log.Fatal("AI assistant setup failed", zap.Error(err))
		}
		defer agent.Close()
		assistant = agent
	} else {
		log.Info("GEMINI_API_KEY not set, /api/ask is disabled")
	}

	if cfg.AllowRegistration {
		log.Warn("registration route is OPEN, disable ALLOW_REGISTRATION in production")
	}

	h := handlers.New(db, store, log, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), assistant, cfg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(cfg.UploadDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsDevelopment() {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}
