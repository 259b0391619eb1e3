package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"sorriai/internal/app"
	"sorriai/internal/config"
	"sorriai/internal/events"
	"sorriai/internal/server"
	"sorriai/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:        cfg.DatabaseURL,
		JWTSecret:          cfg.JWTSecret,
		SessionTTL:         time.Duration(cfg.SessionTTLMinutes) * time.Minute,
		RedisAddr:          cfg.RedisAddr,
		RedisPassword:      cfg.RedisPassword,
		MinioEndpoint:      cfg.MinioEndpoint,
		MinioAccessKey:     cfg.MinioAccessKey,
		MinioSecretKey:     cfg.MinioSecretKey,
		MinioUseSSL:        cfg.MinioUseSSL,
		RawBucket:          cfg.RawBucket,
		EditedBucket:       cfg.EditedBucket,
		PhotoBucket:        cfg.PhotoBucket,
		LLMBaseURL:         cfg.LLMBaseURL,
		LLMAPIKey:          cfg.LLMAPIKey,
		LLMModel:           cfg.LLMModel,
		LLMImageModel:      cfg.LLMImageModel,
		StripeSecretKey:    cfg.StripeSecretKey,
		StripeProPriceID:   cfg.StripeProPriceID,
		CheckoutSuccessURL: cfg.CheckoutSuccessURL,
		CheckoutCancelURL:  cfg.CheckoutCancelURL,
		BillingReturnURL:   cfg.BillingReturnURL,
		Events:             publisher,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		StripeWebhookSecret:        cfg.StripeWebhookSecret,
		MaxUploadBytes:             cfg.MaxUploadBytes,
		AuthRateLimitPerMinute:     cfg.AuthRateLimitPerMinute,
		GenerateRateLimitPerMinute: cfg.GenerateRateLimitPerMinute,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Minute, // video uploads
		IdleTimeout: 60 * time.Second,
	}

	slog.Info("sorriai api listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
