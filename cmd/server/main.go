package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"BACK_FPA_GO/internal/admin"
	"BACK_FPA_GO/internal/community"
	"BACK_FPA_GO/internal/config"
	"BACK_FPA_GO/internal/content"
	"BACK_FPA_GO/internal/currency"
	"BACK_FPA_GO/internal/events"
	"BACK_FPA_GO/internal/gateway/mpesa"
	"BACK_FPA_GO/internal/gateway/paypal"
	"BACK_FPA_GO/internal/gateway/pesapal"
	"BACK_FPA_GO/internal/logging"
	"BACK_FPA_GO/internal/payments"
	"BACK_FPA_GO/internal/router"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("invalid configuration", zap.Error(err))
	}
	if err := logging.Init(cfg.Env); err != nil {
		logging.Fatal("logger init failed", zap.Error(err))
	}
	defer logging.Sync()
	log := logging.L()

	var store storage.Storage
	switch cfg.StorageBackend {
	case "memory":
		store = storage.NewMemStore()
		log.Warn("using in-memory storage; data is lost on restart")
	default:
		gs, err := storage.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		store = gs
	}

	ctx := context.Background()
	if err := admin.SeedAdmin(ctx, store, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Fatal("admin seed failed", zap.Error(err))
	}

	paypalClient := paypal.New(cfg.PaypalBaseURL, cfg.PaypalClientID, cfg.PaypalClientSecret, cfg.PaypalWebhookID)
	pesapalClient := pesapal.New(cfg.PesapalBaseURL, cfg.PesapalConsumerKey, cfg.PesapalConsumerSecret)
	mpesaClient := mpesa.New(cfg.MpesaBaseURL, cfg.MpesaConsumerKey, cfg.MpesaConsumerSecret,
		cfg.MpesaShortcode, cfg.MpesaPasskey, cfg.MpesaCallbackURL)
	converter := currency.NewConverter(cfg.UsdToKesRate)

	var uploader content.Uploader
	if cfg.S3Bucket != "" {
		s3up, err := uploads.NewS3Uploader(ctx, cfg.AwsRegion, cfg.S3Bucket)
		if err != nil {
			log.Fatal("s3 uploader init failed", zap.Error(err))
		}
		uploader = s3up
	} else {
		log.Warn("S3_BUCKET not set; media uploads disabled")
	}

	svc := payments.NewService(store, paypalClient, pesapalClient, mpesaClient, converter, log, cfg.BaseURL)

	r := router.New(router.Deps{
		Payments:  payments.NewHandler(svc, log),
		Events:    events.NewHandler(store, log),
		Content:   content.NewHandler(store, uploader, log),
		Community: community.NewHandler(store, community.NewLogNotifier(log), log),
		Admin:     admin.NewHandler(store, cfg.JWTSecret, log),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
}
