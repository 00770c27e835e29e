package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	BaseURL        string
	StorageBackend string
	DatabaseURL    string
	JWTSecret      string
	SessionSecret  string

	PaypalClientID     string
	PaypalClientSecret string
	PaypalWebhookID    string
	PaypalBaseURL      string

	PesapalConsumerKey    string
	PesapalConsumerSecret string
	PesapalBaseURL        string

	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaShortcode      string
	MpesaPasskey        string
	MpesaCallbackURL    string
	MpesaBaseURL        string

	AwsRegion string
	S3Bucket  string

	AdminEmail    string
	AdminPassword string

	UsdToKesRate float64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:           env("PORT", "8080"),
		Env:            env("ENV", "dev"),
		BaseURL:        env("BASE_URL", "http://localhost:8080"),
		StorageBackend: env("STORAGE_BACKEND", "postgres"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionSecret:  strings.TrimSpace(os.Getenv("SESSION_SECRET")),

		PaypalClientID:     strings.TrimSpace(os.Getenv("PAYPAL_CLIENT_ID")),
		PaypalClientSecret: strings.TrimSpace(os.Getenv("PAYPAL_CLIENT_SECRET")),
		PaypalWebhookID:    strings.TrimSpace(os.Getenv("PAYPAL_WEBHOOK_ID")),
		PaypalBaseURL:      env("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),

		PesapalConsumerKey:    strings.TrimSpace(os.Getenv("PESAPAL_CONSUMER_KEY")),
		PesapalConsumerSecret: strings.TrimSpace(os.Getenv("PESAPAL_CONSUMER_SECRET")),
		PesapalBaseURL:        env("PESAPAL_BASE_URL", "https://cybqa.pesapal.com/pesapalv3"),

		MpesaConsumerKey:    strings.TrimSpace(os.Getenv("MPESA_CONSUMER_KEY")),
		MpesaConsumerSecret: strings.TrimSpace(os.Getenv("MPESA_CONSUMER_SECRET")),
		MpesaShortcode:      strings.TrimSpace(os.Getenv("MPESA_SHORTCODE")),
		MpesaPasskey:        strings.TrimSpace(os.Getenv("MPESA_PASSKEY")),
		MpesaCallbackURL:    strings.TrimSpace(os.Getenv("MPESA_CALLBACK_URL")),
		MpesaBaseURL:        env("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),

		AwsRegion: strings.TrimSpace(os.Getenv("AWS_REGION")),
		S3Bucket:  strings.TrimSpace(os.Getenv("S3_BUCKET")),

		AdminEmail:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		UsdToKesRate: envFloat("USD_TO_KES_RATE", 129.50),
	}

	switch cfg.StorageBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL not set")
		}
	case "memory":
	default:
		return Config{}, errors.New("STORAGE_BACKEND must be postgres or memory")
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET not set")
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
