package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	Environment string
	HTTPAddr    string

	// WhatsApp Cloud API
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WebhookVerifyToken    string
	AdminPhone            string

	// LLM (OpenAI-compatible endpoint, e.g. Groq)
	LLMAPIKey    string
	LLMBaseURL   string
	LLMModel     string
	LLMMaxTokens int

	// Embeddings for the retrieval fallback. Key/URL default to the LLM
	// settings but can point at a different provider.
	EmbedAPIKey     string
	EmbedBaseURL    string
	EmbedModel      string
	EmbedDimensions int

	SessionTTL time.Duration
}

func Load() (*Config, error) {
	// Load .env if present, otherwise rely on the environment.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:                 os.Getenv("DB_DSN"),
		Environment:           os.Getenv("ENV"),
		HTTPAddr:              os.Getenv("HTTP_ADDR"),
		WhatsAppToken:         os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WebhookVerifyToken:    os.Getenv("WEBHOOK_VERIFY_TOKEN"),
		AdminPhone:            os.Getenv("SCHOOL_ADMIN_PHONE"),
		LLMAPIKey:             os.Getenv("LLM_API_KEY"),
		LLMBaseURL:            os.Getenv("LLM_BASE_URL"),
		LLMModel:              os.Getenv("LLM_MODEL"),
		EmbedAPIKey:           os.Getenv("EMBED_API_KEY"),
		EmbedBaseURL:          os.Getenv("EMBED_BASE_URL"),
		EmbedModel:            os.Getenv("EMBED_MODEL"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "llama-3.1-8b-instant"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.EmbedAPIKey == "" {
		cfg.EmbedAPIKey = os.Getenv("LLM_API_KEY")
	}

	cfg.LLMMaxTokens = envInt("LLM_MAX_TOKENS", 200)
	cfg.EmbedDimensions = envInt("EMBED_DIMENSIONS", 1536)
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_SECONDS", 120)) * time.Second

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required but not set")
	}

	return cfg, nil
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}
