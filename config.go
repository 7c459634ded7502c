package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full configuration surface, loaded once at startup.
type Config struct {
	JWTSecret       []byte
	HashSalt        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieSecure    bool
	GateEnabled     bool
	DBDSN           string
	ListenAddr      string
}

// loadConfig reads ./.env if present, then the environment, applying
// development defaults for anything unset.
func loadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded")
	}

	cfg := &Config{
		JWTSecret:       []byte(envOr("JWT_SECRET", "dev-insecure-secret-change")),
		HashSalt:        envOr("HASH_SALT", "dev-salt"),
		AccessTokenTTL:  envMillis("ACCESS_TOKEN_TTL_MS", 30*time.Minute),
		RefreshTokenTTL: envMillis("REFRESH_TOKEN_TTL_MS", 14*24*time.Hour),
		CookieSecure:    envBool("COOKIE_SECURE", false),
		GateEnabled:     envBool("AUTH_GATE_ENABLED", true),
		DBDSN:           os.Getenv("DB_DSN"),
		ListenAddr:      envOr("LISTEN_ADDR", ":8081"),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1" || v == "yes"
}

func envMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
