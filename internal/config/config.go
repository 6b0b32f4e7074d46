package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
)

type Config struct {
	Port       int
	DBDriver   string
	DBDsn      string
	JWTSecret  string
	JWTTTL     int64
	CookieName string

	AdminInitUser string
	AdminInitPass string

	RateLimitRPS   int
	RateLimitBurst int

	// Content moderation
	ModerationEnabled     bool
	GeminiAPIKey          string
	GeminiModel           string
	ToxicityFlagThreshold float64
	RomanianContext       bool
	ClassifierTimeoutSec  int
	AIRateRPS             int
	AIRateBurst           int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func generateJWTSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}

func Load() *Config {
	jwtSecret := getenv("JWT_SECRET", "")
	if jwtSecret == "" || jwtSecret == "please_change_me" {
		jwtSecret = generateJWTSecret()
	}

	return &Config{
		Port:       getint("PORT", 8000),
		DBDriver:   getenv("DB_DRIVER", "sqlite"),
		DBDsn:      getenv("DB_DSN", "./data/app.db"),
		JWTSecret:  jwtSecret,
		JWTTTL:     getint64("JWT_TTL", 86400),
		CookieName: getenv("COOKIE_NAME", "auth_token"),

		AdminInitUser: getenv("ADMIN_INIT_USER", ""),
		AdminInitPass: getenv("ADMIN_INIT_PASS", ""),

		RateLimitRPS:   getint("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getint("RATE_LIMIT_BURST", 40),

		ModerationEnabled:     getbool("MODERATION_ENABLED", true),
		GeminiAPIKey:          getenv("GEMINI_API_KEY", ""),
		GeminiModel:           getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		ToxicityFlagThreshold: getfloat("TOXICITY_THRESHOLD_FLAG", 0.2),
		RomanianContext:       getbool("ROMANIAN_CONTEXT", true),
		ClassifierTimeoutSec:  getint("CLASSIFIER_TIMEOUT_SEC", 10),
		AIRateRPS:             getint("AI_RATE_RPS", 0),
		AIRateBurst:           getint("AI_RATE_BURST", 0),
	}
}
