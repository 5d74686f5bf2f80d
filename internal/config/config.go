package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Env               string
	Port              string
	BaseURL           string
	DBDriver          string
	DBDSN             string
	DBLogLevel        string
	JWTSecret         string
	JWTTTL            time.Duration
	UploadDir         string
	MaxUploadMB       int64
	AllowRegistration bool
	CORSOrigins       []string
	GeminiAPIKey      string
	GeminiModel       string
}

// IsDevelopment reports whether APP_ENV asks for development behaviour.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables with reasonable defaults.
// Call godotenv.Load first if a .env file should be honoured.
func Load() Config {
	port := getenv("PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Printf("invalid JWT_TTL value %q, defaulting to %s", raw, ttl)
		} else {
			ttl = d
		}
	}

	maxUpload := int64(10)
	if raw := os.Getenv("MAX_UPLOAD_MB"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			log.Printf("invalid MAX_UPLOAD_MB value %q, defaulting to %d", raw, maxUpload)
		} else {
			maxUpload = n
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Println("JWT_SECRET not set, using an insecure development secret")
		secret = "dev_secret_change_me"
	}

	return Config{
		Env:               getenv("APP_ENV", "production"),
		Port:              port,
		BaseURL:           getenv("BASE_URL", "http://localhost:"+port),
		DBDriver:          strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBDSN:             os.Getenv("DB_DSN"),
		DBLogLevel:        strings.ToLower(getenv("DB_LOG_LEVEL", "warn")),
		JWTSecret:         secret,
		JWTTTL:            ttl,
		UploadDir:         getenv("UPLOAD_DIR", "./uploads"),
		MaxUploadMB:       maxUpload,
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenv("GEMINI_MODEL", "gemini-2.0-flash-001"),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
