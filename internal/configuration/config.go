package configuration

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost    string
	HTTPPort    string
	ListingPort string

	MaxUploadBytes    int64
	MaxIPStorageBytes int64

	ExternalURL    string
	PublicBaseURL  string
	ListingHomeURL string

	ListingUsername string
	ListingPassword string
	SessionSecret   string
	SessionTTL      time.Duration
	CredentialsFile string

	UploadDir  string
	IndexPath  string
	WebsiteDir string

	DiscordToken string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	return &Config{
		HTTPHost:    getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort:    getEnv("HTTP_PORT", "8000"),
		ListingPort: getEnv("HTTP_LISTING_PORT", "8004"),

		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", 5<<30),
		MaxIPStorageBytes: getEnvInt64("MAX_IP_STORAGE_BYTES", 80<<30),

		ExternalURL:    os.Getenv("EXTERNAL_URL"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "https://upload.dongurihub.jp"),
		ListingHomeURL: getEnv("LISTING_HOME_URL", "/"),

		ListingUsername: os.Getenv("LISTING_USERNAME"),
		ListingPassword: os.Getenv("LISTING_PASSWORD"),
		SessionSecret:   sessionSecret(),
		SessionTTL:      time.Duration(getEnvInt64("LISTING_SESSION_TTL", 12*60*60)) * time.Second,
		CredentialsFile: getEnv("LISTING_CREDENTIALS_FILE", "listing_credentials.json"),

		UploadDir:  getEnv("UPLOAD_DIR", "uploads"),
		IndexPath:  getEnv("INDEX_PATH", "file_index.json"),
		WebsiteDir: getEnv("WEBSITE_DIR", "website"),

		DiscordToken: discordToken(),
	}
}

// PublicBase is the externally advertised origin for share links printed
// outside a request context (Discord messages, the listing page).
func (c *Config) PublicBase() string {
	if c.ExternalURL != "" {
		return strings.TrimRight(c.ExternalURL, "/")
	}
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	return "http://" + c.HTTPHost + ":" + c.HTTPPort
}

// sessionSecret falls back to a random per-process secret, which means
// listing sessions do not survive a restart unless one is configured.
func sessionSecret() string {
	if secret := os.Getenv("LISTING_SESSION_SECRET"); secret != "" {
		return secret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(buf)
}

// discordToken prefers the environment but keeps reading the legacy
// token.txt the deployment ships with.
func discordToken() string {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		return token
	}
	data, err := os.ReadFile("token.txt")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		log.Printf("ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}
