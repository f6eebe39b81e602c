package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Mail     MailConfig
	Paths    PathsConfig
	Extract  ExtractConfig
	TOC      TOConlineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// OCRConfig holds text-acquisition tooling configuration
type OCRConfig struct {
	Tesseract     string
	Pdftotext     string
	Pdftoppm      string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// MailConfig holds IMAP polling configuration
type MailConfig struct {
	IMAPHost string
	IMAPPort int
	User     string
	Password string
	Mailbox  string
	Schedule string // cron spec, e.g. "@every 5m"
}

// PathsConfig holds data directory layout
type PathsConfig struct {
	DataDir      string // base for uploads/extracted output
	UploadsDir   string
	ExtractedDir string
	ConfigDir    string // classificacao CSVs, vocab override, centros list
	WatchDirs    []string
}

// ExtractConfig holds extraction-engine tuning
type ExtractConfig struct {
	VocabPath string // optional YAML vocabulary override
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// TOConlineConfig holds the accounting-platform OAuth client settings
type TOConlineConfig struct {
	OAuthBase    string
	APIBase      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	TokenPath    string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	dataDir := getEnv("FACTURAS_DATA_DIR", "./dados")
	configDir := getEnv("FACTURAS_CONFIG_DIR", "./config")
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "por+eng"),
			DPI:           getEnvAsInt("OCR_DPI", 150),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Mail: MailConfig{
			IMAPHost: getEnv("EMAIL_IMAP_HOST", ""),
			IMAPPort: getEnvAsInt("EMAIL_IMAP_PORT", 993),
			User:     getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			Mailbox:  getEnv("EMAIL_MAILBOX", "INBOX"),
			Schedule: getEnv("EMAIL_POLL_SCHEDULE", "@every 5m"),
		},
		Paths: PathsConfig{
			DataDir:      dataDir,
			UploadsDir:   getEnv("FACTURAS_UPLOADS_DIR", dataDir+"/uploads"),
			ExtractedDir: getEnv("FACTURAS_EXTRACTED_DIR", dataDir+"/facturas_extraidas"),
			ConfigDir:    configDir,
			WatchDirs:    getEnvAsList("FACTURAS_WATCH_DIRS", nil),
		},
		Extract: ExtractConfig{
			VocabPath: getEnv("EXTRACT_VOCAB_PATH", ""),
			Workers:   getEnvAsInt("EXTRACT_WORKERS", 4),
			QueueSize: getEnvAsInt("EXTRACT_QUEUE_SIZE", 256),
			Timeout:   getEnvAsDuration("EXTRACT_TIMEOUT", 3*time.Minute),
		},
		TOC: TOConlineConfig{
			OAuthBase:    getEnv("TOCONLINE_OAUTH_BASE", "https://app17.toconline.pt/oauth"),
			APIBase:      getEnv("TOCONLINE_API_BASE", "https://api17.toconline.pt"),
			ClientID:     getEnv("TOCONLINE_CLIENT_ID", ""),
			ClientSecret: getEnv("TOCONLINE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("TOCONLINE_REDIRECT_URI", "http://localhost:8080/callback"),
			Scope:        getEnv("TOCONLINE_SCOPE", "commercial"),
			TokenPath:    getEnv("TOCONLINE_TOKEN_PATH", configDir+"/secrets/toconline_token.json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

// Validate checks the parts of the configuration that have no usable default.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
