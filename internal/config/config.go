package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL      string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBConnLifetime   time.Duration
	DBConnectTimeout time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Session
	SessionTTL      time.Duration // ログイン完了後のセッション有効期間
	LoginSessionTTL time.Duration // 二段階認証待ちのセッション有効期間

	// Settlement
	RefundableDuration time.Duration
	TransferFeeInYen   int

	// Payment
	PaymentAPIBaseURL   string
	PaymentAPISecretKey string
	PaymentAPITimeout   time.Duration

	// Image
	ImageDir string

	// Mail
	SystemEmailAddress         string
	MailSubjectApproval        string
	MailSubjectRejection       string
	MailSubjectCareerApproval  string
	MailSubjectCareerRejection string

	// Rate Limit
	RateLimitGeneral int
	RateLimitMFA     int

	// Cleanup
	RejectedRequestRetentionDays int
	CleanupInterval              time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort  string
	MetricsPort string
	BaseURL     string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	required := []struct {
		key string
		dst *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"REDIS_ADDR", &cfg.RedisAddr},
		{"PAYMENT_API_BASE_URL", &cfg.PaymentAPIBaseURL},
		{"PAYMENT_API_SECRET_KEY", &cfg.PaymentAPISecretKey},
		{"BASE_URL", &cfg.BaseURL},
	}
	for _, r := range required {
		*r.dst = os.Getenv(r.key)
		if *r.dst == "" {
			missing = append(missing, r.key)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.DBConnectTimeout = getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second)
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", time.Hour)
	cfg.LoginSessionTTL = getEnvDuration("LOGIN_SESSION_TTL", 10*time.Minute)
	cfg.RefundableDuration = getEnvDuration("REFUNDABLE_DURATION", 180*24*time.Hour)
	cfg.TransferFeeInYen = getEnvInt("TRANSFER_FEE_IN_YEN", 250)
	cfg.PaymentAPITimeout = getEnvDuration("PAYMENT_API_TIMEOUT", 10*time.Second)
	cfg.ImageDir = getEnvString("IMAGE_DIR", "/var/lib/careerconsult/images")
	cfg.SystemEmailAddress = getEnvString("SYSTEM_EMAIL_ADDRESS", "admin@localhost")
	cfg.MailSubjectApproval = getEnvString("MAIL_SUBJECT_IDENTITY_APPROVAL", "本人確認完了通知")
	cfg.MailSubjectRejection = getEnvString("MAIL_SUBJECT_IDENTITY_REJECTION", "本人確認依頼拒否通知")
	cfg.MailSubjectCareerApproval = getEnvString("MAIL_SUBJECT_CAREER_APPROVAL", "職務経歴確認完了通知")
	cfg.MailSubjectCareerRejection = getEnvString("MAIL_SUBJECT_CAREER_REJECTION", "職務経歴確認依頼拒否通知")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitMFA = getEnvInt("RATE_LIMIT_MFA", 10)
	cfg.RejectedRequestRetentionDays = getEnvInt("REJECTED_REQUEST_RETENTION_DAYS", 365)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	if cfg.TransferFeeInYen < 0 {
		return nil, fmt.Errorf("TRANSFER_FEE_IN_YEN must not be negative: %d", cfg.TransferFeeInYen)
	}

	if cfg.RejectedRequestRetentionDays <= 0 {
		return nil, fmt.Errorf("REJECTED_REQUEST_RETENTION_DAYS must be positive: %d", cfg.RejectedRequestRetentionDays)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
