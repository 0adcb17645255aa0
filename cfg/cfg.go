package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Secret struct {
	value []byte
}

func NewSecret(s string) Secret {
	return Secret{value: []byte(s)}
}
func (s Secret) Value() string {
	return string(s.value)
}
func (s Secret) Wipe() {
	for i := range s.value {
		s.value[i] = 0
	}
}
func (s Secret) String() string {
	return "***REDACTED***"
}

type Cfg struct {
	Port        string
	Environment string
	LogLevel    string

	DataDir      string
	DatabasePath string
	PublicPath   string

	NoFileUpload             bool
	MaxFileSizeUnencryptedMB int
	MaxFileSizeEncryptedMB   int

	DefaultExpiry string
	EternalPasta  bool

	ReadonlyUploads  bool
	UploaderPassword Secret

	SlugScheme string
	SlugSalt   string

	DefaultEditable bool

	RateLimit      RateLimitCfg
	TrustedProxies []string

	ContextTimeout time.Duration
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBQueryTimeout time.Duration
}

type RateLimitCfg struct {
	RPM   int
	Burst int
}

func Load() (*Cfg, error) {
	c := &Cfg{}
	c.Port = getEnv("PORT", "8080")
	c.Environment = getEnv("ENVIRONMENT", "development")
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.DataDir = getEnv("DATA_DIR", "macrobin_data")
	c.DatabasePath = getEnv("DATABASE_PATH", "macrobin.db")
	c.PublicPath = strings.TrimSuffix(getEnv("PUBLIC_PATH", ""), "/")
	c.NoFileUpload = getEnv("NO_FILE_UPLOAD", "false") == "true"
	var err error
	c.MaxFileSizeUnencryptedMB, err = getInt("MAX_FILE_SIZE_UNENCRYPTED_MB", 256)
	if err != nil {
		return nil, err
	}
	c.MaxFileSizeEncryptedMB, err = getInt("MAX_FILE_SIZE_ENCRYPTED_MB", 2048)
	if err != nil {
		return nil, err
	}
	c.DefaultExpiry = getEnv("DEFAULT_EXPIRY", "1week")
	c.EternalPasta = getEnv("ETERNAL_PASTA", "false") == "true"
	c.ReadonlyUploads = getEnv("READONLY_UPLOADS", "false") == "true"
	c.UploaderPassword = NewSecret(getEnv("UPLOADER_PASSWORD", ""))
	c.SlugScheme = getEnv("SLUG_SCHEME", "animal")
	c.SlugSalt = getEnv("SLUG_SALT", "macrobin")
	c.DefaultEditable = getEnv("DEFAULT_EDITABLE", "true") == "true"
	c.RateLimit.RPM, err = getInt("RATE_LIMIT_RPM", 60)
	if err != nil {
		return nil, err
	}
	c.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}
	if v := getEnv("TRUSTED_PROXIES", ""); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.TrustedProxies = append(c.TrustedProxies, p)
			}
		}
	}
	c.ContextTimeout, err = getDuration("CONTEXT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	c.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, err
	}
	c.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	c.DBQueryTimeout, err = getDuration("DB_QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func Validate(c *Cfg) error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("PORT must be a number")
	}
	if c.DataDir == "" {
		return errors.New("DATA_DIR is required")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if c.MaxFileSizeUnencryptedMB <= 0 {
		return errors.New("MAX_FILE_SIZE_UNENCRYPTED_MB must be positive")
	}
	if c.MaxFileSizeEncryptedMB <= 0 {
		return errors.New("MAX_FILE_SIZE_ENCRYPTED_MB must be positive")
	}
	if c.MaxFileSizeEncryptedMB < c.MaxFileSizeUnencryptedMB {
		return errors.New("MAX_FILE_SIZE_ENCRYPTED_MB must be >= MAX_FILE_SIZE_UNENCRYPTED_MB")
	}
	if c.SlugScheme != "hashid" && c.SlugScheme != "animal" {
		return fmt.Errorf("SLUG_SCHEME must be hashid or animal, got %q", c.SlugScheme)
	}
	if c.ReadonlyUploads && c.UploaderPassword.Value() == "" {
		return errors.New("UPLOADER_PASSWORD is required when READONLY_UPLOADS is enabled")
	}
	if c.RateLimit.RPM <= 0 {
		return errors.New("RATE_LIMIT_RPM must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func (c *Cfg) Wipe() {
	c.UploaderPassword.Wipe()
}

// MaxFileBytes is the size ceiling for a decoded upload; server-side
// encrypted pastas get the larger ceiling.
func (c *Cfg) MaxFileBytes(encryptServer bool) int {
	if encryptServer {
		return c.MaxFileSizeEncryptedMB * 1024 * 1024
	}
	return c.MaxFileSizeUnencryptedMB * 1024 * 1024
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
func getInt(key string, fallback int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return v, nil
}
