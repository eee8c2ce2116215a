package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/gemini-fusion-kit/pkg/collector"
	"github.com/shouni/gemini-fusion-kit/pkg/generator"
)

// デフォルト値の定義なのだ
const (
	DefaultAddr           = ":8080"
	DefaultCredentialEnv  = "GEMINI_API_KEY"
	DefaultSessionTTL     = 30 * time.Minute
	DefaultMaxUploadBytes = collector.DefaultMaxImageBytes
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config はサーバー全体の設定を保持する構造体なのだ。
// API キーそのものは保持せず、呼び出しのたびに環境変数から読みます。
type Config struct {
	Addr           string
	CredentialEnv  string
	FusionModel    string
	ImagineModel   string
	SessionTTL     time.Duration
	MaxUploadBytes int64
	LogLevel       string
	LogFormat      string
}

// LoadConfig は .env（あれば）と環境変数から設定を読み込むのだ！
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}

	ttl, err := time.ParseDuration(envutil.GetEnv("SESSION_TTL", DefaultSessionTTL.String()))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL が不正です: %w", err)
	}
	maxBytes, err := strconv.ParseInt(envutil.GetEnv("MAX_UPLOAD_BYTES", strconv.FormatInt(DefaultMaxUploadBytes, 10)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES が不正です: %w", err)
	}

	cfg := &Config{
		Addr:           envutil.GetEnv("ADDR", DefaultAddr),
		CredentialEnv:  envutil.GetEnv("GEMINI_API_KEY_ENV", DefaultCredentialEnv),
		FusionModel:    envutil.GetEnv("FUSION_MODEL", generator.DefaultFusionModel),
		ImagineModel:   envutil.GetEnv("IMAGINE_MODEL", generator.DefaultImagineModel),
		SessionTTL:     ttl,
		MaxUploadBytes: maxBytes,
		LogLevel:       envutil.GetEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:      envutil.GetEnv("LOG_FORMAT", DefaultLogFormat),
	}
	return cfg, cfg.Validate()
}

// Validate は設定値の整合性を確認します。
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.CredentialEnv == "" {
		return fmt.Errorf("credential variable name is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive: %s", c.SessionTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.MaxUploadBytes)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Credential は呼び出し時点の API キーを返します。未設定なら空文字なのだ。
func (c *Config) Credential() string {
	return envutil.GetEnv(c.CredentialEnv, "")
}

// NewLogger は LogFormat と LogLevel に従った slog.Logger を作ります。
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format: %q", c.LogFormat)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return level, nil
}
