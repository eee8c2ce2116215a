package config

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/shouni/gemini-fusion-kit/pkg/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("未設定ならデフォルト値なのだ", func(t *testing.T) {
		for _, k := range []string{"ADDR", "GEMINI_API_KEY_ENV", "FUSION_MODEL", "IMAGINE_MODEL", "SESSION_TTL", "MAX_UPLOAD_BYTES", "LOG_LEVEL", "LOG_FORMAT"} {
			t.Setenv(k, "")
			require.NoError(t, os.Unsetenv(k))
		}

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, cfg.Addr)
		assert.Equal(t, DefaultCredentialEnv, cfg.CredentialEnv)
		assert.Equal(t, generator.DefaultFusionModel, cfg.FusionModel)
		assert.Equal(t, generator.DefaultImagineModel, cfg.ImagineModel)
		assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
		assert.Equal(t, DefaultMaxUploadBytes, cfg.MaxUploadBytes)
	})

	t.Run("環境変数で上書きできる", func(t *testing.T) {
		t.Setenv("ADDR", ":9999")
		t.Setenv("SESSION_TTL", "5m")
		t.Setenv("MAX_UPLOAD_BYTES", "1024")
		t.Setenv("IMAGINE_MODEL", "imagen-test")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.Addr)
		assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
		assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
		assert.Equal(t, "imagen-test", cfg.ImagineModel)
	})

	t.Run("不正な値はエラー", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "soon")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestConfig_Credential(t *testing.T) {
	cfg := &Config{CredentialEnv: "FUSION_TEST_KEY"}
	t.Setenv("FUSION_TEST_KEY", "")
	assert.Empty(t, cfg.Credential())

	// 呼び出しのたびに読み直すので、後から設定したキーも拾える
	t.Setenv("FUSION_TEST_KEY", "abc")
	assert.Equal(t, "abc", cfg.Credential())
}

func TestConfig_Validate(t *testing.T) {
	base := Config{Addr: ":1", CredentialEnv: "K", SessionTTL: time.Minute, MaxUploadBytes: 1, LogLevel: "info"}
	require.NoError(t, base.Validate())

	bad := base
	bad.MaxUploadBytes = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())
}

func TestConfig_NewLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}

	logger, err := cfg.NewLogger(buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "role", "style")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"role":"style"`)

	_, err = (&Config{LogLevel: "info", LogFormat: "xml"}).NewLogger(buf)
	assert.Error(t, err)
}
