package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "BEDROCK_MODEL", "BEDROCK_BASE_URL", "BEDROCK_EXPORT_DIR"} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.LLM.BaseURL)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, ".", cfg.Export.Directory)
	assert.False(t, cfg.Logging.DebugMode)
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())
}

func TestLoadReadsYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  api_key: from-file
  model: gemini-custom
  timeout: 30s
export:
  directory: /tmp/exports
logging:
  debug_mode: true
  level: debug
  categories:
    api: true
    ui: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-custom", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, "/tmp/exports", cfg.Export.Directory)
	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Categories["api"])
	assert.False(t, cfg.Logging.Categories["ui"])

	// Unset fields keep defaults
	assert.Equal(t, "gemini-2.5-flash-image", cfg.LLM.ImageModel)
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a map"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("BEDROCK_MODEL", "gemini-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  api_key: from-file\n  model: gemini-file\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-env", cfg.LLM.Model)
}

func TestGeminiKeyTakesPriorityOverGoogleKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("GEMINI_API_KEY", "gemini")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.LLM.Model = "gemini-saved"
	cfg.Logging.DebugMode = true

	path := filepath.Join(t.TempDir(), ".bedrock", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-saved", loaded.LLM.Model)
	assert.True(t, loaded.Logging.DebugMode)
}

func TestGetLLMTimeoutBadValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "not-a-duration"
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/ws", ".bedrock", "config.yaml"), DefaultPath("/ws"))
}
