package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
telegram:
  token: test-token
openai:
  api_key: test-key
supabase:
  url: https://example.supabase.co
  api_key: test-anon-key
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 1536, cfg.OpenAI.EmbeddingDimensions)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, BackendFlat, cfg.Vector.Backend)
	assert.Equal(t, "kb_", cfg.Vector.Qdrant.CollectionPrefix)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL())
	assert.Equal(t, 20, cfg.Session.HistoryMessages)
	assert.Equal(t, 2000, cfg.Session.HistoryTokens)
	assert.Equal(t, 5, cfg.Search.Limit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "telegram: [not a map"))
	require.Error(t, err)
}

func TestLoadRequiresTelegramToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_, err := Load(writeConfig(t, `
openai:
  api_key: test-key
supabase:
  url: https://example.supabase.co
  api_key: test-anon-key
`))
	require.ErrorContains(t, err, "telegram token")
}

func TestSecretsFallBackToEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	cfg, err := Load(writeConfig(t, `
openai:
  api_key: test-key
supabase:
  url: https://example.supabase.co
  api_key: test-anon-key
`))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
}

func TestQdrantBackendRequiresURL(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
vector:
  backend: qdrant
`))
	require.ErrorContains(t, err, "qdrant url")
}

func TestUnknownBackendRejected(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
vector:
  backend: pinecone
`))
	require.ErrorContains(t, err, "unknown vector backend")
}

func TestRedisSessionStoreRequiresAddr(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
session:
  store: redis
`))
	require.ErrorContains(t, err, "redis address")
}
