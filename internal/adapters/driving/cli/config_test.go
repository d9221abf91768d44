package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

func execConfigCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"config"}, args...))
	defer func() {
		rootCmd.SetArgs(nil)
		configLLMKind, configEmbeddingKind, configVectorKind = "", "", ""
		configLLMParams, configEmbeddingParams, configVectorParams = nil, nil, nil
		configOwner = "default"
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestConfigCreateCmd_RequiresAllProviderKinds(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execConfigCmd(t, "create", "--llm", "openai")
	require.Error(t, err)
}

func TestConfigCreateCmd_Success(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execConfigCmd(t, "create",
		"--llm", "openai", "--embedding", "openai", "--vector", "faiss",
		"--llm-param", "model=gpt-4o", "--vector-param", "threshold=0.5",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration:")
	assert.Contains(t, out, "openai")
	assert.Contains(t, out, "faiss")
}

func TestConfigCreateCmd_NoServiceConfigured(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	configService = nil
	defer cleanup()

	_, err := execConfigCmd(t, "create", "--llm", "openai", "--embedding", "openai", "--vector", "faiss")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration service not configured")
}

func TestConfigCreateCmd_PropagatesServiceError(t *testing.T) {
	_, _, cfg, cleanup := setupTestServices()
	defer cleanup()
	cfg.createErr = errors.New("boom")

	_, err := execConfigCmd(t, "create", "--llm", "openai", "--embedding", "openai", "--vector", "faiss")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestConfigCreateCmd_RejectsMalformedParam(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execConfigCmd(t, "create",
		"--llm", "openai", "--embedding", "openai", "--vector", "faiss",
		"--llm-param", "no-equals-sign",
	)
	require.Error(t, err)
}

func TestConfigUpdateCmd_Success(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execConfigCmd(t, "update", "config-1", "--llm", "anthropic")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated configuration config-1")
}

func TestConfigUpdateCmd_PropagatesServiceError(t *testing.T) {
	_, _, cfg, cleanup := setupTestServices()
	defer cleanup()
	cfg.updateErr = errors.New("boom")

	_, err := execConfigCmd(t, "update", "config-1", "--llm", "anthropic")
	require.Error(t, err)
}

func TestConfigActivateCmd_Success(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execConfigCmd(t, "activate", "config-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Activated configuration config-1")
}

func TestConfigActivateCmd_PropagatesServiceError(t *testing.T) {
	_, _, cfg, cleanup := setupTestServices()
	defer cleanup()
	cfg.activateErr = errors.New("boom")

	_, err := execConfigCmd(t, "activate", "config-1")
	require.Error(t, err)
}

func TestConfigListCmd_PrintsSnapshots(t *testing.T) {
	_, _, cfg, cleanup := setupTestServices()
	defer cleanup()
	cfg.snapshots = []domain.ConfigurationSnapshot{
		{ID: "config-1", LLMProviderKind: domain.LLMOpenAI, EmbeddingProviderKind: domain.EmbeddingOpenAI, VectorProviderKind: domain.VectorFaiss, Active: true},
	}

	out, err := execConfigCmd(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "config-1")
	assert.Contains(t, out, "(active)")
}

func TestConfigListCmd_EmptyList(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execConfigCmd(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No configurations found")
}

func TestConfigGetCmd_PrintsSnapshot(t *testing.T) {
	_, _, cfg, cleanup := setupTestServices()
	defer cleanup()
	cfg.snapshot = &domain.ConfigurationSnapshot{ID: "config-1", LLMProviderKind: domain.LLMOpenAI}

	out, err := execConfigCmd(t, "get", "config-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration: config-1")
}

func TestConfigDeleteCmd_Success(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execConfigCmd(t, "delete", "config-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted configuration config-1")
}

func TestConfigStatusCmd_PrintsStatus(t *testing.T) {
	_, _, cfg, cleanup := setupTestServices()
	defer cleanup()
	cfg.status = domain.SystemStatus{
		HasActiveConfig: true,
		DocumentCount:   3,
		LLMStatus:       domain.ProviderStatus{Connected: true},
		EmbeddingStatus: domain.ProviderStatus{Connected: false, Error: "unreachable"},
		VectorStatus:    domain.ProviderStatus{Connected: true},
	}

	out, err := execConfigCmd(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Active configuration: true")
	assert.Contains(t, out, "Documents indexed:    3")
	assert.Contains(t, out, "unreachable")
}

func TestConfigStatusCmd_PropagatesServiceError(t *testing.T) {
	_, _, cfg, cleanup := setupTestServices()
	defer cleanup()
	cfg.statusErr = errors.New("boom")

	_, err := execConfigCmd(t, "status")
	require.Error(t, err)
}
