package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("AGENT_RUN_TIMEOUT", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 45*time.Second, cfg.Agent.RunTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.PollInterval)
	assert.Equal(t, "gemini-2.5-flash", cfg.Stream.Model)
	assert.Zero(t, cfg.Session.IdleTTL)
	assert.False(t, cfg.Agent.Configured())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("AGENT_ENDPOINT=https://agents.example\nAGENT_API_KEY=k\nAGENT_NAME=travel\n"), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"AGENT_ENDPOINT", "AGENT_API_KEY", "AGENT_NAME"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := loadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://agents.example", cfg.Agent.Endpoint)
	assert.True(t, cfg.Agent.Configured())
}

func TestAnalyzeCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"analyze", "--env-file", filepath.Join(t.TempDir(), "none.env"), "plan", "a", "Spain", "budget", "trip"})
	require.NoError(t, cmd.Execute())

	var res model.AnalysisResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "trip_planning", res.Intent)
	assert.Equal(t, []string{"spain"}, res.Entities)
	assert.Len(t, res.Recommendations, 5)
}

func TestAnalyzeCustomerCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"analyze", "--customer", "--env-file", filepath.Join(t.TempDir(), "none.env"), "cancel my flight"})
	require.NoError(t, cmd.Execute())

	var res model.CustomerQueryAnalysis
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "cancel_flight", res.Intent)
}
