package model

import "time"

// ================ Config ================

// AgentConfig describes the remote conversational agent. Leaving Endpoint,
// APIKey or both AgentID and AgentName empty selects the fallback backend.
type AgentConfig struct {
	Endpoint     string        `envconfig:"AGENT_ENDPOINT"`
	APIKey       string        `envconfig:"AGENT_API_KEY"`
	TenantID     string        `envconfig:"AGENT_TENANT_ID"`
	AgentID      string        `envconfig:"AGENT_ID"`
	AgentName    string        `envconfig:"AGENT_NAME"`
	APIVersion   string        `envconfig:"AGENT_API_VERSION" default:"2024-05-01-preview"`
	PollInterval time.Duration `envconfig:"AGENT_POLL_INTERVAL" default:"500ms"`
	RunTimeout   time.Duration `envconfig:"AGENT_RUN_TIMEOUT" default:"2m"`
	CheckTimeout time.Duration `envconfig:"AGENT_CHECK_TIMEOUT" default:"10s"`
}

// Configured reports whether enough settings are present to try the live backend.
func (c AgentConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != "" && (c.AgentID != "" || c.AgentName != "")
}

// StreamModelConfig configures the chat model behind live streaming turns.
type StreamModelConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
	Model       string  `envconfig:"STREAM_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"STREAM_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"STREAM_TEMPERATURE" default:"0.4"`
}

// Configured reports whether a streaming model can be built.
func (c StreamModelConfig) Configured() bool {
	return c.APIKey != "" && c.Model != ""
}

type PromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Contoso Travel assistant"`
	BusinessName  string `envconfig:"PROMPT_BUSINESS_NAME" default:"Contoso Travel"`
}

type SessionConfig struct {
	// IdleTTL evicts sessions not seen for this long. Zero keeps them for the process lifetime.
	IdleTTL       time.Duration `envconfig:"SESSION_IDLE_TTL" default:"0"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
	// JournalTTL is the expiry applied to the Redis message journal on every append.
	JournalTTL time.Duration `envconfig:"SESSION_JOURNAL_TTL" default:"24h"`
}

type ServerConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}
