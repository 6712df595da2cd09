package model

// RunStatus is the coordinator-side view of a remote run.
type RunStatus string

const (
	RunStatusCreated    RunStatus = "created"
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Pending reports whether the run still has to be polled.
func (s RunStatus) Pending() bool {
	return s == RunStatusCreated || s == RunStatusQueued || s == RunStatusInProgress
}

// TokenUsage is the token accounting reported for a run.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Run is the transient state of one turn against the remote agent.
type Run struct {
	ThreadID  string     `json:"thread_id"`
	RunID     string     `json:"run_id"`
	Status    RunStatus  `json:"status"`
	LastError string     `json:"last_error,omitempty"`
	Model     string     `json:"model,omitempty"`
	Usage     TokenUsage `json:"usage"`
}
