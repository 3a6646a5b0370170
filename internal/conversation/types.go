// Package conversation implements the ConversationManager: a bounded
// in-memory sliding window per conversation backed by a durable
// ConversationStore, with analytics over the turns it has seen.
package conversation

import "time"

// Message is one turn in a conversation, carrying whatever routing metadata
// the orchestrator attached (intent, tool usage, error) for analytics.
type Message struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	Sequence       int64             `json:"sequence"`
	Role           string            `json:"role"` // user, assistant, system, tool
	Content        string            `json:"content"`
	Intent         string            `json:"intent,omitempty"`
	ToolName       string            `json:"tool_name,omitempty"`
	IsError        bool              `json:"is_error,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Context is the live state the manager keeps for one conversation: a
// bounded window of recent messages plus routing/activity state.
type Context struct {
	ConversationID string
	Topic          string
	LastIntent     string
	MessageCount   int64
	Messages       []Message
	LastActivity   time.Time
	CreatedAt      time.Time
}

// Summary is the get_summary analytics payload.
type Summary struct {
	ConversationID   string         `json:"conversation_id"`
	MessageCount     int64          `json:"message_count"`
	RoleDistribution map[string]int `json:"role_distribution"`
	AvgContentLength float64        `json:"avg_content_length"`
	IntentChanges    int            `json:"intent_changes"`
	ToolsUsed        []string       `json:"tools_used"`
	ErrorRate        float64        `json:"error_rate"`
	Topic            string         `json:"topic,omitempty"`
	LastActivity     time.Time      `json:"last_activity"`
}
