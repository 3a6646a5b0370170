// Package tools implements the registry and executor for remote business-API
// calls: CRM and ERP endpoints invoked on behalf of the orchestrator's tool
// selection step.
package tools

import "time"

// ServiceType partitions tools by the backend family they call.
type ServiceType string

const (
	ServiceCRM     ServiceType = "crm"
	ServiceERP     ServiceType = "erp"
	ServiceGeneral ServiceType = "general"
)

// ParameterType is one of the JSON-Schema-ish primitive types the
// dispatcher validates parameters against.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
	TypeNumber  ParameterType = "number"
)

// ParameterSpec describes one field of a tool's parameter schema.
type ParameterSpec struct {
	Type     ParameterType `json:"type"`
	Required bool          `json:"required,omitempty"`
	Enum     []string      `json:"enum,omitempty"`
	Default  any           `json:"default,omitempty"`
}

// AuthSpec attaches credentials to outgoing tool requests.
type AuthSpec struct {
	Scheme string `yaml:"scheme" json:"scheme"` // "bearer" or "api_key"
	Header string `yaml:"header" json:"header"` // header name for api_key; ignored for bearer
	Value  string `yaml:"value" json:"value"`
}

// ToolDefinition describes one remote business-API call. Immutable after
// registration: the dispatcher never mutates a definition in place.
type ToolDefinition struct {
	Name                string                   `json:"name"`
	ServiceType         ServiceType              `json:"service_type"`
	Endpoint            string                   `json:"endpoint"` // may contain {field} path placeholders
	Method              string                   `json:"method"`
	ParameterSchema     map[string]ParameterSpec `json:"parameter_schema"`
	RequiredParameters  []string                 `json:"required_parameters"`
	Timeout             time.Duration            `json:"timeout"`
	RetryCount          int                      `json:"retry_count"`
	CacheTTL            time.Duration            `json:"cache_ttl"`
	RateLimitPerMinute  int                      `json:"rate_limit_per_minute"`
	Auth                *AuthSpec                `json:"auth,omitempty"`
	MaxConcurrent       int                      `json:"-"` // not read by the Dispatcher; every tool shares its global semaphore
}

// ToolExecutionRecord is one entry in the dispatcher's bounded execution
// history ring.
type ToolExecutionRecord struct {
	ExecutionID   string         `json:"execution_id"`
	ToolName      string         `json:"tool_name"`
	Parameters    map[string]any `json:"parameters"`
	Result        any            `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
	Success       bool           `json:"success"`
	Timestamp     time.Time      `json:"timestamp"`
}
