package tools

import "time"

// BusinessDefinitions returns the CRM/ERP ToolDefinitions the orchestrator's
// tool-selection step can route to. Endpoints are relative paths that the
// Dispatcher resolves against its configured BaseURL (e.g. an internal
// CRM/ERP gateway). Callers register each with a Registry before building a
// Dispatcher against it.
func BusinessDefinitions(defaults DefaultsConfig) []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "create_contact",
			ServiceType: ServiceCRM,
			Endpoint:    "/crm/contacts",
			Method:      "POST",
			ParameterSchema: map[string]ParameterSpec{
				"name":    {Type: TypeString, Required: true},
				"email":   {Type: TypeString, Required: true},
				"phone":   {Type: TypeString},
				"company": {Type: TypeString},
			},
			RequiredParameters: []string{"name", "email"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			CacheTTL:           0,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "search_contact",
			ServiceType: ServiceCRM,
			Endpoint:    "/crm/contacts",
			Method:      "GET",
			ParameterSchema: map[string]ParameterSpec{
				"query": {Type: TypeString, Required: true},
			},
			RequiredParameters: []string{"query"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			CacheTTL:           defaults.CacheTTL,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "update_contact",
			ServiceType: ServiceCRM,
			Endpoint:    "/crm/contacts/{contact_id}",
			Method:      "PATCH",
			ParameterSchema: map[string]ParameterSpec{
				"contact_id": {Type: TypeString, Required: true},
				"name":       {Type: TypeString},
				"email":      {Type: TypeString},
				"phone":      {Type: TypeString},
			},
			RequiredParameters: []string{"contact_id"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "create_order",
			ServiceType: ServiceERP,
			Endpoint:    "/erp/orders",
			Method:      "POST",
			ParameterSchema: map[string]ParameterSpec{
				"customer_id": {Type: TypeString, Required: true},
				"items":       {Type: TypeArray, Required: true},
			},
			RequiredParameters: []string{"customer_id", "items"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "update_order",
			ServiceType: ServiceERP,
			Endpoint:    "/erp/orders/{order_id}",
			Method:      "PATCH",
			ParameterSchema: map[string]ParameterSpec{
				"order_id": {Type: TypeString, Required: true},
				"status":   {Type: TypeString, Enum: []string{"pending", "shipped", "delivered", "cancelled"}},
			},
			RequiredParameters: []string{"order_id"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "search_order",
			ServiceType: ServiceERP,
			Endpoint:    "/erp/orders",
			Method:      "GET",
			ParameterSchema: map[string]ParameterSpec{
				"customer_id": {Type: TypeString},
				"status":      {Type: TypeString},
			},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			CacheTTL:           defaults.CacheTTL,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "get_inventory",
			ServiceType: ServiceERP,
			Endpoint:    "/erp/inventory/{sku}",
			Method:      "GET",
			ParameterSchema: map[string]ParameterSpec{
				"sku": {Type: TypeString, Required: true},
			},
			RequiredParameters: []string{"sku"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			CacheTTL:           defaults.CacheTTL,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "update_inventory",
			ServiceType: ServiceERP,
			Endpoint:    "/erp/inventory/{sku}",
			Method:      "PATCH",
			ParameterSchema: map[string]ParameterSpec{
				"sku":   {Type: TypeString, Required: true},
				"stock": {Type: TypeInteger, Required: true},
			},
			RequiredParameters: []string{"sku", "stock"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "generate_report",
			ServiceType: ServiceGeneral,
			Endpoint:    "/reports/generate",
			Method:      "POST",
			ParameterSchema: map[string]ParameterSpec{
				"report_type": {Type: TypeString, Required: true, Enum: []string{"sales", "inventory", "customer"}},
				"date_range":  {Type: TypeString},
			},
			RequiredParameters: []string{"report_type"},
			Timeout:            defaults.Timeout * 3,
			RetryCount:         defaults.MaxRetries,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
		{
			Name:        "schedule_meeting",
			ServiceType: ServiceGeneral,
			Endpoint:    "/calendar/meetings",
			Method:      "POST",
			ParameterSchema: map[string]ParameterSpec{
				"title":        {Type: TypeString, Required: true},
				"time":         {Type: TypeString, Required: true},
				"participants": {Type: TypeArray},
			},
			RequiredParameters: []string{"title", "time"},
			Timeout:            defaults.Timeout,
			RetryCount:         defaults.MaxRetries,
			RateLimitPerMinute: defaults.RateLimitPerMinute,
		},
	}
}

// DefaultsConfig mirrors config.ToolDefaultConfig's fields without importing
// the config package, so callers can pass converted durations directly.
type DefaultsConfig struct {
	Timeout            time.Duration
	MaxRetries         int
	CacheTTL           time.Duration
	RateLimitPerMinute int
}
