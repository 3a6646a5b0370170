package intent

// DefaultDefinitions returns the built-in CRM/ERP/general intent table.
// Thresholds match the Python original: 0.7 default, 0.5 for greeting/help.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:                "create_contact",
			Description:         "Create a new contact",
			Keywords:            []string{"create", "add", "new", "contact", "person", "customer"},
			Patterns:            []string{`create.*contact`, `add.*contact`, `new.*contact`, `add.*customer`},
			Examples:            []string{"Create a new contact for John Doe", "Add a customer named Jane Smith"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "search_contact",
			Description:         "Search for existing contacts",
			Keywords:            []string{"search", "find", "look", "contact", "customer"},
			Patterns:            []string{`search.*contact`, `find.*contact`, `look.*for.*contact`, `search.*customer`},
			Examples:            []string{"Search for John Doe", "Find contact information for Jane"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "update_contact",
			Description:         "Update an existing contact",
			Keywords:            []string{"update", "edit", "modify", "change", "contact"},
			Patterns:            []string{`update.*contact`, `edit.*contact`, `modify.*contact`, `change.*contact`},
			Examples:            []string{"Update John's contact information", "Change contact phone number"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "create_order",
			Description:         "Create a new order",
			Keywords:            []string{"create", "place", "new", "order", "purchase"},
			Patterns:            []string{`create.*order`, `place.*order`, `new.*order`, `make.*purchase`},
			Examples:            []string{"Create a new order for product X", "Place an order for 10 items"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "update_order",
			Description:         "Update an existing order",
			Keywords:            []string{"update", "change", "modify", "order", "status"},
			Patterns:            []string{`update.*order`, `change.*order.*status`, `modify.*order`},
			Examples:            []string{"Update order #12345 to shipped", "Change order status"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "search_order",
			Description:         "Search for orders",
			Keywords:            []string{"search", "find", "check", "order", "status"},
			Patterns:            []string{`search.*order`, `find.*order`, `check.*order`, `order.*status`},
			Examples:            []string{"Search for order #12345", "Check order status"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "get_inventory",
			Description:         "Get inventory information",
			Keywords:            []string{"inventory", "stock", "available", "quantity"},
			Patterns:            []string{`check.*inventory`, `get.*stock`, `available.*quantity`, `how.*many.*in.*stock`},
			Examples:            []string{"Check inventory for product X", "How many items are in stock?"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "update_inventory",
			Description:         "Update inventory levels",
			Keywords:            []string{"update", "adjust", "inventory", "stock", "restock"},
			Patterns:            []string{`update.*inventory`, `adjust.*stock`, `restock`},
			Examples:            []string{"Update inventory for SKU-123", "Restock product X"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "schedule_meeting",
			Description:         "Schedule a meeting",
			Keywords:            []string{"schedule", "meeting", "appointment", "calendar"},
			Patterns:            []string{`schedule.*meeting`, `book.*appointment`, `set.*up.*meeting`, `arrange.*meeting`},
			Examples:            []string{"Schedule a meeting with John", "Book an appointment for tomorrow"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "generate_report",
			Description:         "Generate a report",
			Keywords:            []string{"generate", "create", "report", "analytics", "summary"},
			Patterns:            []string{`generate.*report`, `create.*report`, `get.*analytics`, `show.*summary`},
			Examples:            []string{"Generate sales report", "Show analytics for last quarter"},
			ConfidenceThreshold: 0.7,
		},
		{
			Name:                "greeting",
			Description:         "Greeting",
			Keywords:            []string{"hello", "hi", "hey", "good", "morning", "afternoon"},
			Patterns:            []string{`^(hello|hi|hey)`, `good\s+(morning|afternoon|evening)`, `how.*are.*you`},
			Examples:            []string{"Hello", "Hi there", "Good morning"},
			ConfidenceThreshold: 0.5,
		},
		{
			Name:                "help",
			Description:         "Request for help",
			Keywords:            []string{"help", "assist", "support", "how", "what"},
			Patterns:            []string{`can.*you.*help`, `i.*need.*help`, `how.*do.*i`, `what.*can.*you.*do`},
			Examples:            []string{"Can you help me?", "What can you do?"},
			ConfidenceThreshold: 0.5,
		},
	}
}
