package entity

// DefaultBusinessPatterns is the business-entity recognition table covering
// contact, financial, scheduling, organizational and technical identifiers.
func DefaultBusinessPatterns() []Pattern {
	return []Pattern{
		{
			Label:            "EMPLOYEE_ID",
			Patterns:         []string{`\b[Ee][Mm][Pp][-_]?\d{4,8}\b`, `\b[Ee]\d{4,8}\b`, `\b[Ii][Dd][-_]?\d{4,8}\b`, `(?i)\bemployee\s+(?:id|number)[-_:.]?\s*(\d{4,8})\b`},
			Examples:         []string{"EMP-1234", "E12345", "ID-5678", "employee id 9876"},
			IsBusinessEntity: true,
		},
		{
			Label:            "CUSTOMER_ID",
			Patterns:         []string{`\b[Cc][Uu][Ss][Tt][-_]?\d{4,8}\b`, `\b[Cc]\d{4,8}\b`, `(?i)\bcustomer\s+(?:id|number)[-_:.]?\s*(\d{4,8})\b`},
			Examples:         []string{"CUST-1234", "C12345", "customer id 5678"},
			IsBusinessEntity: true,
		},
		{
			Label:            "ORDER_ID",
			Patterns:         []string{`\b[Oo][Rr][Dd][-_]?\d{4,10}\b`, `\b[Oo]\d{4,10}\b`, `(?i)\border\s+(?:id|number)[-_:.]?\s*(\d{4,10})\b`, `\b#\d{4,10}\b`},
			Examples:         []string{"ORD-123456", "O123456", "order number 789012", "#456789"},
			IsBusinessEntity: true,
		},
		{
			Label:            "PRODUCT_CODE",
			Patterns:         []string{`\b[Pp][Rr][Oo][-_]?\d{3,8}\b`, `\b[Pp]\d{3,8}\b`, `(?i)\bproduct\s+(?:code|id)[-_:.]?\s*([A-Z0-9]{3,8})\b`, `\b[A-Z]{2,4}[-_]?\d{3,6}\b`},
			Examples:         []string{"PRO-123", "P4567", "product code ABC123", "SKU-456"},
			IsBusinessEntity: true,
		},
		{
			Label:            "INVOICE_NUMBER",
			Patterns:         []string{`\b[Ii][Nn][Vv][-_]?\d{4,10}\b`, `(?i)\binvoice\s+(?:number|no)[-_:.]?\s*(\d{4,10})\b`, `\b[Ii][Nn]\d{4,10}\b`},
			Examples:         []string{"INV-12345", "invoice number 67890", "IN123456"},
			IsBusinessEntity: true,
		},
		{
			Label:            "PURCHASE_ORDER",
			Patterns:         []string{`\b[Pp][Oo][-_]?\d{4,10}\b`, `(?i)\bpurchase\s+order\s+(?:number|no)?[-_:.]?\s*(\d{4,10})\b`, `(?i)\bp\.?o\.?\s+(?:number|no)?[-_:.]?\s*(\d{4,10})\b`},
			Examples:         []string{"PO-12345", "purchase order 67890", "P.O. 123456"},
			IsBusinessEntity: true,
		},
		{
			Label:            "DELIVERY_DATE",
			Patterns:         []string{`(?i)\bdelivery\s+(?:date|time|by)[-_:.]?\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`, `(?i)\bdeliver\s+(?:on|by)[-_:.]?\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`, `(?i)\bdue\s+(?:date|by)[-_:.]?\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`},
			Examples:         []string{"delivery date 12/31/2023", "deliver by 01-15-2024", "due by 2023-12-25"},
			IsBusinessEntity: true,
		},
		{
			Label:            "MEETING_TIME",
			Patterns:         []string{`(?i)\bmeeting\s+(?:at|time)[-_:.]?\s*(\d{1,2}:\d{2}(?:\s*[ap]m)?)`, `(?i)\bat\s+(\d{1,2}:\d{2}(?:\s*[ap]m)?)\s+(?:meeting|appointment)`, `(?i)\b(\d{1,2}:\d{2}(?:\s*[ap]m)?)\s+meeting`},
			Examples:         []string{"meeting at 2:30 PM", "at 14:00 meeting", "3:45 PM meeting"},
			IsBusinessEntity: true,
		},
		{
			Label:            "DEPARTMENT",
			Patterns:         []string{`(?i)\b(?:sales|marketing|hr|human resources|it|finance|accounting|operations|support|engineering|development|research|legal)\s+(?:department|dept|team)\b`, `(?i)\b(?:sales|marketing|hr|finance|accounting|operations|support|engineering|development|research|legal)\s+(?:division|unit)\b`},
			Examples:         []string{"sales department", "HR team", "finance division"},
			IsBusinessEntity: true,
		},
		{
			Label:            "JOB_TITLE",
			Patterns:         []string{`(?i)\b(?:manager|director|supervisor|coordinator|specialist|analyst|executive|assistant|representative|agent|lead|senior|junior)\s+\w+\b`, `(?i)\b(?:ceo|cto|cfo|coo|vp|vice president|president)\b`, `(?i)\b(?:sales|marketing|hr|finance|accounting|operations|support|engineering|development)\s+(?:manager|director|lead)\b`},
			Examples:         []string{"sales manager", "HR director", "senior analyst", "CEO"},
			IsBusinessEntity: true,
		},
		{
			Label:            "OFFICE_LOCATION",
			Patterns:         []string{`(?i)\b(?:office|branch|location|site)\s+(?:in|at)?\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`, `\b([A-Z][a-z]+)\s+(?:office|branch|location|site)\b`, `(?i)\bheadquarters\s+(?:in|at)?\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`},
			Examples:         []string{"office in New York", "Chicago branch", "headquarters in Seattle"},
			IsBusinessEntity: true,
		},
		{
			Label:            "TICKET_ID",
			Patterns:         []string{`\b[Tt][Ii][Cc][Kk][Ee][Tt][-_]?\d{4,8}\b`, `\b[Tt]\d{4,8}\b`, `(?i)\bticket\s+(?:id|number)[-_:.]?\s*(\d{4,8})\b`, `(?i)\b(?:bug|issue|case)\s+(?:id|number)?[-_:.]?\s*(\d{4,8})\b`},
			Examples:         []string{"TICKET-1234", "T5678", "ticket number 9012", "bug 3456"},
			IsBusinessEntity: true,
		},
		{
			Label:            "PROJECT_CODE",
			Patterns:         []string{`\b[Pp][Rr][Jj][-_]?[A-Z0-9]{3,8}\b`, `(?i)\bproject\s+(?:code|id)[-_:.]?\s*([A-Z0-9]{3,8})\b`, `\b[A-Z]{2,4}[-_]?\d{3,4}\b`},
			Examples:         []string{"PRJ-ABC123", "project code XYZ456", "DEV-001"},
			IsBusinessEntity: true,
		},
	}
}
