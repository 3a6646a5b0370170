package documents

import (
	"fmt"
	"sort"
	"strings"
)

// fieldSpec names a canonical field's display label and the source-record
// key aliases accepted for it.
type fieldSpec struct {
	canonical string
	label     string
	aliases   []string
}

// fieldTables maps each structured Format to its ordered field-mapping
// table. Order determines sentence order in the rendered record.
var fieldTables = map[Format][]fieldSpec{
	FormatCRMContact: {
		{"name", "Name", []string{"name", "full_name", "contact_name"}},
		{"email", "Email", []string{"email", "email_address"}},
		{"phone", "Phone", []string{"phone", "phone_number", "mobile"}},
		{"company", "Company", []string{"company", "company_name", "account_name"}},
		{"title", "Title", []string{"title", "job_title", "position"}},
	},
	FormatCRMOpportunity: {
		{"name", "Opportunity", []string{"name", "opportunity_name", "deal_name"}},
		{"account", "Account", []string{"account", "account_name", "company"}},
		{"stage", "Stage", []string{"stage", "pipeline_stage", "status"}},
		{"amount", "Amount", []string{"amount", "value", "deal_value"}},
		{"close_date", "Close date", []string{"close_date", "expected_close", "closing_date"}},
	},
	FormatERPProduct: {
		{"sku", "SKU", []string{"sku", "product_code", "item_code"}},
		{"name", "Product", []string{"name", "product_name", "title"}},
		{"description", "Description", []string{"description", "desc"}},
		{"price", "Price", []string{"price", "unit_price", "list_price"}},
		{"stock", "In stock", []string{"stock", "quantity_on_hand", "inventory"}},
	},
	FormatERPOrder: {
		{"order_id", "Order", []string{"order_id", "order_number", "id"}},
		{"customer", "Customer", []string{"customer", "customer_name", "account"}},
		{"status", "Status", []string{"status", "order_status"}},
		{"total", "Total", []string{"total", "order_total", "amount"}},
		{"items", "Items", []string{"items", "line_items", "products"}},
	},
	FormatERPInvoice: {
		{"invoice_id", "Invoice", []string{"invoice_id", "invoice_number", "id"}},
		{"customer", "Customer", []string{"customer", "bill_to", "account"}},
		{"amount", "Amount", []string{"amount", "invoice_total", "total"}},
		{"due_date", "Due date", []string{"due_date", "payment_due"}},
		{"status", "Status", []string{"status", "payment_status"}},
	},
}

// resolveField finds the first alias present in fields for canonical field
// spec fs, returning its stringified value and whether it was found.
func resolveField(fields map[string]any, fs fieldSpec) (string, bool) {
	for _, alias := range fs.aliases {
		if v, ok := fields[alias]; ok {
			s := fmt.Sprintf("%v", v)
			if strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}

// RenderRecord turns a structured record into the deterministic
// "Label: value." sentence sequence the field-mapping table describes. For
// FormatGenericRecord it falls back to the record's own keys, sorted for
// determinism.
func RenderRecord(format Format, fields map[string]any) string {
	table, ok := fieldTables[format]
	if !ok {
		return renderGeneric(fields)
	}
	var b strings.Builder
	for _, fs := range table {
		v, ok := resolveField(fields, fs)
		if !ok {
			continue
		}
		b.WriteString(fs.label)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString(". ")
	}
	if b.Len() == 0 {
		return renderGeneric(fields)
	}
	return strings.TrimSpace(b.String())
}

func renderGeneric(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v := fmt.Sprintf("%v", fields[k])
		if strings.TrimSpace(v) == "" {
			continue
		}
		b.WriteString(toLabel(k))
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString(". ")
	}
	return strings.TrimSpace(b.String())
}

// toLabel turns a snake_case field name into a "Title case" label.
func toLabel(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
