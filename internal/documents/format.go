package documents

import "encoding/json"

// DetectFormat resolves a Document's Format following the precedence order:
// explicit metadata hint, parse-as-JSON probe, source-string heuristic on
// the resulting keys, then plain text. It returns the resolved format and,
// for structured formats, the fields to render.
func DetectFormat(doc Document) (Format, map[string]any) {
	if doc.Format != "" {
		fields := doc.Fields
		if fields == nil {
			fields = probeJSON(doc.Text)
		}
		return doc.Format, fields
	}
	if doc.Fields != nil {
		return detectFromKeys(doc.Fields), doc.Fields
	}
	if fields := probeJSON(doc.Text); fields != nil {
		return detectFromKeys(fields), fields
	}
	return FormatPlainText, nil
}

func probeJSON(text string) map[string]any {
	if text == "" {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil
	}
	return fields
}

// detectFromKeys applies the source-string heuristic: the presence of a
// format's distinguishing keys (under any of its accepted aliases) selects
// that format; otherwise the record is a generic_record. Checked in a fixed
// precedence order so detection is deterministic regardless of field order.
func detectFromKeys(fields map[string]any) Format {
	for _, sig := range formatSignatures {
		for _, key := range sig.keys {
			if _, ok := fields[key]; ok {
				return sig.format
			}
		}
	}
	return FormatGenericRecord
}

type formatSignature struct {
	format Format
	keys   []string
}

// formatSignatures names a few keys unique enough to identify each
// structured format during heuristic detection, most specific first.
var formatSignatures = []formatSignature{
	{FormatERPInvoice, []string{"invoice_id", "invoice_number", "payment_due"}},
	{FormatERPOrder, []string{"order_id", "order_number", "line_items"}},
	{FormatERPProduct, []string{"sku", "product_code", "unit_price"}},
	{FormatCRMOpportunity, []string{"stage", "pipeline_stage", "close_date", "deal_name"}},
	{FormatCRMContact, []string{"email", "email_address", "contact_name"}},
}
