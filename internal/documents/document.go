// Package documents implements the DocumentProcessor: format detection,
// field-mapping for structured CRM/ERP records, cleaning and word-based
// chunking, plus the SourceReader contract that feeds it.
package documents

// Format is the detected shape of a Document's payload.
type Format string

const (
	FormatCRMContact     Format = "crm_contact"
	FormatCRMOpportunity Format = "crm_opportunity"
	FormatERPProduct     Format = "erp_product"
	FormatERPOrder       Format = "erp_order"
	FormatERPInvoice     Format = "erp_invoice"
	FormatGenericRecord  Format = "generic_record"
	FormatPlainText      Format = "plain_text"
)

// Document is the unit of input to the processor: either a structured
// record (Fields populated, one row from a CRM/ERP source or a JSON body)
// or free text (Text populated, e.g. an uploaded file).
type Document struct {
	ID        string
	SourceURI string
	Format    Format // empty: run detection: "" is not a valid Format value
	Fields    map[string]any
	Text      string
	Metadata  map[string]string
}
