package domain

// ExtractedField is one raw key/value pair reported by an extractor,
// before any canonical mapping.
type ExtractedField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// LineItem is one table row from an invoice-like document.
type LineItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity,omitempty"`
	UnitPrice   string `json:"unit_price,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// StructuredExtraction is the primary extractor's output: provider fields,
// line items, the full text layer and an aggregate confidence in [0,100].
type StructuredExtraction struct {
	Fields     map[string]ExtractedField `json:"fields"`
	LineItems  []LineItem                `json:"line_items,omitempty"`
	Text       string                    `json:"text"`
	Confidence float64                   `json:"confidence"`
	PageCount  int                       `json:"page_count"`
}

// VisionClassification is the lightweight vision pass used by the dual
// strategy: an issuer/format guess without full field extraction.
type VisionClassification struct {
	IssuerName  string  `json:"issuer_name"`
	FormatHint  string  `json:"format_hint"`
	DocumentTag string  `json:"document_tag"`
	Confidence  float64 `json:"confidence"`
}

// VisionExtraction is the full vision-model output for scanned documents:
// classification plus extracted fields and a text transcript.
type VisionExtraction struct {
	Classification VisionClassification      `json:"classification"`
	Fields         map[string]ExtractedField `json:"fields"`
	LineItems      []LineItem                `json:"line_items,omitempty"`
	Text           string                    `json:"text"`
	Confidence     float64                   `json:"confidence"`
}

type MatchMethod string

const (
	MatchByName    MatchMethod = "name"
	MatchByKeyword MatchMethod = "keyword"
	MatchByFormat  MatchMethod = "format"
	MatchByLogo    MatchMethod = "logo_text"
	MatchNone      MatchMethod = "none"
)

// IssuerIdentification is the outcome of matching document text against
// known company patterns.
type IssuerIdentification struct {
	CompanyID       string      `json:"company_id,omitempty"`
	CompanyCode     string      `json:"company_code,omitempty"`
	CompanyName     string      `json:"company_name,omitempty"`
	Confidence      float64     `json:"confidence"`
	Method          MatchMethod `json:"method"`
	MatchedPatterns []string    `json:"matched_patterns,omitempty"`
	Identified      bool        `json:"identified"`
	NeedsReview     bool        `json:"needs_review,omitempty"`
}

// FormatMatch resolves a document to a known layout for its company, or
// records that a new format was created for it.
type FormatMatch struct {
	FormatID   string  `json:"format_id,omitempty"`
	Confidence float64 `json:"confidence"`
	Created    bool    `json:"created,omitempty"`
	Matched    bool    `json:"matched"`
}
