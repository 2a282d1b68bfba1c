package vision

const classifyPrompt = `You are looking at one page of a business document (invoice, freight bill, customs declaration or similar).
Respond with a single JSON object and nothing else:
{
  "issuer_name": "<company name printed on the document, empty if unreadable>",
  "format_hint": "<short layout label, e.g. invoice_a4_portrait>",
  "document_tag": "<document kind, e.g. invoice, delivery_note>",
  "confidence": <0-100>
}`

const extractPromptHeader = `You are looking at one page of a business document.
Extract every labelled field and table row you can read.
Respond with a single JSON object and nothing else:
{
  "classification": {"issuer_name": "", "format_hint": "", "document_tag": "", "confidence": 0},
  "fields": {"<field label>": {"value": "", "confidence": 0}},
  "line_items": [{"description": "", "quantity": "", "unit_price": "", "amount": ""}],
  "text": "<full transcript of the page>",
  "confidence": <0-100 overall>
}`

// extractionPrompt appends a resolved per-layer prompt, when one exists,
// after the fixed output contract so custom instructions can never
// change the response shape.
func extractionPrompt(custom string) string {
	if custom == "" {
		return extractPromptHeader
	}
	return extractPromptHeader + "\n\nAdditional instructions:\n" + custom
}
