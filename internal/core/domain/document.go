package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeScanPDF FileType = "scanned_pdf"
	FileTypeImage   FileType = "image"
	FileTypeUnknown FileType = "unknown"
)

// TextBearing reports whether the file carries a digital text layer that a
// structured extractor can read directly. Scanned PDFs and images do not.
func (t FileType) TextBearing() bool {
	return t == FileTypePDF
}

type ProcessingMethod string

const (
	MethodDual       ProcessingMethod = "dual"
	MethodVisionOnly ProcessingMethod = "vision_only"
	MethodLegacy     ProcessingMethod = "legacy"
)

// Document is the persisted record of one uploaded file and, once the
// pipeline has run, its processing outcome.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	CompanyID   string         `json:"company_id,omitempty"`
	FormatID    string         `json:"format_id,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	Result      *ProcessResult `json:"result,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProcessFileInput is the immutable per-run input to the pipeline.
type ProcessFileInput struct {
	FileID   string
	Content  []byte
	MimeType string
	FileName string
}

// ProcessResult is the single result shape callers observe, regardless of
// whether the pipeline or the legacy path produced it.
type ProcessResult struct {
	FileID           string                        `json:"file_id"`
	Status           PipelineStatus                `json:"status"`
	FileType         FileType                      `json:"file_type,omitempty"`
	ProcessingMethod ProcessingMethod              `json:"processing_method,omitempty"`
	CompanyID        string                        `json:"company_id,omitempty"`
	FormatID         string                        `json:"format_id,omitempty"`
	ExtractedText    string                        `json:"extracted_text,omitempty"`
	MappedFields     map[string]FieldMappingResult `json:"mapped_fields,omitempty"`
	UnmappedFields   map[string]UnmappedField      `json:"unmapped_fields,omitempty"`
	Terms            *TermDetectionResult          `json:"terms,omitempty"`
	Confidence       *ConfidenceCalculationResult  `json:"confidence,omitempty"`
	Routing          *RoutingDecisionResult        `json:"routing,omitempty"`
	Steps            []StepResult                  `json:"steps"`
	Warnings         []string                      `json:"warnings,omitempty"`
	Error            string                        `json:"error,omitempty"`
	DurationMS       int64                         `json:"duration_ms"`
}
