package domain

import "time"

type PipelineStatus string

const (
	PipelineRunning   PipelineStatus = "running"
	PipelineCompleted PipelineStatus = "completed"
	PipelineFailed    PipelineStatus = "failed"
)

type StepID string

// Canonical execution order. The factory builds handlers in exactly this
// sequence; the orchestrator never reorders them.
const (
	StepFileTypeDetection StepID = "file_type_detection"
	StepSmartRouting      StepID = "smart_routing"
	StepIssuerIdentify    StepID = "issuer_identification"
	StepFormatMatching    StepID = "format_matching"
	StepConfigFetching    StepID = "config_fetching"
	StepPrimaryExtraction StepID = "primary_extraction"
	StepVisionExtraction  StepID = "vision_extraction"
	StepFieldMapping      StepID = "field_mapping"
	StepTermRecording     StepID = "term_recording"
	StepConfidenceCalc    StepID = "confidence_calculation"
	StepRoutingDecision   StepID = "routing_decision"
)

func StepOrder() []StepID {
	return []StepID{
		StepFileTypeDetection,
		StepSmartRouting,
		StepIssuerIdentify,
		StepFormatMatching,
		StepConfigFetching,
		StepPrimaryExtraction,
		StepVisionExtraction,
		StepFieldMapping,
		StepTermRecording,
		StepConfidenceCalc,
		StepRoutingDecision,
	}
}

// DefaultStepTimeout applies to steps whose policy omits a timeout.
const DefaultStepTimeout = 60 * time.Second

type StepPriority string

const (
	PriorityRequired StepPriority = "required"
	PriorityOptional StepPriority = "optional"
)

// DefaultStepPriority marks the structural steps the rest of the run
// depends on as required; everything else degrades to a warning.
func DefaultStepPriority(id StepID) StepPriority {
	switch id {
	case StepFileTypeDetection,
		StepSmartRouting,
		StepConfigFetching,
		StepFieldMapping,
		StepConfidenceCalc,
		StepRoutingDecision:
		return PriorityRequired
	}
	return PriorityOptional
}

// StepConfig is the static per-step policy loaded once at startup.
type StepConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Priority   StepPriority  `yaml:"priority"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
}

// StepResult is the append-only outcome record of one executed step.
type StepResult struct {
	Step     StepID        `json:"step"`
	Success  bool          `json:"success"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
	Data     any           `json:"data,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// ProcessingFlags carry per-call feature switches the API layer may
// override; zero value means "use the configured defaults".
type ProcessingFlags struct {
	UsePipeline   bool
	ForceLegacy   bool
	TermAutoSave  bool
	NotifySteps   bool
	VisionEnabled bool
}

// ProcessingContext is the single mutable object threaded through every
// step of one run. It is never shared across runs.
type ProcessingContext struct {
	Input       ProcessFileInput
	Flags       ProcessingFlags
	StartedAt   time.Time
	CurrentStep StepID
	Status      PipelineStatus

	FileType         FileType
	ProcessingMethod ProcessingMethod

	Primary *StructuredExtraction
	Vision  *VisionExtraction
	Issuer  *IssuerIdentification
	Format  *FormatMatch
	Config  *ResolvedConfig

	MappedFields   map[string]FieldMappingResult
	UnmappedFields map[string]UnmappedField
	MappingStats   *MappingStatistics

	Terms      *TermDetectionResult
	Confidence *ConfidenceCalculationResult
	Routing    *RoutingDecisionResult

	StepResults []StepResult
	Warnings    []string
}

func NewProcessingContext(input ProcessFileInput, flags ProcessingFlags) *ProcessingContext {
	return &ProcessingContext{
		Input:     input,
		Flags:     flags,
		StartedAt: time.Now().UTC(),
		Status:    PipelineRunning,
	}
}

func (c *ProcessingContext) AddWarning(msg string) {
	if msg == "" {
		return
	}
	c.Warnings = append(c.Warnings, msg)
}

func (c *ProcessingContext) AppendStepResult(res StepResult) {
	c.StepResults = append(c.StepResults, res)
}

// ExtractedText returns the best text representation gathered so far:
// the primary extractor's text when present, else the vision transcript.
func (c *ProcessingContext) ExtractedText() string {
	if c.Primary != nil && c.Primary.Text != "" {
		return c.Primary.Text
	}
	if c.Vision != nil {
		return c.Vision.Text
	}
	return ""
}

// ExtractionConfidence reports the confidence of whichever extractor
// produced the data used downstream, or -1 when nothing extracted.
func (c *ProcessingContext) ExtractionConfidence() float64 {
	if c.Primary != nil {
		return c.Primary.Confidence
	}
	if c.Vision != nil {
		return c.Vision.Confidence
	}
	return -1
}
