package domain

type ExtractionMethod string

const (
	MethodSourceField ExtractionMethod = "source_field"
	MethodRegex       ExtractionMethod = "regex"
	MethodKeyword     ExtractionMethod = "keyword"
	MethodPosition    ExtractionMethod = "position"
)

// ConfigSource identifies which configuration layer produced a rule or a
// resolved prompt. Ordering matters for the specificity bonus: document
// overrides beat company config, which beats format and global layers.
type ConfigSource string

const (
	SourceDocument ConfigSource = "document"
	SourceCompany  ConfigSource = "company"
	SourceFormat   ConfigSource = "format"
	SourceGlobal   ConfigSource = "global"
	SourceDefault  ConfigSource = "default"
)

// ExtractionPattern is the tagged, schema-versioned form of what the
// original system stored as an opaque JSON blob. Exactly the fields for
// the declared Method are consulted; the loader validates the rest.
type ExtractionPattern struct {
	SchemaVersion int              `json:"schema_version"`
	Method        ExtractionMethod `json:"method"`

	// source_field
	SourceFieldName string `json:"source_field_name,omitempty"`

	// regex
	Pattern    string `json:"pattern,omitempty"`
	Flags      string `json:"flags,omitempty"`
	GroupIndex int    `json:"group_index,omitempty"`

	// keyword
	Keywords    []string `json:"keywords,omitempty"`
	MaxDistance int      `json:"max_distance,omitempty"`

	// position (declared but not executed; kept for forward compatibility)
	Page   int        `json:"page,omitempty"`
	Region *RuleRegion `json:"region,omitempty"`

	ConfidenceBoost float64 `json:"confidence_boost,omitempty"`
}

type RuleRegion struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MappingRule maps raw extracted content onto one canonical field.
type MappingRule struct {
	ID                string            `json:"id"`
	FieldName         string            `json:"field_name"`
	FieldLabel        string            `json:"field_label,omitempty"`
	Extraction        ExtractionPattern `json:"extraction"`
	Priority          int               `json:"priority"`
	Required          bool              `json:"required"`
	ValidationPattern string            `json:"validation_pattern,omitempty"`
	DefaultValue      string            `json:"default_value,omitempty"`
	Source            ConfigSource      `json:"source"`
}

// ResolvedConfig is the layered configuration the pipeline runs with:
// the winning prompt, the merged rule set, and which layer each came from.
type ResolvedConfig struct {
	Prompt       string        `json:"prompt,omitempty"`
	PromptSource ConfigSource  `json:"prompt_source"`
	Rules        []MappingRule `json:"rules"`
	RuleSource   ConfigSource  `json:"rule_source"`
}

// FieldMappingResult is one successfully mapped canonical field.
type FieldMappingResult struct {
	Value           string           `json:"value"`
	RawValue        string           `json:"raw_value"`
	Confidence      float64          `json:"confidence"`
	Source          ConfigSource     `json:"source"`
	RuleID          string           `json:"rule_id,omitempty"`
	Method          ExtractionMethod `json:"method"`
	Validated       bool             `json:"validated"`
	ValidationError string           `json:"validation_error,omitempty"`
}

// UnmappedField records why a field could not be resolved; its raw value
// feeds vocabulary learning downstream.
type UnmappedField struct {
	Reason   string   `json:"reason"`
	Attempts []string `json:"attempts,omitempty"`
	RawValue string   `json:"raw_value,omitempty"`
}

// MappingStatistics summarise one mapping pass for observability and the
// configuration-source confidence dimension.
type MappingStatistics struct {
	TotalFields       int                  `json:"total_fields"`
	MappedFields      int                  `json:"mapped_fields"`
	UnmappedFields    int                  `json:"unmapped_fields"`
	RequiredFields    int                  `json:"required_fields"`
	RequiredMapped    int                  `json:"required_mapped"`
	AverageConfidence float64              `json:"average_confidence"`
	PerSource         map[ConfigSource]int `json:"per_source,omitempty"`
	ProcessingTimeMS  int64                `json:"processing_time_ms"`
}
