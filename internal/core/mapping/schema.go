package mapping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// extractionPatternSchema rejects malformed rule blobs at load time
// instead of letting a bad pattern surface mid-run as a cast failure.
const extractionPatternSchema = `{
	"type": "object",
	"required": ["schema_version", "method"],
	"properties": {
		"schema_version": {"type": "integer", "minimum": 1},
		"method": {"enum": ["source_field", "regex", "keyword", "position"]},
		"source_field_name": {"type": "string"},
		"pattern": {"type": "string"},
		"flags": {"type": "string", "pattern": "^[ims]*$"},
		"group_index": {"type": "integer", "minimum": 0},
		"keywords": {"type": "array", "items": {"type": "string"}, "minItems": 1},
		"max_distance": {"type": "integer", "minimum": 1},
		"page": {"type": "integer", "minimum": 1},
		"region": {
			"type": "object",
			"required": ["top", "left", "width", "height"],
			"properties": {
				"top": {"type": "number"},
				"left": {"type": "number"},
				"width": {"type": "number"},
				"height": {"type": "number"}
			}
		},
		"confidence_boost": {"type": "number"}
	},
	"allOf": [
		{
			"if": {"properties": {"method": {"const": "source_field"}}},
			"then": {"required": ["source_field_name"]}
		},
		{
			"if": {"properties": {"method": {"const": "regex"}}},
			"then": {"required": ["pattern"]}
		},
		{
			"if": {"properties": {"method": {"const": "keyword"}}},
			"then": {"required": ["keywords"]}
		},
		{
			"if": {"properties": {"method": {"const": "position"}}},
			"then": {"required": ["region"]}
		}
	]
}`

var patternSchema = jsonschema.MustCompileString("extraction_pattern.json", extractionPatternSchema)

// ParseExtractionPattern validates a stored extraction-pattern blob and
// decodes it into its tagged form. Unknown methods and missing
// method-specific fields fail here, at load time.
func ParseExtractionPattern(raw []byte) (domain.ExtractionPattern, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return domain.ExtractionPattern{}, domain.WrapError(domain.ErrInvalidInput, "parse extraction pattern", err)
	}
	if err := patternSchema.Validate(generic); err != nil {
		return domain.ExtractionPattern{}, domain.WrapError(domain.ErrInvalidInput, "validate extraction pattern",
			fmt.Errorf("%s", compactSchemaError(err)))
	}

	var pattern domain.ExtractionPattern
	if err := json.Unmarshal(raw, &pattern); err != nil {
		return domain.ExtractionPattern{}, domain.WrapError(domain.ErrInvalidInput, "decode extraction pattern", err)
	}
	return pattern, nil
}

func compactSchemaError(err error) string {
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx > 0 {
		msg = msg[:idx]
	}
	return msg
}
