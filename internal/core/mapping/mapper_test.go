package mapping

import (
	"testing"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

func TestMapSourceFieldRuleLiftsProviderField(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		SourceFields: map[string]domain.ExtractedField{
			"InvoiceId": {Value: "INV-1001", Confidence: 97},
		},
		Rules: []domain.MappingRule{{
			ID:        "r1",
			FieldName: "invoice_number",
			Extraction: domain.ExtractionPattern{
				Method:          domain.MethodSourceField,
				SourceFieldName: "invoiceid",
			},
			Required: true,
			Source:   domain.SourceGlobal,
		}},
	})

	mapped, ok := out.Mapped["invoice_number"]
	if !ok {
		t.Fatalf("invoice_number not mapped: %+v", out.Unmapped)
	}
	if mapped.Value != "INV-1001" {
		t.Fatalf("value = %q, want INV-1001", mapped.Value)
	}
	if mapped.Confidence != 90 {
		t.Fatalf("confidence = %.1f, want source_field base 90", mapped.Confidence)
	}
	if out.Statistics.RequiredMapped != 1 || out.Statistics.RequiredFields != 1 {
		t.Fatalf("required stats = %d/%d, want 1/1",
			out.Statistics.RequiredMapped, out.Statistics.RequiredFields)
	}
}

func TestMapTierOrderMoreSpecificLayerWins(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		SourceFields: map[string]domain.ExtractedField{
			"global_name":  {Value: "from-global"},
			"company_name": {Value: "from-company"},
		},
		Rules: []domain.MappingRule{
			{
				ID:        "r-global",
				FieldName: "account",
				Extraction: domain.ExtractionPattern{
					Method:          domain.MethodSourceField,
					SourceFieldName: "global_name",
				},
				Source: domain.SourceGlobal,
			},
			{
				ID:        "r-company",
				FieldName: "account",
				Extraction: domain.ExtractionPattern{
					Method:          domain.MethodSourceField,
					SourceFieldName: "company_name",
				},
				Source: domain.SourceCompany,
			},
		},
	})

	mapped := out.Mapped["account"]
	if mapped.RuleID != "r-company" {
		t.Fatalf("winning rule = %s, want company layer over global", mapped.RuleID)
	}
	if mapped.Value != "from-company" {
		t.Fatalf("value = %q, want from-company", mapped.Value)
	}
}

func TestMapFallsThroughToNextRuleWhenFirstMisses(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		Text: "Invoice Number: INV-2026-001\nTotal: 100.00",
		Rules: []domain.MappingRule{
			{
				ID:        "r-source",
				FieldName: "invoice_number",
				Extraction: domain.ExtractionPattern{
					Method:          domain.MethodSourceField,
					SourceFieldName: "missing_field",
				},
				Source: domain.SourceCompany,
			},
			{
				ID:        "r-regex",
				FieldName: "invoice_number",
				Extraction: domain.ExtractionPattern{
					Method:     domain.MethodRegex,
					Pattern:    `INV-\d{4}-\d{3}`,
					GroupIndex: 0,
				},
				Source: domain.SourceGlobal,
			},
		},
	})

	mapped, ok := out.Mapped["invoice_number"]
	if !ok {
		t.Fatalf("invoice_number not mapped")
	}
	if mapped.Method != domain.MethodRegex || mapped.Value != "INV-2026-001" {
		t.Fatalf("fallback result = %+v", mapped)
	}
	if mapped.Confidence != 85 {
		t.Fatalf("confidence = %.1f, want regex base 85", mapped.Confidence)
	}
}

func TestMapRegexFlagsAndGroupIndex(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		Text: "reference: abc-991",
		Rules: []domain.MappingRule{{
			ID:        "r1",
			FieldName: "reference",
			Extraction: domain.ExtractionPattern{
				Method:     domain.MethodRegex,
				Pattern:    `REFERENCE:\s*([a-z]+-\d+)`,
				Flags:      "i",
				GroupIndex: 1,
			},
			Source: domain.SourceGlobal,
		}},
	})

	mapped := out.Mapped["reference"]
	if mapped.Value != "abc-991" {
		t.Fatalf("value = %q, want abc-991", mapped.Value)
	}
}

func TestMapKeywordExtractionStopsAtLineEnd(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		Text: "Account Number: 4419-200\nNext line content",
		Rules: []domain.MappingRule{{
			ID:        "r1",
			FieldName: "account_number",
			Extraction: domain.ExtractionPattern{
				Method:   domain.MethodKeyword,
				Keywords: []string{"Account Number"},
			},
			Source: domain.SourceGlobal,
		}},
	})

	mapped := out.Mapped["account_number"]
	if mapped.Value != "4419-200" {
		t.Fatalf("value = %q, want 4419-200", mapped.Value)
	}
	if mapped.Confidence != 75 {
		t.Fatalf("confidence = %.1f, want keyword base 75", mapped.Confidence)
	}
}

func TestMapConfidenceBoostIsCapped(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		SourceFields: map[string]domain.ExtractedField{
			"vendor": {Value: "Acme"},
		},
		Rules: []domain.MappingRule{{
			ID:        "r1",
			FieldName: "vendor_name",
			Extraction: domain.ExtractionPattern{
				Method:          domain.MethodSourceField,
				SourceFieldName: "vendor",
				ConfidenceBoost: 50,
			},
			Source: domain.SourceDocument,
		}},
	})

	if got := out.Mapped["vendor_name"].Confidence; got != 100 {
		t.Fatalf("confidence = %.1f, want capped 100", got)
	}
}

func TestMapValidationFailureKeepsValueButFlagsIt(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		SourceFields: map[string]domain.ExtractedField{
			"invoice_number": {Value: "not-a-number"},
		},
		Rules: []domain.MappingRule{{
			ID:        "r1",
			FieldName: "invoice_number",
			Extraction: domain.ExtractionPattern{
				Method:          domain.MethodSourceField,
				SourceFieldName: "invoice_number",
			},
			ValidationPattern: `^\d+$`,
			Source:            domain.SourceGlobal,
		}},
	})

	mapped := out.Mapped["invoice_number"]
	if mapped.Validated {
		t.Fatalf("expected validation failure")
	}
	if mapped.Value != "not-a-number" {
		t.Fatalf("value dropped on validation failure: %q", mapped.Value)
	}
	if mapped.ValidationError == "" {
		t.Fatalf("missing validation error detail")
	}
}

func TestMapPositionRulesAreRecordedButSkipped(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		Text: "anything",
		Rules: []domain.MappingRule{{
			ID:        "r1",
			FieldName: "stamp",
			Extraction: domain.ExtractionPattern{
				Method: domain.MethodPosition,
				Page:   1,
			},
			Source: domain.SourceFormat,
		}},
	})

	unmapped, ok := out.Unmapped["stamp"]
	if !ok {
		t.Fatalf("position-only field should stay unmapped")
	}
	if len(unmapped.Attempts) != 1 || unmapped.Attempts[0] != string(domain.MethodPosition) {
		t.Fatalf("attempts = %v, want recorded position attempt", unmapped.Attempts)
	}
}

func TestMapStatisticsCountPerSource(t *testing.T) {
	mapper := NewMapper(nil)

	out := mapper.Map(Input{
		SourceFields: map[string]domain.ExtractedField{
			"a": {Value: "1"},
			"b": {Value: "2"},
		},
		Rules: []domain.MappingRule{
			{
				ID: "r1", FieldName: "field_a",
				Extraction: domain.ExtractionPattern{Method: domain.MethodSourceField, SourceFieldName: "a"},
				Source:     domain.SourceCompany,
			},
			{
				ID: "r2", FieldName: "field_b",
				Extraction: domain.ExtractionPattern{Method: domain.MethodSourceField, SourceFieldName: "b"},
				Source:     domain.SourceGlobal,
			},
			{
				ID: "r3", FieldName: "field_c",
				Extraction: domain.ExtractionPattern{Method: domain.MethodSourceField, SourceFieldName: "missing"},
				Source:     domain.SourceGlobal,
			},
		},
	})

	stats := out.Statistics
	if stats.TotalFields != 3 || stats.MappedFields != 2 || stats.UnmappedFields != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.PerSource[domain.SourceCompany] != 1 || stats.PerSource[domain.SourceGlobal] != 1 {
		t.Fatalf("per-source counts = %v", stats.PerSource)
	}
}

func TestNormalizeValueDates(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-03-15", "2026-03-15"},
		{"03/15/2026", "2026-03-15"},
		{"15.03.2026", "2026-03-15"},
		{"15 March 2026", "2026-03-15"},
		{"5 Mar 2026", "2026-03-05"},
	}
	for _, tc := range cases {
		if got := NormalizeValue(tc.in, "invoice_date"); got != tc.want {
			t.Fatalf("NormalizeValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeValueAmounts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"$1,234.56", "1234.56"},
		{"EUR 99,50", "99.50"},
		{"100", "100.00"},
	}
	for _, tc := range cases {
		if got := NormalizeValue(tc.in, "total_amount"); got != tc.want {
			t.Fatalf("NormalizeValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeValueWeightStripsUnits(t *testing.T) {
	if got := NormalizeValue("12.5 kg", "gross_weight"); got != "12.50" {
		t.Fatalf("NormalizeValue weight = %q, want 12.50", got)
	}
}

func TestNormalizeValuePassthroughForUnrecognized(t *testing.T) {
	if got := NormalizeValue("whenever", "invoice_date"); got != "whenever" {
		t.Fatalf("unparseable date should pass through, got %q", got)
	}
}
