// Package mapping converts raw extracted key/value pairs into the
// canonical field schema through the three-tier rule hierarchy.
package mapping

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// Base confidence per extraction method; a rule's boost is added on top,
// capped at 100.
var baseConfidence = map[domain.ExtractionMethod]float64{
	domain.MethodSourceField: 90,
	domain.MethodRegex:       85,
	domain.MethodKeyword:     75,
	domain.MethodPosition:    70,
}

// tierRank orders configuration layers; lower rank wins.
var tierRank = map[domain.ConfigSource]int{
	domain.SourceDocument: 0,
	domain.SourceCompany:  1,
	domain.SourceFormat:   2,
	domain.SourceGlobal:   3,
	domain.SourceDefault:  4,
}

// Input is one mapping pass over a single document.
type Input struct {
	Text         string
	SourceFields map[string]domain.ExtractedField
	Rules        []domain.MappingRule
}

type Output struct {
	Mapped     map[string]domain.FieldMappingResult
	Unmapped   map[string]domain.UnmappedField
	Statistics domain.MappingStatistics
}

type Mapper struct {
	logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

func (m *Mapper) Map(in Input) Output {
	start := time.Now()

	out := Output{
		Mapped:   make(map[string]domain.FieldMappingResult),
		Unmapped: make(map[string]domain.UnmappedField),
	}

	byField := make(map[string][]domain.MappingRule)
	for _, rule := range in.Rules {
		byField[rule.FieldName] = append(byField[rule.FieldName], rule)
	}

	requiredTotal, requiredMapped := 0, 0
	perSource := make(map[domain.ConfigSource]int)

	for fieldName, rules := range byField {
		sortRules(rules)
		if isRequired(rules) {
			requiredTotal++
		}

		result, attempts := m.extractField(fieldName, rules, in)
		if result != nil {
			out.Mapped[fieldName] = *result
			perSource[result.Source]++
			if isRequired(rules) {
				requiredMapped++
			}
			continue
		}

		out.Unmapped[fieldName] = domain.UnmappedField{
			Reason:   "no_matching_rule",
			Attempts: attempts,
			RawValue: rawValueFor(fieldName, in.SourceFields),
		}
	}

	out.Statistics = buildStatistics(out, len(byField), requiredTotal, requiredMapped, perSource, time.Since(start))
	return out
}

// extractField tries every rule for one canonical field in tier order and
// returns the first hit, plus the methods attempted.
func (m *Mapper) extractField(fieldName string, rules []domain.MappingRule, in Input) (*domain.FieldMappingResult, []string) {
	attempts := make([]string, 0, len(rules))
	for _, rule := range rules {
		attempts = append(attempts, string(rule.Extraction.Method))

		var result *domain.FieldMappingResult
		switch rule.Extraction.Method {
		case domain.MethodSourceField:
			result = m.extractSourceField(rule, in.SourceFields)
		case domain.MethodRegex:
			result = m.extractRegex(rule, in.Text)
		case domain.MethodKeyword:
			result = m.extractKeyword(rule, in.Text)
		case domain.MethodPosition:
			// Position extraction needs layout geometry the text layer
			// does not carry; the attempt is recorded and skipped.
			continue
		default:
			m.logger.Warn("unknown_extraction_method", "field", fieldName, "method", rule.Extraction.Method)
			continue
		}

		if result != nil && result.Value != "" {
			return result, attempts
		}
	}
	return nil, attempts
}

func (m *Mapper) extractSourceField(rule domain.MappingRule, sourceFields map[string]domain.ExtractedField) *domain.FieldMappingResult {
	if len(sourceFields) == 0 {
		return nil
	}
	name := rule.Extraction.SourceFieldName
	if name == "" {
		return nil
	}

	field, ok := sourceFields[name]
	if !ok {
		// Provider field names vary in casing between models.
		lower := strings.ToLower(name)
		for key, candidate := range sourceFields {
			if strings.ToLower(key) == lower {
				field, ok = candidate, true
				break
			}
		}
	}
	if !ok || field.Value == "" {
		return nil
	}

	return m.finishResult(rule, field.Value, baseConfidence[domain.MethodSourceField])
}

func (m *Mapper) extractRegex(rule domain.MappingRule, text string) *domain.FieldMappingResult {
	pattern := rule.Extraction.Pattern
	if pattern == "" || text == "" {
		return nil
	}

	re, err := compileWithFlags(pattern, rule.Extraction.Flags)
	if err != nil {
		m.logger.Warn("invalid_regex_pattern", "rule_id", rule.ID, "pattern", pattern, "error", err)
		return nil
	}

	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	groupIndex := rule.Extraction.GroupIndex
	raw := match[0]
	if groupIndex > 0 && groupIndex < len(match) {
		raw = match[groupIndex]
	}
	if raw == "" {
		return nil
	}

	return m.finishResult(rule, raw, baseConfidence[domain.MethodRegex])
}

func (m *Mapper) extractKeyword(rule domain.MappingRule, text string) *domain.FieldMappingResult {
	keywords := rule.Extraction.Keywords
	if len(keywords) == 0 || text == "" {
		return nil
	}

	maxDistance := rule.Extraction.MaxDistance
	if maxDistance <= 0 {
		maxDistance = 50
	}
	textLower := strings.ToLower(text)

	for _, keyword := range keywords {
		idx := strings.Index(textLower, strings.ToLower(keyword))
		if idx < 0 {
			continue
		}

		start := idx + len(keyword)
		end := start + maxDistance
		if end > len(text) {
			end = len(text)
		}
		value := valueAfterKeyword(text[start:end])
		if value == "" {
			continue
		}

		return m.finishResult(rule, value, baseConfidence[domain.MethodKeyword])
	}
	return nil
}

// finishResult normalizes, validates and scores one raw hit.
func (m *Mapper) finishResult(rule domain.MappingRule, raw string, base float64) *domain.FieldMappingResult {
	confidence := base + rule.Extraction.ConfidenceBoost
	if confidence > 100 {
		confidence = 100
	}

	normalized := NormalizeValue(raw, rule.FieldName)
	validated, validationErr := m.validate(normalized, rule.ValidationPattern)

	return &domain.FieldMappingResult{
		Value:           normalized,
		RawValue:        raw,
		Confidence:      confidence,
		Source:          rule.Source,
		RuleID:          rule.ID,
		Method:          rule.Extraction.Method,
		Validated:       validated,
		ValidationError: validationErr,
	}
}

func (m *Mapper) validate(value, pattern string) (bool, string) {
	if pattern == "" || value == "" {
		return true, ""
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// An unusable validation pattern must not reject real data.
		m.logger.Warn("invalid_validation_pattern", "pattern", pattern, "error", err)
		return true, ""
	}
	if re.MatchString(value) {
		return true, ""
	}
	return false, fmt.Sprintf("value does not match pattern: %s", pattern)
}

var afterKeywordRe = regexp.MustCompile(`^([^\n\r|]{1,100})`)

// valueAfterKeyword pulls the value following a matched keyword: content
// up to the line end or next major separator, trimmed of punctuation.
func valueAfterKeyword(context string) string {
	context = strings.TrimLeft(context, " :\t\n")
	if context == "" {
		return ""
	}
	match := afterKeywordRe.FindStringSubmatch(context)
	if match == nil {
		return ""
	}
	value := strings.TrimSpace(match[1])
	value = strings.TrimRight(value, ",;: \t")
	return value
}

func compileWithFlags(pattern, flags string) (*regexp.Regexp, error) {
	var prefix string
	if strings.Contains(flags, "i") {
		prefix += "i"
	}
	if strings.Contains(flags, "m") {
		prefix += "m"
	}
	if strings.Contains(flags, "s") {
		prefix += "s"
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}
	return regexp.Compile(pattern)
}

func sortRules(rules []domain.MappingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		ri, rj := tierRank[rules[i].Source], tierRank[rules[j].Source]
		if ri != rj {
			return ri < rj
		}
		return rules[i].Priority > rules[j].Priority
	})
}

func isRequired(rules []domain.MappingRule) bool {
	for _, r := range rules {
		if r.Required {
			return true
		}
	}
	return false
}

func rawValueFor(fieldName string, sourceFields map[string]domain.ExtractedField) string {
	if field, ok := sourceFields[fieldName]; ok {
		return field.Value
	}
	lower := strings.ToLower(fieldName)
	for key, field := range sourceFields {
		if strings.ToLower(key) == lower {
			return field.Value
		}
	}
	return ""
}

func buildStatistics(out Output, total, requiredTotal, requiredMapped int, perSource map[domain.ConfigSource]int, elapsed time.Duration) domain.MappingStatistics {
	avg := 0.0
	if len(out.Mapped) > 0 {
		sum := 0.0
		for _, r := range out.Mapped {
			sum += r.Confidence
		}
		avg = sum / float64(len(out.Mapped))
	}
	return domain.MappingStatistics{
		TotalFields:       total,
		MappedFields:      len(out.Mapped),
		UnmappedFields:    len(out.Unmapped),
		RequiredFields:    requiredTotal,
		RequiredMapped:    requiredMapped,
		AverageConfidence: avg,
		PerSource:         perSource,
		ProcessingTimeMS:  elapsed.Milliseconds(),
	}
}
