// Package identify matches document text against known company patterns
// to determine the issuing organization.
package identify

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// Additive scoring per match type; capped at 100 overall.
const (
	scoreNameMatch    = 40.0
	scoreKeywordMatch = 15.0
	scoreKeywordCap   = 30.0
	scoreFormatMatch  = 20.0
	scoreLogoMatch    = 10.0

	// Identification bands.
	thresholdIdentified  = 80.0
	thresholdNeedsReview = 50.0
)

// CompanyPattern is one company's identification profile: name variants,
// distinctive keywords, tracking-number format regexes and logo captions.
type CompanyPattern struct {
	CompanyID   string
	Code        string
	DisplayName string
	Names       []string
	Keywords    []string
	Formats     []string
	LogoText    []string
	Priority    int
}

// PatternSource supplies the active identification patterns.
type PatternSource interface {
	ListPatterns(ctx context.Context) ([]CompanyPattern, error)
}

type Matcher struct {
	source PatternSource
	logger *slog.Logger
}

func NewMatcher(source PatternSource, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{source: source, logger: logger}
}

func (m *Matcher) Identify(ctx context.Context, text string) (*domain.IssuerIdentification, error) {
	if strings.TrimSpace(text) == "" {
		return unidentified(), nil
	}

	patterns, err := m.source.ListPatterns(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "load identification patterns", err)
	}
	sort.SliceStable(patterns, func(i, j int) bool { return patterns[i].Priority > patterns[j].Priority })

	normalized := normalizeText(text)

	var best *domain.IssuerIdentification
	for _, pattern := range patterns {
		if pattern.Code == "UNKNOWN" {
			continue
		}
		candidate := m.matchPattern(pattern, normalized, text)
		if best == nil || candidate.Confidence > best.Confidence {
			best = candidate
		}
	}

	if best == nil || best.Confidence < thresholdNeedsReview {
		return unidentified(), nil
	}

	m.logger.Info("issuer_identified",
		"company_code", best.CompanyCode,
		"confidence", best.Confidence,
		"method", best.Method,
	)
	return best, nil
}

func (m *Matcher) matchPattern(pattern CompanyPattern, normalized, original string) *domain.IssuerIdentification {
	total := 0.0
	var matched []string
	method := domain.MatchNone

	nameHit := false
	for _, name := range pattern.Names {
		if strings.Contains(normalized, strings.ToLower(name)) {
			if !nameHit {
				total += scoreNameMatch
				method = domain.MatchByName
				nameHit = true
			}
			matched = append(matched, "name:"+name)
		}
	}

	keywordScore := 0.0
	for _, keyword := range pattern.Keywords {
		if strings.Contains(normalized, strings.ToLower(keyword)) {
			add := scoreKeywordMatch
			if remaining := scoreKeywordCap - keywordScore; add > remaining {
				add = remaining
			}
			if add > 0 {
				keywordScore += add
				total += add
				if method == domain.MatchNone {
					method = domain.MatchByKeyword
				}
			}
			matched = append(matched, "keyword:"+keyword)
		}
	}

	for _, format := range pattern.Formats {
		re, err := regexp.Compile("(?i)" + format)
		if err != nil {
			m.logger.Warn("invalid_format_pattern", "company_code", pattern.Code, "pattern", format, "error", err)
			continue
		}
		if re.MatchString(original) {
			total += scoreFormatMatch
			if method == domain.MatchNone {
				method = domain.MatchByFormat
			}
			matched = append(matched, "format:"+format)
			break // format contributes once
		}
	}

	for _, logo := range pattern.LogoText {
		if strings.Contains(normalized, strings.ToLower(logo)) {
			total += scoreLogoMatch
			if method == domain.MatchNone {
				method = domain.MatchByLogo
			}
			matched = append(matched, "logo:"+logo)
			break // logo contributes once
		}
	}

	confidence := total
	if confidence > 100 {
		confidence = 100
	}

	return &domain.IssuerIdentification{
		CompanyID:       pattern.CompanyID,
		CompanyCode:     pattern.Code,
		CompanyName:     pattern.DisplayName,
		Confidence:      confidence,
		Method:          method,
		MatchedPatterns: matched,
		Identified:      confidence >= thresholdIdentified,
		NeedsReview:     confidence >= thresholdNeedsReview && confidence < thresholdIdentified,
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToLower(text), " "))
}

func unidentified() *domain.IssuerIdentification {
	return &domain.IssuerIdentification{
		Confidence: 0,
		Method:     domain.MatchNone,
		Identified: false,
	}
}
