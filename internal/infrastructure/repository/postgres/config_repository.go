package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/mapping"
)

// promptLayers is the resolution order: the first layer with an active
// prompt wins. Rules merge across layers instead; the mapper breaks ties
// by tier.
var promptLayers = []domain.ConfigSource{
	domain.SourceDocument,
	domain.SourceCompany,
	domain.SourceFormat,
	domain.SourceGlobal,
}

// ConfigRepository resolves layered prompts and mapping rules.
type ConfigRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewConfigRepository(db *sql.DB, logger *slog.Logger) *ConfigRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigRepository{db: db, logger: logger}
}

func (r *ConfigRepository) Resolve(ctx context.Context, documentID, companyID, formatID string) (*domain.ResolvedConfig, error) {
	resolved := &domain.ResolvedConfig{
		PromptSource: domain.SourceDefault,
		RuleSource:   domain.SourceDefault,
	}

	for _, layer := range promptLayers {
		scopeID := scopeIDFor(layer, documentID, companyID, formatID)
		if layer != domain.SourceGlobal && scopeID == "" {
			continue
		}
		prompt, err := r.lookupPrompt(ctx, layer, scopeID)
		if err != nil {
			return nil, err
		}
		if prompt != "" {
			resolved.Prompt = prompt
			resolved.PromptSource = layer
			break
		}
	}

	ruleSource := domain.SourceDefault
	for _, layer := range promptLayers {
		scopeID := scopeIDFor(layer, documentID, companyID, formatID)
		if layer != domain.SourceGlobal && scopeID == "" {
			continue
		}
		rules, err := r.lookupRules(ctx, layer, scopeID)
		if err != nil {
			return nil, err
		}
		if len(rules) > 0 && ruleSourceRank(layer) < ruleSourceRank(ruleSource) {
			ruleSource = layer
		}
		resolved.Rules = append(resolved.Rules, rules...)
	}
	resolved.RuleSource = ruleSource

	return resolved, nil
}

func (r *ConfigRepository) lookupPrompt(ctx context.Context, layer domain.ConfigSource, scopeID string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT prompt FROM extraction_prompts
WHERE scope_level = $1 AND scope_id = $2 AND active
`, string(layer), scopeID)

	var prompt string
	if err := row.Scan(&prompt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("lookup prompt (%s): %w", layer, err)
	}
	return prompt, nil
}

func (r *ConfigRepository) lookupRules(ctx context.Context, layer domain.ConfigSource, scopeID string) ([]domain.MappingRule, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, field_name, field_label, extraction, priority, required, validation_pattern, default_value
FROM mapping_rules
WHERE scope_level = $1 AND scope_id = $2 AND active
ORDER BY priority DESC, id
`, string(layer), scopeID)
	if err != nil {
		return nil, fmt.Errorf("query rules (%s): %w", layer, err)
	}
	defer rows.Close()

	var rules []domain.MappingRule
	for rows.Next() {
		var rule domain.MappingRule
		var fieldLabel, validationPattern, defaultValue sql.NullString
		var extractionRaw []byte

		if err := rows.Scan(&rule.ID, &rule.FieldName, &fieldLabel, &extractionRaw,
			&rule.Priority, &rule.Required, &validationPattern, &defaultValue); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}

		pattern, err := mapping.ParseExtractionPattern(extractionRaw)
		if err != nil {
			// One malformed rule must not take the whole layer down.
			r.logger.Warn("skipping_invalid_mapping_rule", "rule_id", rule.ID, "error", err)
			continue
		}
		rule.Extraction = pattern
		rule.FieldLabel = fieldLabel.String
		rule.ValidationPattern = validationPattern.String
		rule.DefaultValue = defaultValue.String
		rule.Source = layer
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules (%s): %w", layer, err)
	}
	return rules, nil
}

func scopeIDFor(layer domain.ConfigSource, documentID, companyID, formatID string) string {
	switch layer {
	case domain.SourceDocument:
		return documentID
	case domain.SourceCompany:
		return companyID
	case domain.SourceFormat:
		return formatID
	default:
		return ""
	}
}

func ruleSourceRank(source domain.ConfigSource) int {
	switch source {
	case domain.SourceDocument:
		return 0
	case domain.SourceCompany:
		return 1
	case domain.SourceFormat:
		return 2
	case domain.SourceGlobal:
		return 3
	default:
		return 4
	}
}
