package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// ConfigFetching resolves the layered prompt and mapping rules for the
// document. The resolver walks document > company > format > global and
// records which layer won; with neither issuer nor format identified it
// still returns the global layer, so this step always applies.
type ConfigFetching struct {
	resolver ports.ConfigResolver
}

func NewConfigFetching(resolver ports.ConfigResolver) *ConfigFetching {
	return &ConfigFetching{resolver: resolver}
}

func (s *ConfigFetching) ID() domain.StepID { return domain.StepConfigFetching }

func (s *ConfigFetching) Applicable(*domain.ProcessingContext) bool { return true }

func (s *ConfigFetching) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	var companyID, formatID string
	if pctx.Issuer != nil {
		companyID = pctx.Issuer.CompanyID
	}
	if pctx.Format != nil {
		formatID = pctx.Format.FormatID
	}

	resolved, err := s.resolver.Resolve(ctx, pctx.Input.FileID, companyID, formatID)
	if err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}

	pctx.Config = resolved
	return map[string]any{
		"prompt_source": resolved.PromptSource,
		"rule_count":    len(resolved.Rules),
	}, nil
}
