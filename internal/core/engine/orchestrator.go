package engine

import (
	"context"
	"fmt"

	"github.com/dtrwidget/designassist/internal/ailink/content"
	"github.com/dtrwidget/designassist/internal/core"
)

// Orchestrator runs one generation: admission, image extraction, the upstream
// call and response cleanup.
type Orchestrator struct {
	Limiter   Admitter
	Generator Generator
}

// Admitter decides whether a site may issue another generation.
type Admitter interface {
	CheckAndIncrement(ctx context.Context, siteID string) error
}

// Generator produces raw stylesheet text for an extracted prompt.
type Generator interface {
	Generate(ctx context.Context, prompt content.ExtractedPrompt) (string, error)
}

// Generate validates req, consumes one admission for the site and returns the
// sanitized stylesheet. Errors from admission and generation are returned
// unchanged so the boundary can classify them.
func (o *Orchestrator) Generate(ctx context.Context, req core.GenerationRequest) (*core.GenerationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o == nil || o.Generator == nil {
		return nil, fmt.Errorf("orchestrator is not configured")
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if o.Limiter != nil {
		if err := o.Limiter.CheckAndIncrement(ctx, req.SiteID); err != nil {
			return nil, err
		}
	}

	extracted := content.ExtractDataURLImage(req.Prompt)

	raw, err := o.Generator.Generate(ctx, extracted)
	if err != nil {
		return nil, err
	}

	return &core.GenerationResult{CSS: StripCodeFences(raw)}, nil
}
