package core

import (
	"fmt"
	"strings"
)

// GenerationRequest is a styling request for one site.
type GenerationRequest struct {
	SiteID string `json:"siteId"`
	Prompt string `json:"prompt"`
}

// Validate checks the fields every generation needs.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.SiteID) == "" {
		return fmt.Errorf("%w: siteId is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	return nil
}

// GenerationResult is the sanitized stylesheet returned to callers.
type GenerationResult struct {
	CSS         string  `json:"css"`
	Explanation *string `json:"explanation"`
}
