package model

import (
	"fmt"

	"persona-chat-client/internal/domain"
)

// ModelInfo holds the static capability limits and pricing for one
// completion model.
type ModelInfo struct {
	MaxTokens           int
	PromptCostPer1K     float64
	CompletionCostPer1K float64
}

var knownModels = map[string]ModelInfo{
	"gpt-3.5-turbo":       {MaxTokens: 4096, PromptCostPer1K: 0.0015, CompletionCostPer1K: 0.002},
	"gpt-3.5-turbo-16k":   {MaxTokens: 16384, PromptCostPer1K: 0.003, CompletionCostPer1K: 0.004},
	"gpt-4":               {MaxTokens: 8192, PromptCostPer1K: 0.03, CompletionCostPer1K: 0.06},
	"gpt-4-32k":           {MaxTokens: 32768, PromptCostPer1K: 0.06, CompletionCostPer1K: 0.12},
	"gpt-4-turbo-preview": {MaxTokens: 128000, PromptCostPer1K: 0.01, CompletionCostPer1K: 0.03},
	"gpt-4o":              {MaxTokens: 128000, PromptCostPer1K: 0.005, CompletionCostPer1K: 0.015},
	"gpt-4o-mini":         {MaxTokens: 128000, PromptCostPer1K: 0.00015, CompletionCostPer1K: 0.0006},
}

// LookupModel resolves a model identifier to its limits and pricing.
func LookupModel(name string) (ModelInfo, error) {
	info, ok := knownModels[name]
	if !ok {
		return ModelInfo{}, fmt.Errorf("model %q: %w", name, domain.ErrModelNotFound)
	}
	return info, nil
}

// KnownModels lists the registered model identifiers.
func KnownModels() []string {
	names := make([]string, 0, len(knownModels))
	for name := range knownModels {
		names = append(names, name)
	}
	return names
}
