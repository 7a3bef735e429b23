// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/PortfolioLocal/services/portfolio/datatypes"
)

// chatCompleter is the slice of the OpenAI client the patcher uses.
// Narrowed for testability.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Patcher generates patch batches from source text.
type Patcher struct {
	client chatCompleter
	model  string
	logger *slog.Logger
}

// NewPatcher creates a patcher using the given OpenAI client and model.
func NewPatcher(client *openai.Client, model string, logger *slog.Logger) *Patcher {
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Patcher{client: client, model: model, logger: logger}
}

const extractorSystemPrompt = `You are a strict data extractor for a portfolio website.
You receive source text and a target section with its JSON shape.
Respond with a single JSON object whose keys are field paths under the target
and whose values match the shape. Rules:
- Extract only facts present in the source text. Never invent content.
- Omit fields the source text does not support.
- Use the exact field names from the shape.
- Output JSON only, no commentary.`

// Generate extracts a patch batch for the target path from the source text.
//
// Description:
//
//	Sends the source text and the target's canonical shape to the model
//	in JSON mode and converts the returned object into update items. When
//	the target is a whole list section and the model returns a lone
//	object, the object is wrapped in a list; the patch pipeline's
//	normalization handles the rest.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	targetPath - Portfolio section or field to patch, e.g. "experience".
//	sourceText - Resume or free-form text to extract from.
//
// Outputs:
//
//	[]datatypes.UpdateItem - Ordered update items, one per extracted field.
//	error - Non-nil on invalid target, API failure, or unusable output.
func (p *Patcher) Generate(ctx context.Context, targetPath, sourceText string) ([]datatypes.UpdateItem, error) {
	schema, err := SchemaFor(targetPath)
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf("Target: %s\nShape:\n%s\n\nSource text:\n%s",
		targetPath, schema, sourceText)

	p.logger.Debug("generating portfolio patch",
		slog.String("target", targetPath),
		slog.String("model", p.model),
		slog.Int("source_chars", len(sourceText)))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		p.logger.Error("OpenAI API call failed", "error", err)
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	return p.toUpdates(targetPath, resp.Choices[0].Message.Content)
}

// toUpdates converts the model's JSON object into update items.
func (p *Patcher) toUpdates(targetPath, content string) ([]datatypes.UpdateItem, error) {
	var extracted map[string]any
	if err := json.Unmarshal([]byte(content), &extracted); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}
	if len(extracted) == 0 {
		return nil, fmt.Errorf("model extracted nothing for %s", targetPath)
	}

	// A whole-list target extracted as one object means the model skipped
	// the wrapping list.
	if TargetIsList(targetPath) && !looksLikePatchKeys(extracted, targetPath) {
		return []datatypes.UpdateItem{
			{Field: targetPath, Value: []any{extracted}},
		}, nil
	}

	updates := make([]datatypes.UpdateItem, 0, len(extracted))
	keys := make([]string, 0, len(extracted))
	for k := range extracted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field := k
		if !strings.HasPrefix(field, targetPath) {
			// Model emitted a bare field name relative to the target.
			field = targetPath + "." + field
		}
		updates = append(updates, datatypes.UpdateItem{Field: field, Value: extracted[k]})
	}
	return updates, nil
}

// looksLikePatchKeys reports whether the object's keys are field paths
// (contain the target or a separator) rather than entity fields.
func looksLikePatchKeys(extracted map[string]any, targetPath string) bool {
	for k := range extracted {
		if strings.HasPrefix(k, targetPath) || strings.ContainsAny(k, ".[") {
			return true
		}
	}
	return false
}
