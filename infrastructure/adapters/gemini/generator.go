package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"loupe-backend/application/ports"
)

const followupSystemPrompt = `You suggest continuations for a research session.
Given a research question and its answer, propose follow-up questions that
dig deeper and related concepts worth exploring. Respond with JSON only:
{"questions": ["..."], "concepts": ["..."]}
Give 3 to 5 of each.`

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type followupPayload struct {
	Questions []string `json:"questions"`
	Concepts  []string `json:"concepts"`
}

// GenerateText runs a free-form generation with a system prompt.
func (c *Client) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: userPrompt}}}},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	return c.generate(ctx, req)
}

// GenerateFollowups suggests follow-up questions and related concepts
// for an answered query. The model is forced into JSON mode.
func (c *Client) GenerateFollowups(ctx context.Context, query, answer string) (*ports.FollowupSet, error) {
	userPrompt := fmt.Sprintf("Question: %s\n\nAnswer: %s", query, answer)
	req := generateRequest{
		Contents:          []content{{Role: "user", Parts: []part{{Text: userPrompt}}}},
		SystemInstruction: &content{Parts: []part{{Text: followupSystemPrompt}}},
		GenerationConfig:  &generationConfig{ResponseMIMEType: "application/json"},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var payload followupPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse follow-up response: %w", err)
	}
	return &ports.FollowupSet{
		Questions: payload.Questions,
		Concepts:  payload.Concepts,
	}, nil
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	var resp generateResponse
	if err := c.post(ctx, c.config.GenerationModel, "generateContent", req, &resp); err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
