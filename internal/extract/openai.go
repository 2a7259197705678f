package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/styx8114/threatlens/internal/model"
)

// OpenAIClassifier implements the Classifier interface on the OpenAI Chat
// Completions API. It instructs the model to behave as a multi-label
// ATT&CK technique classifier returning per-technique probabilities.
type OpenAIClassifier struct {
	client *openai.Client
	config model.ClassifierConfig
}

// NewOpenAIClassifier creates an OpenAI-backed classifier.
func NewOpenAIClassifier(config model.ClassifierConfig) (*OpenAIClassifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIClassifier) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIClassifier) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

const classifySystemPrompt = `You are a multi-label classifier for MITRE ATT&CK enterprise techniques.
For each numbered input sentence, estimate which technique ids (T#### or T####.###) the sentence describes.
Respond with JSON only: {"results": [{"<technique_id>": <probability 0..1>, ...}, ...]}
with exactly one object per input sentence, in input order. Use {} when no technique applies.
Do not invent technique ids.`

// Classify scores a batch of sentences with one chat completion call.
func (p *OpenAIClassifier) Classify(ctx context.Context, texts []string) ([]map[string]float64, error) {
	chatModel := p.config.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var sb strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0, // Classification must be as deterministic as the API allows
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var parsed struct {
		Results []map[string]float64 `json:"results"`
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse classifier response: %w", err)
	}
	if len(parsed.Results) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d results for %d inputs", len(parsed.Results), len(texts))
	}

	return parsed.Results, nil
}
