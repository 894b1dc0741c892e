package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"

	"call-analyzer-go/internal/logger"
	"call-analyzer-go/internal/types"
)

// DefaultOpenAIBaseURL points at Groq's OpenAI-compatible endpoint.
const (
	DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel   = "llama-3.1-70b-versatile"
)

// OpenAIClient talks to any OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     *logrus.Entry
}

func NewOpenAIClient(cfg Config) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &OpenAIClient{
		client:  client,
		model:   model,
		timeout: timeout,
		log: logger.New().WithFields(logrus.Fields{
			"component": "extractor-openai",
			"model":     model,
		}),
	}
}

func (c *OpenAIClient) Provider() string { return ProviderOpenAI }

func (c *OpenAIClient) Analyze(ctx context.Context, transcript string) (types.AnalysisResult, error) {
	if err := checkInput(ProviderOpenAI, transcript); err != nil {
		return types.AnalysisResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(transcript)),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return types.AnalysisResult{}, c.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return types.AnalysisResult{}, newAIError(ProviderOpenAI, ErrMalformedResponse, fmt.Errorf("no choices in response"))
	}
	content := resp.Choices[0].Message.Content
	c.log.WithField("content_len", len(content)).Debug("llm raw:\n" + content)

	result, err := parseAnalysis(content)
	if err != nil {
		return types.AnalysisResult{}, newAIError(ProviderOpenAI, ErrMalformedResponse, err)
	}
	return result, nil
}

// Ping lists models, which needs a valid key but costs no tokens.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.client.Models.List(ctx); err != nil {
		return c.wrapError(err)
	}
	return nil
}

func (c *OpenAIClient) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return newAIError(ProviderOpenAI, kindForStatus(apiErr.StatusCode), err)
	}
	return newAIError(ProviderOpenAI, ErrUnavailable, err)
}
