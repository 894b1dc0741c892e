package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"call-analyzer-go/internal/logger"
	"call-analyzer-go/internal/types"
)

const DefaultAnthropicModel = "claude-3-5-haiku-latest"

type AnthropicClient struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	log     *logrus.Entry
}

func NewAnthropicClient(cfg Config) *AnthropicClient {
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicClient{
		client:  anthropic.NewClient(opts...),
		model:   model,
		timeout: timeout,
		log: logger.New().WithFields(logrus.Fields{
			"component": "extractor-anthropic",
			"model":     model,
		}),
	}
}

func (c *AnthropicClient) Provider() string { return ProviderAnthropic }

func (c *AnthropicClient) Analyze(ctx context.Context, transcript string) (types.AnalysisResult, error) {
	if err := checkInput(ProviderAnthropic, transcript); err != nil {
		return types.AnalysisResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(transcript))),
		},
	})
	if err != nil {
		return types.AnalysisResult{}, c.wrapError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := sb.String()
	if content == "" {
		return types.AnalysisResult{}, newAIError(ProviderAnthropic, ErrMalformedResponse, fmt.Errorf("no text content in response"))
	}
	c.log.WithField("content_len", len(content)).Debug("llm raw:\n" + content)

	result, err := parseAnalysis(content)
	if err != nil {
		return types.AnalysisResult{}, newAIError(ProviderAnthropic, ErrMalformedResponse, err)
	}
	return result, nil
}

func (c *AnthropicClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return c.wrapError(err)
	}
	return nil
}

func (c *AnthropicClient) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return newAIError(ProviderAnthropic, kindForStatus(apiErr.StatusCode), err)
	}
	return newAIError(ProviderAnthropic, ErrUnavailable, err)
}
