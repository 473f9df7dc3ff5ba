package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"go.uber.org/zap"
)

const (
	ProviderAzure    = "azure"
	ProviderOpenAI   = "openai"
	ProviderDisabled = "disabled"
)

// Config describes how to reach the provider.
type Config struct {
	Provider   string
	Endpoint   string
	APIKey     string
	Deployment string
	Timeout    time.Duration
}

// AzureClient calls chat completions through the azopenai SDK. The same
// client serves Azure deployments and OpenAI-compatible endpoints.
type AzureClient struct {
	client     *azopenai.Client
	deployment string
	timeout    time.Duration
	logger     *zap.Logger
}

// New returns the Generator selected by cfg.Provider.
func New(cfg Config, logger *zap.Logger) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderDisabled:
		return Disabled{}, nil
	case ProviderAzure, ProviderOpenAI:
		return NewAzureClient(cfg, logger)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// NewAzureClient builds an AzureClient from key credentials.
func NewAzureClient(cfg Config, logger *zap.Logger) (*AzureClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key required for provider %q", cfg.Provider)
	}
	if cfg.Deployment == "" {
		return nil, fmt.Errorf("llm: deployment or model name required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cred := azcore.NewKeyCredential(cfg.APIKey)
	var (
		client *azopenai.Client
		err    error
	)
	if strings.EqualFold(cfg.Provider, ProviderOpenAI) {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "https://api.openai.com/v1"
		}
		client, err = azopenai.NewClientForOpenAI(endpoint, cred, nil)
	} else {
		client, err = azopenai.NewClientWithKeyCredential(cfg.Endpoint, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AzureClient{client: client, deployment: cfg.Deployment, timeout: timeout, logger: logger}, nil
}

// Generate sends the system and user messages and returns the first choice.
func (c *AzureClient) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []azopenai.ChatRequestMessageClassification{}
	if req.System != "" {
		messages = append(messages, &azopenai.ChatRequestSystemMessage{
			Content: azopenai.NewChatRequestSystemMessageContent(req.System),
		})
	}
	messages = append(messages, &azopenai.ChatRequestUserMessage{
		Content: azopenai.NewChatRequestUserMessageContent(req.Prompt),
	})

	opts := azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(c.deployment),
		Messages:       messages,
	}
	if req.MaxTokens > 0 {
		opts.MaxTokens = to.Ptr(req.MaxTokens)
	}
	if req.Temperature > 0 {
		opts.Temperature = to.Ptr(req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.GetChatCompletions(ctx, opts, nil)
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	c.logger.Debug("llm completion",
		zap.String("deployment", c.deployment),
		zap.Duration("latency", time.Since(start)),
		zap.Int("choices", len(resp.Choices)),
	)

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", ErrEmptyCompletion
	}
	return *resp.Choices[0].Message.Content, nil
}
