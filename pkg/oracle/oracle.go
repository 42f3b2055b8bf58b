package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gbforge/gbforge/pkg/config"
	"github.com/gbforge/gbforge/pkg/types"
)

// Mode selects the model and token budget for a request. Selection calls
// use a cheaper, smaller model than generation or review calls.
type Mode int

const (
	ModeGeneration Mode = iota
	ModeSelection
	ModeReview
	ModeAnalysis
)

func (m Mode) String() string {
	switch m {
	case ModeGeneration:
		return "generation"
	case ModeSelection:
		return "selection"
	case ModeReview:
		return "review"
	case ModeAnalysis:
		return "analysis"
	}
	return "unknown"
}

// Response carries the model output. Truncated is set when the model
// stopped because it hit the completion token limit, which means the text
// is almost certainly not parseable and the caller should retry.
type Response struct {
	Text      string
	Truncated bool
	Usage     types.TokenUsage
}

// Client is the minimal surface the workflow needs from a language model.
type Client interface {
	Generate(ctx context.Context, system, prompt string, mode Mode) (Response, error)
}

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	cfg    *config.Config
}

// NewOpenAIClient builds a client from the config. The API key is read
// from the environment variable named by the config.
func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	keyEnv := cfg.OracleKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	apiKey := strings.TrimSpace(os.Getenv(keyEnv))
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set", keyEnv)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.OracleBaseURL != "" {
		clientCfg.BaseURL = cfg.OracleBaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

func (o *OpenAIClient) modelFor(mode Mode) (string, int) {
	switch mode {
	case ModeSelection:
		return o.cfg.SelectionModel, o.cfg.MaxSelectionTokens
	case ModeReview:
		return o.cfg.ReviewModel, o.cfg.MaxReviewTokens
	case ModeAnalysis:
		return o.cfg.AnalysisModel, o.cfg.MaxEditTokens
	default:
		return o.cfg.EditingModel, o.cfg.MaxEditTokens
	}
}

// Generate implements Client.
func (o *OpenAIClient) Generate(ctx context.Context, system, prompt string, mode Mode) (Response, error) {
	model, maxTokens := o.modelFor(mode)
	req := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("oracle %s call failed: %w", mode, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("oracle %s call returned no choices", mode)
	}
	choice := resp.Choices[0]
	return Response{
		Text:      choice.Message.Content,
		Truncated: choice.FinishReason == openai.FinishReasonLength,
		Usage: types.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
