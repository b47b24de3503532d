// Package briefing turns a caller-supplied prompt and JSON schema into a
// structured mission briefing using an OpenAI chat model.
package briefing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/metrics"
	"github.com/santhosh-tekuri/jsonschema/v6"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// SourceName labels logs and metrics
	SourceName = "openai"

	DefaultModel       = openai.GPT4oMini
	DefaultTemperature = 0.3

	schemaName    = "mission_briefing"
	systemMessage = "You are a precise scientific data analyst for space missions. You strictly adhere to factual data and never fabricate information."
)

var (
	// ErrMalformedOutput is returned when the model output is not JSON or does
	// not conform to the declared schema
	ErrMalformedOutput = errors.New("model output does not match the response schema")
	// ErrInvalidSchema is returned when the caller's schema cannot be compiled
	ErrInvalidSchema = errors.New("invalid response schema")
	// ErrEmptyResponse is returned when the model produced no content
	ErrEmptyResponse = errors.New("no response content from model")
)

// Request is one briefing generation. RealData is the live data the caller
// embedded in Prompt; it is only recorded, never sent twice.
type Request struct {
	Prompt         string
	ResponseSchema json.RawMessage
	RealData       json.RawMessage
}

// ChatClient is the part of the OpenAI client the generator uses
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator calls the model and validates its output
type Generator struct {
	client      ChatClient
	model       string
	temperature float32
}

// Config configures NewGenerator
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// NewGenerator creates a Generator backed by the OpenAI API
func NewGenerator(cfg Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return NewGeneratorWithClient(openai.NewClientWithConfig(clientCfg), cfg.Model, cfg.Temperature)
}

// NewGeneratorWithClient creates a Generator around an existing client
func NewGeneratorWithClient(client ChatClient, model string, temperature float32) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Generator{
		client:      client,
		model:       model,
		temperature: temperature,
	}
}

// Generate runs one completion and returns the output once it validates
// against req.ResponseSchema. Nothing is retried.
func (g *Generator) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	schema, err := compileSchema(req.ResponseSchema)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: req.ResponseSchema,
				Strict: true,
			},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		metrics.ObserveUpstream(SourceName, "error", time.Since(began))
		logging.LogUpstream(SourceName, g.model, "error", zap.Error(err))
		return nil, classify(err)
	}
	metrics.ObserveUpstream(SourceName, "ok", time.Since(began))

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}
	content := []byte(resp.Choices[0].Message.Content)

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	logging.Logger.Info("Briefing generated",
		zap.String("model", g.model),
		zap.Int("real_data_bytes", len(req.RealData)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(began)))

	return json.RawMessage(content), nil
}

func compileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSchema)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaName+".json", doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	schema, err := c.Compile(schemaName + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return schema, nil
}
