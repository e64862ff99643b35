package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/chat"
	"stolenpainting/internal/debug"
	"stolenpainting/internal/logging"
	"stolenpainting/internal/observability"
)

const DefaultModel = "gpt-4o-mini"

var ErrNoChoices = errors.New("no completion choices returned")

// chatCompletions is the slice of the openai client the service uses.
type chatCompletions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Journal records every completion. *logging.CompletionLogger implements it.
type Journal interface {
	LogCompletion(playthrough, speaker string, history interface{}, response string, metadata logging.CompletionMetadata) error
}

// Service is the chat-completion collaborator. It is stateless: every call sends the
// full history it is given.
type Service struct {
	completions chatCompletions
	model       string
	params      casefile.Completion
	debug       *debug.Logger
	tracer      trace.Tracer
	journal     Journal
}

func NewService(apiKey, model string, params casefile.Completion, debugLogger *debug.Logger) *Service {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return newService(&client.Chat.Completions, model, params, debugLogger)
}

func newService(completions chatCompletions, model string, params casefile.Completion, debugLogger *debug.Logger) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{
		completions: completions,
		model:       model,
		params:      params,
		debug:       debugLogger,
		tracer:      otel.Tracer("llm-service"),
	}
}

// SetJournal turns on completion journaling. Journal failures are debug logged and
// never fail a completion.
func (s *Service) SetJournal(j Journal) {
	s.journal = j
}

func (s *Service) Model() string {
	return s.model
}

// Complete implements chat.Completer.
func (s *Service) Complete(ctx context.Context, req chat.CompletionRequest) (chat.Message, error) {
	sessionID := observability.SessionIDFromContext(ctx)
	ctx, span := s.tracer.Start(ctx, "chat."+string(req.Speaker),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(observability.GenAIAttributes("openai", s.model,
			s.params.MaxTokens, s.params.Temperature, s.params.TopP)...),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("langfuse.observation.type", "generation"),
		attribute.String("game.speaker", string(req.Speaker)),
		attribute.Int("game.history_length", len(req.History)),
	)

	messages, err := toParams(req.History)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return chat.Message{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(s.model),
		Messages:            messages,
		N:                   openai.Int(1),
		MaxCompletionTokens: openai.Int(int64(s.params.MaxTokens)),
		Temperature:         openai.Float(s.params.Temperature),
		TopP:                openai.Float(s.params.TopP),
	}

	s.debug.Printf("LLM %s: sending %d messages to %s", req.Speaker, len(messages), s.model)
	start := time.Now()
	resp, err := s.completions.New(ctx, params)
	elapsed := time.Since(start)

	metadata := logging.CompletionMetadata{
		Model:        s.model,
		MaxTokens:    s.params.MaxTokens,
		Temperature:  s.params.Temperature,
		TopP:         s.params.TopP,
		ResponseTime: elapsed,
	}

	if err == nil && len(resp.Choices) == 0 {
		err = ErrNoChoices
	}
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.debug.Printf("LLM %s: completion failed after %v: %v", req.Speaker, elapsed, err)

		msg := err.Error()
		metadata.Error = &msg
		s.record(sessionID, req, "", metadata)
		return chat.Message{}, fmt.Errorf("chat completion failed: %w", err)
	}

	content := resp.Choices[0].Message.Content
	metadata.InputTokens = resp.Usage.PromptTokens
	metadata.OutputTokens = resp.Usage.CompletionTokens

	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int64("response_time_ms", elapsed.Milliseconds()),
		attribute.String("langfuse.observation.output", content),
		attribute.String("langfuse.observation.model.name", s.model),
	)
	span.AddEvent("gen_ai.choice", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("content", content),
	))

	s.debug.Printf("LLM %s: %d chars, tokens %d/%d, finish=%s, %v", req.Speaker, len(content),
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Choices[0].FinishReason, elapsed)
	s.record(sessionID, req, content, metadata)

	return chat.Message{Role: chat.RoleAssistant, Content: content}, nil
}

func (s *Service) record(sessionID string, req chat.CompletionRequest, response string, metadata logging.CompletionMetadata) {
	if s.journal == nil {
		return
	}
	if err := s.journal.LogCompletion(sessionID, string(req.Speaker), req.History, response, metadata); err != nil {
		s.debug.Printf("Failed to log completion: %v", err)
	}
}

func toParams(history []chat.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	if len(history) == 0 {
		return nil, errors.New("empty chat history")
	}
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case chat.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case chat.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			return nil, fmt.Errorf("unsupported role %q", m.Role)
		}
	}
	return out, nil
}
