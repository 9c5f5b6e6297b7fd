// Package chat answers questions against the indexed documents: retrieve
// similar chunks, assemble the RAG prompt, generate or stream the answer.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/fmartel/ragdesk/index"
	"github.com/fmartel/ragdesk/ingestion"
	"github.com/fmartel/ragdesk/llm"
)

const defaultTopK = 2

// Retriever answers similarity queries; satisfied by *index.Manager.
type Retriever interface {
	Query(ctx context.Context, query string, topK int) ([]index.ScoredChunk, error)
}

type Service struct {
	retriever Retriever
	llm       llm.Client
	logger    *log.Logger
}

func NewService(retriever Retriever, llmClient llm.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		retriever: retriever,
		llm:       llmClient,
		logger:    logger,
	}
}

// Chat answers a question in one shot.
func (s *Service) Chat(ctx context.Context, question string, cfg Config) (Response, error) {
	resp, _, err := s.chat(ctx, question, cfg, nil, nil)
	return resp, err
}

// ChatStream runs the chat workflow while streaming the LLM output through
// streamFn. The history slice holds prior turns (excluding the system prompt)
// and is extended with the latest user/assistant pair on success. When the
// LLM does not support streaming, streamFn receives the full answer once.
func (s *Service) ChatStream(
	ctx context.Context,
	question string,
	cfg Config,
	history []llm.Message,
	streamFn func(string) error,
) (Response, []llm.Message, error) {
	return s.chat(ctx, question, cfg, history, streamFn)
}

func (s *Service) chat(
	ctx context.Context,
	question string,
	cfg Config,
	history []llm.Message,
	streamFn func(string) error,
) (Response, []llm.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, nil, fmt.Errorf("question cannot be empty")
	}
	if s.retriever == nil {
		return Response{}, nil, fmt.Errorf("retriever is not configured")
	}
	if s.llm == nil {
		return Response{}, nil, fmt.Errorf("llm client is not configured")
	}

	client := s.llm
	if cfg.Model != "" {
		switcher, ok := client.(llm.ModelSwitcher)
		if !ok {
			return Response{}, nil, fmt.Errorf("llm client cannot switch to model %q", cfg.Model)
		}
		client = switcher.WithModel(cfg.Model)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	chunks, err := s.retriever.Query(ctx, question, topK)
	if err != nil {
		return Response{}, nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(chunks) == 0 {
		s.logger.Printf("no context available for question, falling back to LLM-only response")
	}

	sources := buildSources(chunks)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt()})
	messages = append(messages, history...)
	userMessage := llm.Message{Role: llm.RoleUser, Content: formatUserPrompt(question, chunks)}
	messages = append(messages, userMessage)

	var answer string
	if streamFn != nil {
		if streamClient, ok := client.(llm.StreamClient); ok {
			var builder strings.Builder
			streamErr := streamClient.GenerateStream(ctx, messages, func(token string) error {
				if token == "" {
					return nil
				}
				builder.WriteString(token)
				return streamFn(token)
			})
			if streamErr != nil {
				return Response{}, nil, fmt.Errorf("llm stream generate: %w", streamErr)
			}
			answer = builder.String()
		} else {
			generated, genErr := client.Generate(ctx, messages)
			if genErr != nil {
				return Response{}, nil, fmt.Errorf("llm generate: %w", genErr)
			}
			answer = generated
			if err := streamFn(answer); err != nil {
				return Response{}, nil, err
			}
		}
	} else {
		generated, genErr := client.Generate(ctx, messages)
		if genErr != nil {
			return Response{}, nil, fmt.Errorf("llm generate: %w", genErr)
		}
		answer = generated
	}

	answer = strings.TrimSpace(answer)

	updatedHistory := make([]llm.Message, 0, len(history)+2)
	updatedHistory = append(updatedHistory, history...)
	updatedHistory = append(updatedHistory, userMessage, llm.Message{Role: llm.RoleAssistant, Content: answer})

	return Response{Answer: answer, Sources: sources}, updatedHistory, nil
}

func buildSources(chunks []index.ScoredChunk) []Source {
	sources := make([]Source, 0, len(chunks))
	for i := range chunks {
		chunk := chunks[i]
		snippet := strings.TrimSpace(chunk.Text)
		if runes := []rune(snippet); len(runes) > 500 {
			snippet = string(runes[:500]) + "..."
		}
		sources = append(sources, Source{
			ChunkID:  chunk.ID,
			FileName: chunk.Metadata[ingestion.MetaFileName],
			FileType: chunk.Metadata[ingestion.MetaFileType],
			Snippet:  snippet,
			Score:    chunk.Score,
		})
	}
	return sources
}

func systemPrompt() string {
	return "You are a helpful assistant answering questions about the user's documents. " +
		"When context is supplied, ground your answer in it and do not invent facts beyond it. " +
		"If the context is missing or not useful, say so briefly and answer from general knowledge."
}

// formatUserPrompt wraps the retrieved chunks in <context> tags ahead of the
// question, the shape local instruct models follow most reliably.
func formatUserPrompt(question string, chunks []index.ScoredChunk) string {
	var sb strings.Builder
	if len(chunks) > 0 {
		sb.WriteString("Here is context between XML-style <context> tags.\n<context>\n")
		for i := range chunks {
			sb.WriteString(chunks[i].Text)
			sb.WriteString("\n")
		}
		sb.WriteString("</context>\n")
		sb.WriteString("Using this context and no prior knowledge, answer the following question.\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
