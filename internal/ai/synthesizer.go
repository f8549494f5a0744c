package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/kataras/golog"

	"memoryai/internal/model"
)

// SourceChunk is what the synthesizer sees of a retrieved chunk: untruncated
// text plus its source label and similarity score.
type SourceChunk struct {
	Source string
	Text   string
	Score  float64
}

// Strategy produces answer text from a prompt. Strategies are tried in
// order; any may fail except the terminal fallback.
type Strategy interface {
	Name() string
	Synthesize(ctx context.Context, query string, chunks []SourceChunk, turns []model.Turn) (string, error)
}

// Synthesizer runs an ordered strategy chain. The last strategy is the
// templated summary, which never fails, so Synthesize always returns text.
type Synthesizer struct {
	strategies []Strategy
}

func NewSynthesizer(strategies ...Strategy) *Synthesizer {
	return &Synthesizer{strategies: append(strategies, fallbackStrategy{})}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []SourceChunk, turns []model.Turn) string {
	for _, strategy := range s.strategies {
		answer, err := strategy.Synthesize(ctx, query, chunks, turns)
		if err != nil {
			golog.Warnf("%s synthesis failed, trying next strategy: %v", strategy.Name(), err)
			continue
		}
		return answer
	}
	// Unreachable: the fallback strategy never errors.
	return ""
}

// BuildPrompt assembles the synthesis prompt: optional recent conversation
// history, numbered source blocks, then the query.
func BuildPrompt(query string, chunks []SourceChunk, turns []model.Turn) string {
	var sb strings.Builder

	if len(turns) > 0 {
		recent := turns
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		sb.WriteString("Previous conversation:\n")
		for _, turn := range recent {
			answer := turn.Answer
			if len(answer) > 200 {
				answer = answer[:200]
			}
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n", turn.Query, answer)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Based on the following sources, answer the query accurately. Cite sources by number. If the sources don't contain enough information, say so.\n\nSources:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "[Source %d: %s]\n%s\n\n", i+1, chunk.Source, chunk.Text)
	}
	fmt.Fprintf(&sb, "Query: %s\n\nAnswer:", query)
	return sb.String()
}

// AnthropicStrategy synthesizes via the Anthropic messages API.
type AnthropicStrategy struct {
	Client *AnthropicClient
	Config AnthropicConfig
}

func (s AnthropicStrategy) Name() string { return "anthropic" }

func (s AnthropicStrategy) Synthesize(ctx context.Context, query string, chunks []SourceChunk, turns []model.Turn) (string, error) {
	return s.Client.Complete(ctx, s.Config, BuildPrompt(query, chunks, turns))
}

// OpenAIStrategy synthesizes via an OpenAI-compatible chat endpoint.
type OpenAIStrategy struct {
	Client *OpenAICompatibleClient
	Config ChatConfig
}

func (s OpenAIStrategy) Name() string { return "openai" }

func (s OpenAIStrategy) Synthesize(ctx context.Context, query string, chunks []SourceChunk, turns []model.Turn) (string, error) {
	messages := []ChatMessage{{Role: "user", Content: BuildPrompt(query, chunks, turns)}}
	return s.Client.Complete(ctx, s.Config, messages)
}

// fallbackStrategy is the terminal no-LLM path: a deterministic summary of
// the top retrieved chunks, clearly marked as a fallback.
type fallbackStrategy struct{}

func (fallbackStrategy) Name() string { return "fallback" }

func (fallbackStrategy) Synthesize(_ context.Context, query string, chunks []SourceChunk, _ []model.Turn) (string, error) {
	if len(chunks) == 0 {
		return "No relevant information found in the knowledge base.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d relevant source(s) for: %q\n\n", len(chunks), query)
	top := chunks
	if len(top) > 5 {
		top = top[:5]
	}
	for i, chunk := range top {
		text := chunk.Text
		if len(text) > 300 {
			text = text[:300]
		}
		fmt.Fprintf(&sb, "**[Source %d]** (%s, relevance: %.2f)\n%s...\n\n", i+1, chunk.Source, chunk.Score, text)
	}
	sb.WriteString("_Note: Add ANTHROPIC_API_KEY or OPENAI_API_KEY for AI-synthesized answers._")
	return sb.String(), nil
}
