package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"memoryai/internal/model"
)

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }

func (failingStrategy) Synthesize(context.Context, string, []SourceChunk, []model.Turn) (string, error) {
	return "", errors.New("upstream unavailable")
}

type cannedStrategy struct{ answer string }

func (cannedStrategy) Name() string { return "canned" }

func (s cannedStrategy) Synthesize(context.Context, string, []SourceChunk, []model.Turn) (string, error) {
	return s.answer, nil
}

func TestSynthesizerUsesFirstWorkingStrategy(t *testing.T) {
	s := NewSynthesizer(failingStrategy{}, cannedStrategy{answer: "from llm"})
	answer := s.Synthesize(context.Background(), "q", []SourceChunk{{Source: "a", Text: "t"}}, nil)
	assert.Equal(t, "from llm", answer)
}

func TestSynthesizerFallsBackWhenAllFail(t *testing.T) {
	s := NewSynthesizer(failingStrategy{})
	answer := s.Synthesize(context.Background(), "the question", []SourceChunk{
		{Source: "a.txt", Text: "chunk text", Score: 0.9123},
	}, nil)
	assert.Contains(t, answer, "Found 1 relevant source(s) for: \"the question\"")
	assert.Contains(t, answer, "a.txt")
	assert.Contains(t, answer, "_Note: Add ANTHROPIC_API_KEY or OPENAI_API_KEY for AI-synthesized answers._")
}

func TestFallbackNoChunks(t *testing.T) {
	s := NewSynthesizer()
	answer := s.Synthesize(context.Background(), "anything", nil, nil)
	assert.Equal(t, "No relevant information found in the knowledge base.", answer)
}

func TestFallbackTruncatesAndCaps(t *testing.T) {
	chunks := make([]SourceChunk, 7)
	for i := range chunks {
		chunks[i] = SourceChunk{Source: "src", Text: strings.Repeat("x", 400), Score: 0.5}
	}
	s := NewSynthesizer()
	answer := s.Synthesize(context.Background(), "q", chunks, nil)

	assert.Contains(t, answer, "Found 7 relevant source(s)")
	assert.Contains(t, answer, "[Source 5]")
	assert.NotContains(t, answer, "[Source 6]")
	assert.NotContains(t, answer, strings.Repeat("x", 301))
}

func TestBuildPromptIncludesHistoryAndSources(t *testing.T) {
	turns := []model.Turn{
		{Query: "earlier question", Answer: strings.Repeat("a", 250)},
	}
	chunks := []SourceChunk{
		{Source: "notes.md", Text: "relevant text"},
		{Source: "report.pdf", Text: "more text"},
	}

	prompt := BuildPrompt("current question", chunks, turns)

	assert.Contains(t, prompt, "Previous conversation:")
	assert.Contains(t, prompt, "Q: earlier question")
	assert.NotContains(t, prompt, strings.Repeat("a", 201))
	assert.Contains(t, prompt, "[Source 1: notes.md]")
	assert.Contains(t, prompt, "[Source 2: report.pdf]")
	assert.True(t, strings.HasSuffix(prompt, "Query: current question\n\nAnswer:"))
}

func TestBuildPromptKeepsLastFiveTurns(t *testing.T) {
	var turns []model.Turn
	for _, q := range []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7"} {
		turns = append(turns, model.Turn{Query: q, Answer: "a"})
	}
	prompt := BuildPrompt("now", nil, turns)
	assert.NotContains(t, prompt, "Q: q2\n")
	assert.Contains(t, prompt, "Q: q3\n")
	assert.Contains(t, prompt, "Q: q7\n")
}

func TestBuildPromptNoHistory(t *testing.T) {
	prompt := BuildPrompt("q", nil, nil)
	assert.NotContains(t, prompt, "Previous conversation:")
	assert.True(t, strings.HasPrefix(prompt, "Based on the following sources"))
}
