package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/markdave123-py/AskNest/internal/core"
)

var _ core.LLMProvider = (*GeminiLLM)(nil)

// GeminiLLM is a core.LLMProvider backed by the Gemini API.
type GeminiLLM struct {
	client      *genai.Client
	modelName   string
	temperature float32
	log         *zap.Logger
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiLLM{client: cl, modelName: modelName, temperature: 0.2, log: logger}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate returns the concatenated text parts of the first candidate.
func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(g.temperature)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		g.log.Warn("gemini returned no candidates", zap.String("model", g.modelName))
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
