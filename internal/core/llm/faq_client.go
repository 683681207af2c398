package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/models"
)

var _ core.FAQExtractor = (*FAQClient)(nil)

// AnswerFallback is returned by GenerateAnswer when the model call fails.
const AnswerFallback = "I'm sorry, I'm having trouble processing your question right now. Please try again later."

const extractFAQsPrompt = `
Analyze the following text and extract potential FAQ pairs (questions and answers).
Format your response as a JSON array of objects with "question" and "answer" properties.

Text:
%s

Extract FAQs:
`

const answerPrompt = `
Context: You are an AI assistant helping users with questions based on their organization's knowledge base.

Available Information:
%s

User Question: %s

Instructions:
- Provide a helpful and accurate answer based on the available information
- If the information is not sufficient to answer the question, say so politely
- Keep answers concise but complete
- Use a friendly, professional tone

Answer:
`

var ErrNotFAQArray = errors.New("model output is not a JSON array")

// FAQClient builds the fixed prompts for FAQ extraction and answering and
// interprets the model's free-form replies.
type FAQClient struct {
	llm core.LLMProvider
	log *zap.Logger
}

func NewFAQClient(llm core.LLMProvider, logger *zap.Logger) *FAQClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FAQClient{llm: llm, log: logger}
}

// ExtractFAQs asks the model for FAQ pairs found in text. Model failures and
// unparseable output both yield an empty result.
func (c *FAQClient) ExtractFAQs(ctx context.Context, text string) []models.FAQPair {
	out, err := c.llm.Generate(ctx, "", fmt.Sprintf(extractFAQsPrompt, text))
	if err != nil {
		c.log.Error("faq extraction: model call failed", zap.Error(err))
		return []models.FAQPair{}
	}

	pairs, err := ParseFAQs(out)
	if err != nil {
		c.log.Warn("faq extraction: unusable model output", zap.Error(err), zap.Int("output_len", len(out)))
		return []models.FAQPair{}
	}
	return pairs
}

// GenerateAnswer answers question from the given knowledge-base context.
func (c *FAQClient) GenerateAnswer(ctx context.Context, question, kbContext string) string {
	out, err := c.llm.Generate(ctx, "", fmt.Sprintf(answerPrompt, kbContext, question))
	if err != nil {
		c.log.Error("answer generation: model call failed", zap.Error(err))
		return AnswerFallback
	}
	return out
}

// ParseFAQs decodes a JSON array of {question, answer} objects, optionally
// wrapped in a markdown code fence. Elements that are not objects with
// string fields are skipped; the caller decides which pairs are complete.
func ParseFAQs(raw string) ([]models.FAQPair, error) {
	body := stripCodeFence(raw)

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFAQArray, err)
	}

	pairs := make([]models.FAQPair, 0, len(elems))
	for _, e := range elems {
		var p models.FAQPair
		if err := json.Unmarshal(e, &p); err != nil {
			continue
		}
		p.Question = strings.TrimSpace(p.Question)
		p.Answer = strings.TrimSpace(p.Answer)
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the info string, e.g. "json"
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
