package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/retry"
	"github.com/markdave123-py/AskNest/internal/models"
)

// ChatService answers member questions from their organization's FAQs.
type ChatService struct {
	store core.KnowledgeStore
	faqs  core.FAQExtractor
	read  retry.Policy
	log   *zap.Logger
}

func NewChatService(store core.KnowledgeStore, faqs core.FAQExtractor, read retry.Policy, logger *zap.Logger) *ChatService {
	return &ChatService{store: store, faqs: faqs, read: read, log: logger}
}

func (s *ChatService) Ask(ctx context.Context, p models.Principal, question string) (string, error) {
	if p.Email == "" {
		return "", apperr.Unauthorized("Unauthorized")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperr.Validation("Question is required")
	}

	user, err := retry.ReadAfterWrite(ctx, s.read, func(ctx context.Context) (*models.User, error) {
		return s.store.GetUserByEmail(ctx, p.Email)
	})
	if err != nil {
		s.log.Error("user lookup failed", zap.String("email", p.Email), zap.Error(err))
		return "", apperr.Upstream("Internal server error", err)
	}
	if user == nil || user.OrganizationID == "" {
		return "", apperr.Forbidden("Join an organization to ask questions")
	}

	faqs, err := s.store.GetFAQsByOrg(ctx, user.OrganizationID)
	if err != nil {
		s.log.Error("faq lookup failed", zap.String("organization_id", user.OrganizationID), zap.Error(err))
		return "", apperr.Upstream("Internal server error", err)
	}
	return s.faqs.GenerateAnswer(ctx, question, faqContext(faqs)), nil
}

// faqContext renders FAQs as the knowledge base text given to the model.
func faqContext(faqs []models.FAQ) string {
	var sb strings.Builder
	for _, f := range faqs {
		sb.WriteString("Q: ")
		sb.WriteString(f.Question)
		sb.WriteString("\nA: ")
		sb.WriteString(f.Answer)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}
