package core

import (
	"context"

	"github.com/markdave123-py/AskNest/internal/models"
)

// KnowledgeStore is the system of record for users, organizations, FAQs and
// documents. Lookups return nil (or an empty slice) when nothing matches;
// errors are reserved for transport and auth failures.
type KnowledgeStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByOrg(ctx context.Context, organizationID string) ([]models.User, error)

	// CreateOrganization assigns a fresh invite code when org.InviteCode is empty.
	CreateOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error)
	GetOrganizationByID(ctx context.Context, id string) (*models.Organization, error)
	GetOrganizationByInviteCode(ctx context.Context, inviteCode string) (*models.Organization, error)

	CreateFAQ(ctx context.Context, faq *models.FAQ) (*models.FAQ, error)
	GetFAQsByOrg(ctx context.Context, organizationID string) ([]models.FAQ, error)

	CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error)
	GetDocumentsByOrg(ctx context.Context, organizationID string) ([]models.Document, error)
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error
}

// IngestionRecorder persists the progress of each upload through the pipeline.
type IngestionRecorder interface {
	StartRun(ctx context.Context, run *models.IngestionRun) error
	UpdateRun(ctx context.Context, run *models.IngestionRun) error
}

// LLMProvider turns a prompt into a text completion.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// FAQExtractor is the model-facing side of the knowledge base.
// Neither method returns an error: failures degrade to an empty result or
// a fixed apology.
type FAQExtractor interface {
	ExtractFAQs(ctx context.Context, text string) []models.FAQPair
	GenerateAnswer(ctx context.Context, question, context string) string
}

// DocumentExtractor returns the embedded text of a document.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}
