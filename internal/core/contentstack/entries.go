package contentstack

import (
	"context"
	"time"

	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/invite"
	"github.com/markdave123-py/AskNest/internal/models"
)

var _ core.KnowledgeStore = (*Client)(nil)

// entrySystem holds the fields Contentstack manages on every entry.
type entrySystem struct {
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s entrySystem) entryUID() string { return s.UID }

type userFields struct {
	Title          string `json:"title"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

type userEntry struct {
	entrySystem
	userFields
}

func (e userEntry) model() models.User {
	return models.User{
		UID:            e.UID,
		Email:          e.Email,
		Name:           e.Name,
		Role:           e.Role,
		OrganizationID: e.OrganizationID,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func userFieldsOf(u *models.User) userFields {
	return userFields{
		Title:          u.Email,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	}
}

type organizationFields struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AdminID     string `json:"admin_id"`
	InviteCode  string `json:"invite_code"`
}

type organizationEntry struct {
	entrySystem
	organizationFields
}

func (e organizationEntry) model() models.Organization {
	return models.Organization{
		UID:         e.UID,
		Name:        e.Name,
		Description: e.Description,
		AdminID:     e.AdminID,
		InviteCode:  e.InviteCode,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type faqFields struct {
	Title          string   `json:"title"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	OrganizationID string   `json:"organization_id"`
	Tags           []string `json:"tags,omitempty"`
}

type faqEntry struct {
	entrySystem
	faqFields
}

func (e faqEntry) model() models.FAQ {
	return models.FAQ{
		UID:            e.UID,
		Question:       e.Question,
		Answer:         e.Answer,
		OrganizationID: e.OrganizationID,
		Tags:           e.Tags,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

type documentFields struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	FileURL        string `json:"file_url"`
	OrganizationID string `json:"organization_id"`
}

type documentEntry struct {
	entrySystem
	documentFields
}

func (e documentEntry) model() models.Document {
	return models.Document{
		UID:            e.UID,
		Title:          e.Title,
		Content:        e.Content,
		FileURL:        e.FileURL,
		OrganizationID: e.OrganizationID,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

type modeler[M any] interface {
	identified
	model() M
}

func toModels[M any, E modeler[M]](entries []E) []M {
	out := make([]M, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.model())
	}
	return out
}

// Users

func (c *Client) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	e, err := createEntry[userEntry](ctx, c, ctUsers, userFieldsOf(u))
	if err != nil {
		return nil, err
	}
	m := e.model()
	return &m, nil
}

func (c *Client) UpdateUser(ctx context.Context, u *models.User) (*models.User, error) {
	e, err := updateEntry[userEntry](ctx, c, ctUsers, u.UID, userFieldsOf(u))
	if err != nil {
		return nil, err
	}
	m := e.model()
	if m.UID == "" {
		m.UID = u.UID
	}
	return &m, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	entries, err := queryEntries[userEntry](ctx, c, ctUsers, "email", email)
	if err != nil {
		return nil, err
	}
	e := first(entries)
	if e == nil {
		return nil, nil
	}
	m := e.model()
	return &m, nil
}

func (c *Client) GetUsersByOrg(ctx context.Context, organizationID string) ([]models.User, error) {
	entries, err := queryEntries[userEntry](ctx, c, ctUsers, "organization_id", organizationID)
	if err != nil {
		return nil, err
	}
	return toModels[models.User](entries), nil
}

// Organizations

func (c *Client) CreateOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	code := org.InviteCode
	if code == "" {
		var err error
		code, err = invite.GenerateUnique(ctx, func(ctx context.Context, code string) (bool, error) {
			existing, err := c.GetOrganizationByInviteCode(ctx, code)
			return existing != nil, err
		})
		if err != nil {
			return nil, err
		}
	}

	e, err := createEntry[organizationEntry](ctx, c, ctOrganizations, organizationFields{
		Title:       org.Name,
		Name:        org.Name,
		Description: org.Description,
		AdminID:     org.AdminID,
		InviteCode:  code,
	})
	if err != nil {
		return nil, err
	}
	m := e.model()
	return &m, nil
}

func (c *Client) GetOrganizationByID(ctx context.Context, id string) (*models.Organization, error) {
	e, err := getEntry[organizationEntry](ctx, c, ctOrganizations, id)
	if err != nil || e == nil {
		return nil, err
	}
	m := e.model()
	return &m, nil
}

func (c *Client) GetOrganizationByInviteCode(ctx context.Context, inviteCode string) (*models.Organization, error) {
	entries, err := queryEntries[organizationEntry](ctx, c, ctOrganizations, "invite_code", inviteCode)
	if err != nil {
		return nil, err
	}
	e := first(entries)
	if e == nil {
		return nil, nil
	}
	m := e.model()
	return &m, nil
}

// FAQs

func (c *Client) CreateFAQ(ctx context.Context, faq *models.FAQ) (*models.FAQ, error) {
	e, err := createEntry[faqEntry](ctx, c, ctFAQs, faqFields{
		Title:          faq.Question,
		Question:       faq.Question,
		Answer:         faq.Answer,
		OrganizationID: faq.OrganizationID,
		Tags:           faq.Tags,
	})
	if err != nil {
		return nil, err
	}
	m := e.model()
	return &m, nil
}

func (c *Client) GetFAQsByOrg(ctx context.Context, organizationID string) ([]models.FAQ, error) {
	entries, err := queryEntries[faqEntry](ctx, c, ctFAQs, "organization_id", organizationID)
	if err != nil {
		return nil, err
	}
	return toModels[models.FAQ](entries), nil
}

// Documents

func (c *Client) CreateDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	e, err := createEntry[documentEntry](ctx, c, ctDocuments, documentFields{
		Title:          doc.Title,
		Content:        doc.Content,
		FileURL:        doc.FileURL,
		OrganizationID: doc.OrganizationID,
	})
	if err != nil {
		return nil, err
	}
	m := e.model()
	return &m, nil
}

func (c *Client) GetDocumentsByOrg(ctx context.Context, organizationID string) ([]models.Document, error) {
	entries, err := queryEntries[documentEntry](ctx, c, ctDocuments, "organization_id", organizationID)
	if err != nil {
		return nil, err
	}
	return toModels[models.Document](entries), nil
}
