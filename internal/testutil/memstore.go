package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/invite"
	"github.com/markdave123-py/AskNest/internal/models"
)

var _ core.KnowledgeStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory core.KnowledgeStore. Writes are visible to
// reads immediately unless HideUsersFor is set, which makes the next N user
// lookups miss to mimic replication lag.
type MemoryStore struct {
	mu  sync.Mutex
	seq int
	now func() time.Time

	Users         []models.User
	Organizations []models.Organization
	FAQs          []models.FAQ
	Documents     []models.Document

	// FailFAQ makes CreateFAQ fail for the question it names.
	FailFAQ      map[string]error
	FailDocument error
	HideUsersFor int

	UserLookups int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, FailFAQ: map[string]error{}}
}

func (s *MemoryStore) nextUID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%04d", prefix, s.seq)
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	c.UID = s.nextUID("usr")
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.Users = append(s.Users, c)
	return &c, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Users {
		if s.Users[i].UID == u.UID {
			c := *u
			c.UpdatedAt = s.now()
			s.Users[i] = c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user %s not found", u.UID)
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserLookups++
	if s.HideUsersFor > 0 {
		s.HideUsersFor--
		return nil, nil
	}
	for _, u := range s.Users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetUsersByOrg(_ context.Context, organizationID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.Users {
		if u.OrganizationID == organizationID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateOrganization(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	c := *org
	if c.InviteCode == "" {
		code, err := invite.GenerateUnique(ctx, func(ctx context.Context, code string) (bool, error) {
			o, err := s.GetOrganizationByInviteCode(ctx, code)
			return o != nil, err
		})
		if err != nil {
			return nil, err
		}
		c.InviteCode = code
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.UID = s.nextUID("org")
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.Organizations = append(s.Organizations, c)
	return &c, nil
}

func (s *MemoryStore) GetOrganizationByID(_ context.Context, id string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Organizations {
		if o.UID == id {
			c := o
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetOrganizationByInviteCode(_ context.Context, inviteCode string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Organizations {
		if o.InviteCode == inviteCode {
			c := o
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateFAQ(_ context.Context, faq *models.FAQ) (*models.FAQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailFAQ[faq.Question]; err != nil {
		return nil, err
	}
	c := *faq
	c.Tags = append([]string(nil), faq.Tags...)
	c.UID = s.nextUID("faq")
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.FAQs = append(s.FAQs, c)
	return &c, nil
}

func (s *MemoryStore) GetFAQsByOrg(_ context.Context, organizationID string) ([]models.FAQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FAQ{}
	for _, f := range s.FAQs {
		if f.OrganizationID == organizationID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateDocument(_ context.Context, doc *models.Document) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDocument != nil {
		return nil, s.FailDocument
	}
	c := *doc
	c.UID = s.nextUID("doc")
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.Documents = append(s.Documents, c)
	return &c, nil
}

func (s *MemoryStore) GetDocumentsByOrg(_ context.Context, organizationID string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Document{}
	for _, d := range s.Documents {
		if d.OrganizationID == organizationID {
			out = append(out, d)
		}
	}
	return out, nil
}
