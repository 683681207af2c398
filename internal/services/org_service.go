package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/retry"
	"github.com/markdave123-py/AskNest/internal/models"
)

type OrgService struct {
	store core.KnowledgeStore
	read  retry.Policy
	log   *zap.Logger
}

func NewOrgService(store core.KnowledgeStore, read retry.Policy, logger *zap.Logger) *OrgService {
	return &OrgService{store: store, read: read, log: logger}
}

type OrgCreated struct {
	Organization *models.Organization `json:"organization"`
	User         *models.User         `json:"user"`
	Message      string               `json:"message"`
}

type OrgJoined struct {
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization"`
	Message      string               `json:"message"`
}

type OrgStats struct {
	Documents int `json:"documents"`
	FAQs      int `json:"faqs"`
	Members   int `json:"members"`
}

type OrgDetail struct {
	Organization *models.Organization `json:"organization"`
	Stats        OrgStats             `json:"stats"`
}

// CreateOrganization creates an organization administered by the caller.
// A caller already in another organization becomes the admin of the new one.
func (s *OrgService) CreateOrganization(ctx context.Context, p models.Principal, name, description string) (*OrgCreated, error) {
	if p.Email == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Organization name is required")
	}

	user, err := s.ensureUser(ctx, p)
	if err != nil {
		return nil, err
	}

	org, err := s.store.CreateOrganization(ctx, &models.Organization{
		Name:        name,
		Description: strings.TrimSpace(description),
		AdminID:     user.UID,
	})
	if err != nil {
		s.log.Error("create organization failed", zap.String("name", name), zap.Error(err))
		return nil, apperr.Upstream("Failed to create organization", err)
	}

	user.Role = models.RoleAdmin
	user.OrganizationID = org.UID
	if user.Name == "" {
		user.Name = p.DisplayName()
	}
	user, err = s.store.UpdateUser(ctx, user)
	if err != nil {
		s.log.Error("promote organization admin failed",
			zap.String("organization_id", org.UID), zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Failed to create organization", err)
	}

	s.log.Info("organization created", zap.String("organization_id", org.UID), zap.String("admin_id", user.UID))
	return &OrgCreated{Organization: org, User: user, Message: "Organization created successfully"}, nil
}

// ensureUser returns the caller's user record, creating an unaffiliated
// one on first use.
func (s *OrgService) ensureUser(ctx context.Context, p models.Principal) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, p.Email)
	if err != nil {
		s.log.Error("user lookup failed", zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Failed to create organization", err)
	}
	if user != nil {
		return user, nil
	}
	user, err = s.store.CreateUser(ctx, &models.User{
		Email: p.Email,
		Name:  p.DisplayName(),
		Role:  models.RoleMember,
	})
	if err != nil {
		s.log.Error("create user failed", zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Failed to create organization", err)
	}
	return user, nil
}

// JoinOrganization adds the caller to the organization holding inviteCode
// as a member.
func (s *OrgService) JoinOrganization(ctx context.Context, p models.Principal, inviteCode string) (*OrgJoined, error) {
	if p.Email == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	inviteCode = strings.TrimSpace(inviteCode)
	if inviteCode == "" {
		return nil, apperr.Validation("Invite code is required")
	}

	org, err := retry.ReadAfterWrite(ctx, s.read, func(ctx context.Context) (*models.Organization, error) {
		return s.store.GetOrganizationByInviteCode(ctx, inviteCode)
	})
	if err != nil {
		s.log.Error("invite code lookup failed", zap.Error(err))
		return nil, apperr.Upstream("Failed to join organization", err)
	}
	if org == nil {
		return nil, apperr.NotFound("Invalid invite code")
	}

	existing, err := s.store.GetUserByEmail(ctx, p.Email)
	if err != nil {
		s.log.Error("user lookup failed", zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Failed to join organization", err)
	}

	var user *models.User
	switch {
	case existing != nil && existing.OrganizationID != "":
		return nil, apperr.Conflict("User already belongs to an organization")
	case existing != nil:
		existing.Role = models.RoleMember
		existing.OrganizationID = org.UID
		user, err = s.store.UpdateUser(ctx, existing)
	default:
		user, err = s.store.CreateUser(ctx, &models.User{
			Email:          p.Email,
			Name:           p.DisplayName(),
			Role:           models.RoleMember,
			OrganizationID: org.UID,
		})
	}
	if err != nil {
		s.log.Error("join organization failed", zap.String("organization_id", org.UID), zap.Error(err))
		return nil, apperr.Upstream("Failed to join organization", err)
	}

	s.log.Info("user joined organization", zap.String("organization_id", org.UID), zap.String("user_id", user.UID))
	return &OrgJoined{User: user, Organization: org, Message: "Successfully joined organization"}, nil
}

// OrganizationDetail returns the organization with document, FAQ and
// member counts. Only its own users may read it.
func (s *OrgService) OrganizationDetail(ctx context.Context, p models.Principal, orgID string) (*OrgDetail, error) {
	if p.Email == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}

	org, err := retry.ReadAfterWrite(ctx, s.read, func(ctx context.Context) (*models.Organization, error) {
		return s.store.GetOrganizationByID(ctx, orgID)
	})
	if err != nil {
		s.log.Error("organization lookup failed", zap.String("organization_id", orgID), zap.Error(err))
		return nil, apperr.Upstream("Internal server error", err)
	}
	if org == nil {
		return nil, apperr.NotFound("Organization not found")
	}

	user, err := retry.ReadAfterWrite(ctx, s.read, func(ctx context.Context) (*models.User, error) {
		return s.store.GetUserByEmail(ctx, p.Email)
	})
	if err != nil {
		s.log.Error("user lookup failed", zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Internal server error", err)
	}
	if user == nil || user.OrganizationID != orgID {
		s.log.Warn("organization access denied", zap.String("email", p.Email), zap.String("organization_id", orgID))
		return nil, apperr.Forbidden("Access denied")
	}

	stats, err := s.stats(ctx, orgID)
	if err != nil {
		s.log.Error("organization stats failed", zap.String("organization_id", orgID), zap.Error(err))
		return nil, apperr.Upstream("Internal server error", err)
	}
	return &OrgDetail{Organization: org, Stats: stats}, nil
}

func (s *OrgService) stats(ctx context.Context, orgID string) (OrgStats, error) {
	var stats OrgStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.store.GetDocumentsByOrg(gctx, orgID)
		stats.Documents = len(docs)
		return err
	})
	g.Go(func() error {
		faqs, err := s.store.GetFAQsByOrg(gctx, orgID)
		stats.FAQs = len(faqs)
		return err
	})
	g.Go(func() error {
		members, err := s.store.GetUsersByOrg(gctx, orgID)
		stats.Members = len(members)
		return err
	})
	err := g.Wait()
	return stats, err
}
