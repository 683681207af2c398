package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/core"
	"github.com/markdave123-py/AskNest/internal/core/retry"
	"github.com/markdave123-py/AskNest/internal/models"
)

type UserService struct {
	store core.KnowledgeStore
	read  retry.Policy
	log   *zap.Logger
}

func NewUserService(store core.KnowledgeStore, read retry.Policy, logger *zap.Logger) *UserService {
	return &UserService{store: store, read: read, log: logger}
}

// CurrentUser returns the caller's user record. The lookup is retried since
// it usually follows signup or organization creation.
func (s *UserService) CurrentUser(ctx context.Context, p models.Principal) (*models.User, error) {
	if p.Email == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	user, err := retry.ReadAfterWrite(ctx, s.read, func(ctx context.Context) (*models.User, error) {
		return s.store.GetUserByEmail(ctx, p.Email)
	})
	if err != nil {
		s.log.Error("user lookup failed", zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Internal server error", err)
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// CreateUser registers the caller. It is idempotent: an existing record for
// the caller's email is returned unchanged. Admins are only made by
// organization creation, so an admin role cannot come with an organization.
func (s *UserService) CreateUser(ctx context.Context, p models.Principal, orgID, role string) (*models.User, error) {
	if p.Email == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, apperr.Validation("Role must be admin or member")
	}
	if role == models.RoleAdmin && orgID != "" {
		return nil, apperr.Forbidden("Admins are assigned by creating an organization")
	}

	existing, err := s.store.GetUserByEmail(ctx, p.Email)
	if err != nil {
		s.log.Error("user lookup failed", zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Failed to create user", err)
	}
	if existing != nil {
		return existing, nil
	}

	if orgID != "" {
		org, err := s.store.GetOrganizationByID(ctx, orgID)
		if err != nil {
			s.log.Error("organization lookup failed", zap.String("organization_id", orgID), zap.Error(err))
			return nil, apperr.Upstream("Failed to create user", err)
		}
		if org == nil {
			return nil, apperr.NotFound("Organization not found")
		}
	}

	user, err := s.store.CreateUser(ctx, &models.User{
		Email:          p.Email,
		Name:           p.DisplayName(),
		Role:           role,
		OrganizationID: orgID,
	})
	if err != nil {
		s.log.Error("create user failed", zap.String("email", p.Email), zap.Error(err))
		return nil, apperr.Upstream("Failed to create user", err)
	}
	s.log.Info("user created", zap.String("user_id", user.UID), zap.String("role", role))
	return user, nil
}
