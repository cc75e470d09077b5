package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// Service handles login and actor resolution.
type Service struct {
	dir    *directory.Service
	issuer *TokenIssuer
}

// NewService creates an auth Service.
func NewService(dir *directory.Service, issuer *TokenIssuer) *Service {
	return &Service{dir: dir, issuer: issuer}
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Actor, error) {
	user, err := s.dir.GetUserByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the email exists.
		return "", nil, apperrors.NewAccessDenied("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Debug("password mismatch", "user_id", user.ID)
		return "", nil, apperrors.NewAccessDenied("invalid credentials")
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	actor, err := s.ResolveActor(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, actor, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ResolveActor loads a user and its department memberships into an Actor.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (*Actor, error) {
	user, err := s.dir.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	departments, err := s.dir.DepartmentsOfUser(ctx, user)
	if err != nil {
		return nil, err
	}

	actor := &Actor{
		ID:              user.ID,
		Name:            user.Name,
		CompanyID:       user.CompanyID,
		Role:            user.Role,
		DepartmentIDs:   make([]uuid.UUID, 0, len(departments)),
		DepartmentNames: make([]string, 0, len(departments)),
	}
	for _, dept := range departments {
		actor.DepartmentIDs = append(actor.DepartmentIDs, dept.ID)
		actor.DepartmentNames = append(actor.DepartmentNames, dept.Name)
	}
	return actor, nil
}
