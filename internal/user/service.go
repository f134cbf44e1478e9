package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/clock"
	"github.com/campushub/booking-core/internal/pkg/apperror"
	"github.com/campushub/booking-core/internal/pkg/bulk"
)

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, actor auth.Actor, filter Filter) ([]*User, int, error)
	UpdateRole(ctx context.Context, actor auth.Actor, id string, role auth.Role) (*User, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id string, status Status) (*User, error)
	BulkUpdateStatus(ctx context.Context, actor auth.Actor, ids []string, status Status) (bulk.Result, error)
	// EnsureAdmin creates the bootstrap admin account unless the email is taken.
	EnsureAdmin(ctx context.Context, email, password, displayName string) (*User, error)
}

const (
	minPasswordLength    = 8
	maxPasswordLength    = 128
	minDisplayNameLength = 2
	maxDisplayNameLength = 100
)

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	clock  clock.Clock
	logger *zerolog.Logger
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher, clk clock.Clock, logger *zerolog.Logger) Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &service{
		repo:   repo,
		hasher: hasher,
		clock:  clk,
		logger: logger,
	}
}

func validateRegistration(email, password, displayName string) error {
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "email is required"
	}

	switch {
	case len(password) < minPasswordLength:
		fields["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	case len(password) > maxPasswordLength:
		fields["password"] = fmt.Sprintf("password is too long (max %d characters)", maxPasswordLength)
	default:
		var hasLetter, hasDigit bool
		for _, r := range password {
			hasLetter = hasLetter || unicode.IsLetter(r)
			hasDigit = hasDigit || unicode.IsDigit(r)
		}
		if !hasLetter || !hasDigit {
			fields["password"] = "password must contain at least one letter and one number"
		}
	}

	if n := len([]rune(displayName)); n < minDisplayNameLength || n > maxDisplayNameLength {
		fields["display_name"] = fmt.Sprintf("display name must be between %d and %d characters", minDisplayNameLength, maxDisplayNameLength)
	}

	if len(fields) > 0 {
		return apperror.NewValidationError(fields)
	}
	return nil
}

func (s *service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	return s.create(ctx, email, password, displayName, auth.RoleStudent)
}

func (s *service) create(ctx context.Context, email, password, displayName string, role auth.Role) (*User, error) {
	cleanEmail := normalizeEmail(email)
	cleanName := strings.TrimSpace(displayName)
	if err := validateRegistration(cleanEmail, password, cleanName); err != nil {
		return nil, err
	}

	// Check if email is already used.
	_, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err == nil {
		return nil, ErrEmailAlreadyUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Email:        cleanEmail,
		PasswordHash: hash,
		DisplayName:  cleanName,
		Role:         role,
		Status:       StatusActive,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID).Str("role", string(role)).Msg("user registered")
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	// Compare password hash before revealing account state.
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	switch u.Status {
	case StatusActive:
	case StatusSuspended:
		return nil, ErrSuspendedUser
	default:
		return nil, ErrInactiveUser
	}

	// Best effort; a failed timestamp update does not fail the login.
	now := s.clock.Now()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("failed to update last login")
	} else {
		u.LastLoginAt = &now
	}

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter Filter) ([]*User, int, error) {
	if err := auth.Authorize(actor, auth.OpListUsers, auth.NoTarget).Err(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

func (s *service) UpdateRole(ctx context.Context, actor auth.Actor, id string, role auth.Role) (*User, error) {
	if err := auth.Authorize(actor, auth.OpUpdateUserRole, auth.NoTarget).Err(); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperror.NewValidationError(map[string]string{"role": "invalid role: must be one of student, staff, admin"})
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ID == actor.ID && u.Role != role {
		return nil, ErrChangeOwnRole
	}

	u.Role = role
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Str("role", string(role)).Str("by", actor.ID).Msg("user role updated")
	return u, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id string, status Status) (*User, error) {
	if err := auth.Authorize(actor, auth.OpUpdateUserStatus, auth.NoTarget).Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ID == actor.ID && u.Status != status {
		return nil, ErrChangeOwnStatus
	}

	u.Status = status
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Str("status", string(status)).Str("by", actor.ID).Msg("user status updated")
	return u, nil
}

// BulkUpdateStatus applies UpdateStatus to each id independently. Only a
// denied actor or an invalid status fails the call as a whole.
func (s *service) BulkUpdateStatus(ctx context.Context, actor auth.Actor, ids []string, status Status) (bulk.Result, error) {
	if err := auth.Authorize(actor, auth.OpUpdateUserStatus, auth.NoTarget).Err(); err != nil {
		return bulk.Result{}, err
	}
	if !status.Valid() {
		return bulk.Result{}, ErrInvalidStatus
	}

	res := bulk.Run(ctx, ids, func(ctx context.Context, id string) error {
		_, err := s.UpdateStatus(ctx, actor, id, status)
		return err
	})
	if len(res.Failed) > 0 {
		s.logger.Warn().Int("failed", len(res.Failed)).Int("total", len(ids)).Msg("bulk status update partially failed")
	}
	return res, nil
}

func (s *service) EnsureAdmin(ctx context.Context, email, password, displayName string) (*User, error) {
	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	return s.create(ctx, email, password, displayName, auth.RoleAdmin)
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
