package users

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/validation"
)

const bcryptCost = 12

// Service encapsulates identity business logic: registration, credential
// verification and account administration.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// RegisterInput is the registration payload after transport-level binding.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates an account with the user role and an active flag. The
// email is checked before the username so a collision on both reports the
// email field.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if existing, err := s.repo.GetByEmail(ctx, email); err != nil {
		return nil, apperr.Internal("failed to check email", err)
	} else if existing != nil {
		return nil, apperr.Duplicate("email", "email already registered")
	}
	if existing, err := s.repo.GetByUsername(ctx, in.Username); err != nil {
		return nil, apperr.Internal("failed to check username", err)
	} else if existing != nil {
		return nil, apperr.Duplicate("username", "username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	u := &models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Preferences:  models.UserPreferences{EmailNotifications: true, PushNotifications: true},
		IsActive:     true,
		LastLoginAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies an email/password pair. Unknown emails and wrong
// passwords produce the same Unauthenticated error; a disabled account with
// a correct password is reported separately as AccountDisabled.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("failed to look up user", err)
	}
	if u == nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	if !u.IsActive {
		return nil, apperr.AccountDisabled("account is disabled, contact an administrator")
	}
	now := time.Now().UTC()
	if err := s.repo.SetLastLogin(ctx, u.ID, now); err == nil {
		u.LastLoginAt = now
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	u, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

// ChangePassword verifies the current password before rehashing. Wrong
// current passwords are a validation error, not an authentication failure:
// the caller is already authenticated.
func (s *Service) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	if len(next) < 6 {
		return apperr.ValidationField("newPassword", "new password must be at least 6 characters")
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperr.ValidationField("currentPassword", "current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

func (s *Service) List(ctx context.Context, p query.Params) ([]*models.User, int64, error) {
	return s.repo.List(ctx, p)
}

// SetActive toggles the activity flag: accounts are soft-disabled, never
// hard-deleted.
func (s *Service) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	u, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *Service) SetRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperr.ValidationField("role", "invalid role")
	}
	u, err := s.repo.SetRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (s *Service) Stats(ctx context.Context) (*StatsOverview, error) {
	return s.repo.Stats(ctx)
}
