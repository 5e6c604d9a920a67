// Package service contains the application's business logic.
package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gatepost/internal/middleware"
	"gatepost/internal/models"
	"gatepost/internal/repository"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 50
	minPasswordLen = 6
)

// AccountService handles invite-gated registration and credential checks.
type AccountService struct {
	db      *gorm.DB
	users   repository.UserRepository
	invites repository.InviteRepository
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username   string
	Password   string
	InviteCode string
}

// NewAccountService creates a new account service.
func NewAccountService(db *gorm.DB, users repository.UserRepository, invites repository.InviteRepository) *AccountService {
	return &AccountService{db: db, users: users, invites: invites}
}

// Register validates the input, then creates the user and consumes the
// invite code in one transaction. Validation short-circuits on the first
// failure; the pre-checks on username and invite are optimizations, the
// database constraints settle races at commit.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)
	inviteCode := strings.TrimSpace(in.InviteCode)

	if username == "" || password == "" || inviteCode == "" {
		return nil, models.NewFieldValidationError(models.ReasonMissingFields, "Username, password and invite code are required")
	}
	// Limits count characters, not bytes, so multibyte names fit.
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, models.NewFieldValidationError(models.ReasonUsernameLength, "Username must be between 2 and 50 characters")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, models.NewFieldValidationError(models.ReasonPasswordLength, "Password must be at least 6 characters")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewFieldValidationError(models.ReasonUsernameTaken, "Username already taken")
	}

	invite, err := s.invites.GetByCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		middleware.InviteConsumptions.WithLabelValues("not_found").Inc()
		return nil, models.NewFieldValidationError(models.ReasonInviteNotFound, "Invalid invite code")
	}
	if invite.IsUsed {
		middleware.InviteConsumptions.WithLabelValues("already_used").Inc()
		return nil, models.NewFieldValidationError(models.ReasonInviteAlreadyUsed, "Invite code already used")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		InviteCode:   inviteCode,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.invites.WithTx(tx).Consume(ctx, inviteCode, user.ID)
	})
	if err != nil {
		middleware.InviteConsumptions.WithLabelValues("failed").Inc()
		return nil, err
	}

	middleware.InviteConsumptions.WithLabelValues("consumed").Inc()
	return user, nil
}

// Login verifies credentials and returns the account. Unknown usernames and
// bad passwords both come back as the same unauthorized error.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetUser returns the account for an authenticated session.
func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
