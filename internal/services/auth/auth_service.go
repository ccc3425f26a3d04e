package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uptask/uptask-server/internal/services/token"
	"github.com/uptask/uptask-server/internal/services/user"
)

var (
	ErrUserExists    = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotConfirmed  = errors.New("account not confirmed")
	ErrConfirmed     = errors.New("account already confirmed")
	ErrWrongPassword = errors.New("wrong password")
	ErrEmailTaken    = errors.New("email already registered")
)

// Sender delivers account emails. Satisfied by mail.Mailer.
type Sender interface {
	SendConfirmation(name, email, code string) error
	SendPasswordReset(name, email, code string) error
}

// UserStore is the user persistence surface the flows need. Satisfied by
// *user.UserRepo.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	CreateTx(tx *sqlx.Tx, name, email, passwordHash string) (*user.User, error)
	SetConfirmedTx(tx *sqlx.Tx, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePasswordTx(tx *sqlx.Tx, id uuid.UUID, passwordHash string) error
}

// TokenStore is the confirmation-token surface. Satisfied by *token.TokenRepo.
type TokenStore interface {
	Create(ctx context.Context, userID uuid.UUID, code string) (*token.Token, error)
	CreateTx(tx *sqlx.Tx, userID uuid.UUID, code string) (*token.Token, error)
	GetByCode(ctx context.Context, code string) (*token.Token, error)
	DeleteTx(tx *sqlx.Tx, id uuid.UUID) error
}

// AuthService owns the registration, confirmation and credential flows.
// It spans users and tokens, so unlike the single-entity services it holds
// the db handle for transactions pairing both tables.
type AuthService struct {
	db     *sqlx.DB
	users  UserStore
	tokens TokenStore
	mailer Sender
}

func NewAuthService(db *sqlx.DB, users UserStore, tokens TokenStore, mailer Sender) *AuthService {
	return &AuthService{db: db, users: users, tokens: tokens, mailer: mailer}
}

type CreateAccountRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// CreateAccount registers a new user and issues its confirmation token.
// User and token are written in one transaction; the email goes out after
// commit so a failed send never leaves a half-registered account.
func (s *AuthService) CreateAccount(ctx context.Context, req *CreateAccountRequest) error {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("failed to check for existing user: %w", err)
	}

	passwordHash, err := user.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	code := token.GenerateCode()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u, err := s.users.CreateTx(tx, req.Name, req.Email, passwordHash)
	if err != nil {
		tx.Rollback()
		// A concurrent registration for the same email loses the race
		// on the unique index rather than at the lookup above
		if errors.Is(err, user.ErrDuplicateEmail) {
			return ErrUserExists
		}
		return err
	}

	if _, err := s.tokens.CreateTx(tx, u.ID, code); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}

	s.sendConfirmation(u.Name, u.Email, code)
	return nil
}

// ConfirmAccount consumes a confirmation token and marks the user confirmed.
// The flag update and the token deletion happen in one transaction.
func (s *AuthService) ConfirmAccount(ctx context.Context, code string) error {
	t, err := s.lookupToken(ctx, code)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.users.SetConfirmedTx(tx, t.UserID); err != nil {
		tx.Rollback()
		return err
	}

	if err := s.tokens.DeleteTx(tx, t.ID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit confirmation: %w", err)
	}

	return nil
}

// Login checks credentials and returns the user on success. Logging into an
// unconfirmed account issues a fresh token and resends the confirmation email
// as a side effect before failing with ErrNotConfirmed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !u.Confirmed {
		code := token.GenerateCode()
		if _, err := s.tokens.Create(ctx, u.ID, code); err != nil {
			return nil, err
		}
		s.sendConfirmation(u.Name, u.Email, code)
		return nil, ErrNotConfirmed
	}

	if !user.CheckPassword(u.PasswordHash, password) {
		return nil, ErrWrongPassword
	}

	return u, nil
}

// RequestConfirmationCode reissues a confirmation token for an
// unconfirmed account.
func (s *AuthService) RequestConfirmationCode(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if u.Confirmed {
		return ErrConfirmed
	}

	code := token.GenerateCode()
	if _, err := s.tokens.Create(ctx, u.ID, code); err != nil {
		return err
	}

	s.sendConfirmation(u.Name, u.Email, code)
	return nil
}

// ForgotPassword issues a password reset token for a registered email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code := token.GenerateCode()
	if _, err := s.tokens.Create(ctx, u.ID, code); err != nil {
		return err
	}

	s.sendPasswordReset(u.Name, u.Email, code)
	return nil
}

// ValidateToken checks that a token exists and has not expired, without
// consuming it.
func (s *AuthService) ValidateToken(ctx context.Context, code string) error {
	_, err := s.lookupToken(ctx, code)
	return err
}

// UpdatePasswordWithToken consumes a reset token and stores the new password.
func (s *AuthService) UpdatePasswordWithToken(ctx context.Context, code, password string) error {
	t, err := s.lookupToken(ctx, code)
	if err != nil {
		return err
	}

	passwordHash, err := user.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.users.UpdatePasswordTx(tx, t.UserID, passwordHash); err != nil {
		tx.Rollback()
		return err
	}

	if err := s.tokens.DeleteTx(tx, t.ID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit password update: %w", err)
	}

	return nil
}

// UpdateProfile changes name and email; moving to an email owned by another
// user is a conflict.
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil && existing.ID != id {
		return ErrEmailTaken
	} else if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return err
	}

	if err := s.users.UpdateProfile(ctx, id, name, email); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return err
	}

	return nil
}

// UpdateCurrentPassword changes the password after checking the current one.
func (s *AuthService) UpdateCurrentPassword(ctx context.Context, id uuid.UUID, currentPassword, password string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !user.CheckPassword(u.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	passwordHash, err := user.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, id, passwordHash)
}

// CheckPassword verifies the acting user's password.
func (s *AuthService) CheckPassword(ctx context.Context, id uuid.UUID, password string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !user.CheckPassword(u.PasswordHash, password) {
		return ErrWrongPassword
	}

	return nil
}

func (s *AuthService) lookupToken(ctx context.Context, code string) (*token.Token, error) {
	t, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if t.Expired(time.Now()) {
		return nil, ErrInvalidToken
	}

	return t, nil
}

// Emails are delivered off the request path; a relay failure is logged and
// the flow that produced the token still succeeds.
func (s *AuthService) sendConfirmation(name, email, code string) {
	go func() {
		if err := s.mailer.SendConfirmation(name, email, code); err != nil {
			slog.Error("Failed to send confirmation email", slog.String("email", email), slog.Any("error", err))
		}
	}()
}

func (s *AuthService) sendPasswordReset(name, email, code string) {
	go func() {
		if err := s.mailer.SendPasswordReset(name, email, code); err != nil {
			slog.Error("Failed to send password reset email", slog.String("email", email), slog.Any("error", err))
		}
	}()
}
