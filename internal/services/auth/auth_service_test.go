package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uptask/uptask-server/internal/services/token"
	"github.com/uptask/uptask-server/internal/services/user"
)

type fakeUserStore struct {
	byEmail          map[string]*user.User
	byID             map[uuid.UUID]*user.User
	updateProfileErr error
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserStore) CreateTx(tx *sqlx.Tx, name, email, passwordHash string) (*user.User, error) {
	return nil, errors.New("unexpected CreateTx")
}

func (f *fakeUserStore) SetConfirmedTx(tx *sqlx.Tx, id uuid.UUID) error {
	return nil
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) error {
	return f.updateProfileErr
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (f *fakeUserStore) UpdatePasswordTx(tx *sqlx.Tx, id uuid.UUID, passwordHash string) error {
	return nil
}

type fakeTokenStore struct {
	created []string
	byCode  map[string]*token.Token
}

func (f *fakeTokenStore) Create(ctx context.Context, userID uuid.UUID, code string) (*token.Token, error) {
	f.created = append(f.created, code)
	return &token.Token{ID: uuid.New(), Code: code, UserID: userID, ExpiresAt: time.Now().Add(token.TTL)}, nil
}

func (f *fakeTokenStore) CreateTx(tx *sqlx.Tx, userID uuid.UUID, code string) (*token.Token, error) {
	return f.Create(context.Background(), userID, code)
}

func (f *fakeTokenStore) GetByCode(ctx context.Context, code string) (*token.Token, error) {
	if t, ok := f.byCode[code]; ok {
		return t, nil
	}
	return nil, token.ErrTokenNotFound
}

func (f *fakeTokenStore) DeleteTx(tx *sqlx.Tx, id uuid.UUID) error {
	return nil
}

type fakeSender struct {
	confirmations chan string
	resets        chan string
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		confirmations: make(chan string, 1),
		resets:        make(chan string, 1),
	}
}

func (f *fakeSender) SendConfirmation(name, email, code string) error {
	f.confirmations <- code
	return nil
}

func (f *fakeSender) SendPasswordReset(name, email, code string) error {
	f.resets <- code
	return nil
}

func waitForEmail(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case code := <-ch:
		return code
	case <-time.After(time.Second):
		t.Fatal("expected an email to be sent")
		return ""
	}
}

func confirmedUser(t *testing.T, email, password string) *user.User {
	t.Helper()
	hash, err := user.HashPassword(password)
	require.NoError(t, err)
	return &user.User{ID: uuid.New(), Name: "Ana", Email: email, PasswordHash: hash, Confirmed: true}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(nil, &fakeUserStore{}, &fakeTokenStore{}, newFakeSender())

	_, err := svc.Login(context.Background(), "nobody@example.com", "password")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginUnconfirmedReissuesToken(t *testing.T) {
	u := confirmedUser(t, "ana@example.com", "password123")
	u.Confirmed = false

	users := &fakeUserStore{byEmail: map[string]*user.User{u.Email: u}}
	tokens := &fakeTokenStore{}
	sender := newFakeSender()
	svc := NewAuthService(nil, users, tokens, sender)

	_, err := svc.Login(context.Background(), u.Email, "password123")
	assert.ErrorIs(t, err, ErrNotConfirmed)

	// A fresh confirmation token is persisted and mailed as a side effect
	require.Len(t, tokens.created, 1)
	assert.Equal(t, tokens.created[0], waitForEmail(t, sender.confirmations))
}

func TestLoginWrongPassword(t *testing.T) {
	u := confirmedUser(t, "ana@example.com", "password123")
	users := &fakeUserStore{byEmail: map[string]*user.User{u.Email: u}}
	tokens := &fakeTokenStore{}
	svc := NewAuthService(nil, users, tokens, newFakeSender())

	_, err := svc.Login(context.Background(), u.Email, "wrong-password")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Empty(t, tokens.created, "a confirmed account never gets a new token from login")
}

func TestLoginSuccess(t *testing.T) {
	u := confirmedUser(t, "ana@example.com", "password123")
	users := &fakeUserStore{byEmail: map[string]*user.User{u.Email: u}}
	svc := NewAuthService(nil, users, &fakeTokenStore{}, newFakeSender())

	got, err := svc.Login(context.Background(), u.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRequestConfirmationCodeAlreadyConfirmed(t *testing.T) {
	u := confirmedUser(t, "ana@example.com", "password123")
	users := &fakeUserStore{byEmail: map[string]*user.User{u.Email: u}}
	svc := NewAuthService(nil, users, &fakeTokenStore{}, newFakeSender())

	err := svc.RequestConfirmationCode(context.Background(), u.Email)
	assert.ErrorIs(t, err, ErrConfirmed)
}

func TestRequestConfirmationCodeUnconfirmed(t *testing.T) {
	u := confirmedUser(t, "ana@example.com", "password123")
	u.Confirmed = false

	users := &fakeUserStore{byEmail: map[string]*user.User{u.Email: u}}
	tokens := &fakeTokenStore{}
	sender := newFakeSender()
	svc := NewAuthService(nil, users, tokens, sender)

	require.NoError(t, svc.RequestConfirmationCode(context.Background(), u.Email))
	require.Len(t, tokens.created, 1)
	assert.Equal(t, tokens.created[0], waitForEmail(t, sender.confirmations))
}

func TestForgotPasswordSendsReset(t *testing.T) {
	u := confirmedUser(t, "ana@example.com", "password123")
	users := &fakeUserStore{byEmail: map[string]*user.User{u.Email: u}}
	tokens := &fakeTokenStore{}
	sender := newFakeSender()
	svc := NewAuthService(nil, users, tokens, sender)

	require.NoError(t, svc.ForgotPassword(context.Background(), u.Email))
	require.Len(t, tokens.created, 1)
	assert.Equal(t, tokens.created[0], waitForEmail(t, sender.resets))
}

func TestValidateTokenExpired(t *testing.T) {
	expired := &token.Token{ID: uuid.New(), Code: "123456", ExpiresAt: time.Now().Add(-time.Minute)}
	tokens := &fakeTokenStore{byCode: map[string]*token.Token{expired.Code: expired}}
	svc := NewAuthService(nil, &fakeUserStore{}, tokens, newFakeSender())

	err := svc.ValidateToken(context.Background(), expired.Code)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenUnknown(t *testing.T) {
	svc := NewAuthService(nil, &fakeUserStore{}, &fakeTokenStore{}, newFakeSender())

	err := svc.ValidateToken(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenLive(t *testing.T) {
	live := &token.Token{ID: uuid.New(), Code: "123456", ExpiresAt: time.Now().Add(token.TTL)}
	tokens := &fakeTokenStore{byCode: map[string]*token.Token{live.Code: live}}
	svc := NewAuthService(nil, &fakeUserStore{}, tokens, newFakeSender())

	assert.NoError(t, svc.ValidateToken(context.Background(), live.Code))
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	me := confirmedUser(t, "me@example.com", "password123")
	other := confirmedUser(t, "taken@example.com", "password123")
	users := &fakeUserStore{byEmail: map[string]*user.User{
		me.Email:    me,
		other.Email: other,
	}}
	svc := NewAuthService(nil, users, &fakeTokenStore{}, newFakeSender())

	err := svc.UpdateProfile(context.Background(), me.ID, "Me", other.Email)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateProfileDuplicateRace(t *testing.T) {
	// The pre-check passes but the write itself loses to a concurrent
	// registration; the unique index answer still maps to a conflict.
	me := confirmedUser(t, "me@example.com", "password123")
	users := &fakeUserStore{
		byEmail:          map[string]*user.User{me.Email: me},
		updateProfileErr: user.ErrDuplicateEmail,
	}
	svc := NewAuthService(nil, users, &fakeTokenStore{}, newFakeSender())

	err := svc.UpdateProfile(context.Background(), me.ID, "Me", "new@example.com")
	assert.ErrorIs(t, err, ErrEmailTaken)
}
