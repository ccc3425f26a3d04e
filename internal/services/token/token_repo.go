package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepo struct {
	db *sqlx.DB
}

func NewTokenRepo(db *sqlx.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Create(ctx context.Context, userID uuid.UUID, code string) (*Token, error) {
	query := `
		INSERT INTO tokens (token, user_id, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 second')
		RETURNING id, token, user_id, created_at, expires_at
	`
	var t Token
	err := r.db.GetContext(ctx, &t, query, code, userID, int(TTL.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) CreateTx(tx *sqlx.Tx, userID uuid.UUID, code string) (*Token, error) {
	query := `
		INSERT INTO tokens (token, user_id, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 second')
		RETURNING id, token, user_id, created_at, expires_at
	`
	var t Token
	err := tx.Get(&t, query, code, userID, int(TTL.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) GetByCode(ctx context.Context, code string) (*Token, error) {
	query := `
		SELECT id, token, user_id, created_at, expires_at
		FROM tokens
		WHERE token = $1
	`
	var t Token
	err := r.db.GetContext(ctx, &t, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) DeleteTx(tx *sqlx.Tx, id uuid.UUID) error {
	query := `DELETE FROM tokens WHERE id = $1`

	if _, err := tx.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}
