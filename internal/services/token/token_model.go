package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// TTL mirrors the "expires in 10 minutes" notice in the emails. A token
// past this window is rejected even if it was never consumed.
const TTL = 10 * time.Minute

type Token struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"token" json:"token"`
	UserID    uuid.UUID `db:"user_id" json:"user"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// GenerateCode returns a 6-digit confirmation code.
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the process has bigger problems
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
