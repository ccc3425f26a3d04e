package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateCode()
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	tok := &Token{ExpiresAt: now.Add(TTL)}

	assert.False(t, tok.Expired(now))
	assert.False(t, tok.Expired(now.Add(TTL-time.Second)))
	assert.True(t, tok.Expired(now.Add(TTL+time.Second)))
}
