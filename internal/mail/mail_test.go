package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmationBody(t *testing.T) {
	body := ConfirmationBody("Ana", "482910", "http://localhost:5173")

	assert.True(t, strings.Contains(body, "Ana"))
	assert.True(t, strings.Contains(body, "482910"))
	assert.True(t, strings.Contains(body, "http://localhost:5173/auth/confirm-account"))
	assert.True(t, strings.Contains(body, "expires in 10 minutes"))
}

func TestPasswordResetBody(t *testing.T) {
	body := PasswordResetBody("Ana", "482910", "http://localhost:5173")

	assert.True(t, strings.Contains(body, "Ana"))
	assert.True(t, strings.Contains(body, "482910"))
	assert.True(t, strings.Contains(body, "http://localhost:5173/auth/new-password"))
	assert.True(t, strings.Contains(body, "expires in 10 minutes"))
}
