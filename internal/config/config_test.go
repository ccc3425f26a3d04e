package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("SOME_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnvOrDefault("SOME_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("SOME_UNSET_TEST_KEY", "fallback"))
}

func TestReadConfigDefaults(t *testing.T) {
	conf := ReadConfig()

	assert.Equal(t, "0.0.0.0:4000", conf.BIND_ADDR)
	assert.Equal(t, 587, conf.SMTP_PORT)
	assert.Equal(t, "http://localhost:5173", conf.FRONTEND_URL)
}

func TestReadConfigSMTPPort(t *testing.T) {
	t.Setenv("SMTP_PORT", "2525")

	conf := ReadConfig()
	assert.Equal(t, 2525, conf.SMTP_PORT)
}
