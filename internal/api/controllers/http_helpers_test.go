package controllers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/api/pipeline"
	auth2 "github.com/uptask/uptask-server/internal/services/auth"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", normalizeEmail("Ana@Example.COM"))
	assert.Equal(t, "ana@example.com", normalizeEmail("  ana@example.com "))
	assert.Equal(t, "ana@example.com", normalizeEmail("ana@example.com"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("ana@example.com"))
	assert.False(t, validEmail("not-an-email"))
	assert.False(t, validEmail(""))
}

func TestValidateEmailBodyLowercases(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetBody([]byte(`{"email": "Ana@Example.COM"}`))

	sc := &pipeline.Scope{}
	require.NoError(t, validateEmailBody()(ctx, context.Background(), sc))

	body, ok := sc.Body.(*emailRequest)
	require.True(t, ok)
	// The same mailbox with different casing must hit the same account
	assert.Equal(t, "ana@example.com", body.Email)
}

func TestValidateLoginLowercases(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetBody([]byte(`{"email": "Ana@Example.COM", "password": "password123"}`))

	sc := &pipeline.Scope{}
	require.NoError(t, validateLogin()(ctx, context.Background(), sc))

	body, ok := sc.Body.(*loginRequest)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", body.Email)
}

func TestValidateCreateAccountLowercases(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetBody([]byte(`{"name": "Ana", "email": "Ana@Example.COM", "password": "password123", "password_confirmation": "password123"}`))

	sc := &pipeline.Scope{}
	require.NoError(t, validateCreateAccount()(ctx, context.Background(), sc))

	body, ok := sc.Body.(*auth2.CreateAccountRequest)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", body.Email)
}
