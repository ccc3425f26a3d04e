package perrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrCarriesUserMessage(t *testing.T) {
	err := NewErrNotFound("project lookup failed", errors.New("Project does not exist"))

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Project does not exist", perr.Error())
	assert.Equal(t, http.StatusNotFound, perr.HttpStatus())
}

func TestErrStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{NewErrInvalidRequest("m", errors.New("x")), http.StatusBadRequest},
		{NewErrUnauthorized("m", errors.New("x")), http.StatusUnauthorized},
		{NewErrNotFound("m", errors.New("x")), http.StatusNotFound},
		{NewErrConflict("m", errors.New("x")), http.StatusConflict},
		{NewErrInternalServerError("m", errors.New("x")), http.StatusInternalServerError},
	}

	for _, c := range cases {
		var perr Err
		require.True(t, errors.As(c.err, &perr))
		assert.Equal(t, c.status, perr.HttpStatus())
	}
}

func TestErrNilCause(t *testing.T) {
	err := NewErrInternalServerError("something broke", nil)

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "error missing", perr.Error())
}

func TestErrRecordsStacktrace(t *testing.T) {
	err := New(ErrCodeInternalServer, "m", errors.New("x"))

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.NotEmpty(t, perr.Stacktrace)
}
