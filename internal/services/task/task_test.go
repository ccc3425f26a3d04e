package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusOnHold, StatusInProgress, StatusUnderReview, StatusCompleted} {
		assert.True(t, ValidStatus(s), "%s should be valid", s)
	}

	assert.False(t, ValidStatus("archived"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("Pending"))
}
