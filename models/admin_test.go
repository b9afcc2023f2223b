package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminPassword(t *testing.T) {
	a := &Admin{Username: "staff", Password: "rahasia123"}
	require.NoError(t, a.HashPassword())

	assert.NotEqual(t, "rahasia123", a.Password)
	assert.True(t, a.ValidatePassword("rahasia123"))
	assert.False(t, a.ValidatePassword("salah"))
}
