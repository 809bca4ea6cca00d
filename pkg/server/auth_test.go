package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour)

	token, err := a.Issue("employee1")
	require.NoError(t, err)

	subject, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "employee1", subject)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthenticator("secret-a", time.Hour).Issue("admin")
	require.NoError(t, err)

	_, err = NewAuthenticator("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour)
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := a.Issue("admin")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewAuthenticator("secret", time.Hour).Verify("not.a.token")
	assert.Error(t, err)
}
