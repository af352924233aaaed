package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/shenikar/alertabh/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := ParseAccounts([]string{
		fmt.Sprintf("admin:%s:admin:Administrador", hash(t, "s3cret")),
		fmt.Sprintf(" joao:%s:user:João Silva", hash(t, "senha")),
	})
	require.NoError(t, err)
	return a
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t)

	s, err := a.Authenticate("admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, models.Session{Login: "admin", Name: "Administrador", Role: models.RoleAdmin}, s)
	assert.True(t, s.IsAdmin())

	s, err = a.Authenticate("joao", "senha")
	require.NoError(t, err)
	assert.False(t, s.IsAdmin())

	_, err = a.Authenticate("joao", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate("nobody", "senha")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseAccounts_Errors(t *testing.T) {
	_, err := ParseAccounts(nil)
	assert.Error(t, err)

	_, err = ParseAccounts([]string{"admin:nothash:admin:Administrador"})
	assert.ErrorContains(t, err, "invalid bcrypt hash")

	_, err = ParseAccounts([]string{fmt.Sprintf("root:%s:superuser:Root", hash(t, "x"))})
	assert.ErrorContains(t, err, "unknown role")

	_, err = ParseAccounts([]string{"broken"})
	assert.ErrorContains(t, err, "malformed")
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	session := models.Session{Login: "joao", Name: "João Silva", Role: models.RoleUser}

	token, exp, err := issuer.Issue(session)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestIssuer_RejectsExpiredAndForeign(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	token, _, err := issuer.Issue(models.Session{Login: "admin", Name: "Administrador", Role: models.RoleAdmin})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewIssuer("another-secret", time.Minute)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
