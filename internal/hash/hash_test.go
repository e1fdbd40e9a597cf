package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { Cost = bcrypt.MinCost }

func TestHashPassword_RoundTrip(t *testing.T) {
	h, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", h)

	assert.True(t, CheckPassword(h, "pw1"))
	assert.False(t, CheckPassword(h, "pw2"))
	assert.False(t, CheckPassword(h, ""))
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("", "pw"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "pw"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("p", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	h, err := HashPassword(strings.Repeat("p", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, strings.Repeat("p", MaxPasswordBytes)))
}
