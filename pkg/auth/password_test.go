package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	assert.True(t, VerifyPassword("Secret123", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("Secret123", ""))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("Secret123"))

	rejected := []string{
		"Ab1",         // too short
		"alllower1",   // no uppercase
		"ALLUPPER1",   // no lowercase
		"NoNumbersAa", // no digit
	}
	for _, p := range rejected {
		assert.Error(t, ValidatePasswordStrength(p), p)
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.example.co",
	}
	for _, e := range valid {
		assert.True(t, IsValidEmail(e), e)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"@example.com",
		"user@",
		"user@nodot",
	}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), e)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	session := UserSession{ID: "user-1", Name: "Test", Email: "test@example.com", Role: "technician"}

	token, err := GenerateToken(session)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session, claims.User)
	assert.NotEmpty(t, claims.ID, "jti doubles as the session key")

	_, err = ValidateToken(token + "tampered")
	assert.Error(t, err)
}

func TestDecodeTokenWithoutValidation(t *testing.T) {
	token, err := GenerateToken(UserSession{ID: "user-2", Role: "admin"})
	require.NoError(t, err)

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.User.ID)
	assert.True(t, claims.User.IsAdmin())
}
