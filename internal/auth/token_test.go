package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedIssuer(secret string, now time.Time) *Issuer {
	issuer := NewIssuer(secret)
	issuer.now = func() time.Time { return now }
	return issuer
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := fixedIssuer("test-secret", now)

	token, err := issuer.Issue("42", "ada")
	require.NoError(t, err)

	claims, err := issuer.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, now.Add(30*24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err, "token id should be a uuid")
}

func TestIssueUsesUniqueIDs(t *testing.T) {
	issuer := NewIssuer("test-secret")
	first, err := issuer.Issue("1", "a")
	require.NoError(t, err)
	second, err := issuer.Issue("1", "a")
	require.NoError(t, err)

	c1, err := issuer.Verify(first)
	require.NoError(t, err)
	c2, err := issuer.Verify(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := fixedIssuer("test-secret", now)
	valid, err := issuer.Issue("7", "grace")
	require.NoError(t, err)

	expired := fixedIssuer("test-secret", now.Add(31*24*time.Hour))
	otherSecret := fixedIssuer("other-secret", now)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "7"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		issuer  *Issuer
		token   string
		wantErr error
	}{
		{"Empty token", issuer, "", ErrMissingToken},
		{"Bearer without token", issuer, "Bearer ", ErrMissingToken},
		{"Garbage", issuer, "not.a.token", ErrInvalidToken},
		{"Expired", expired, valid, ErrInvalidToken},
		{"Wrong secret", otherSecret, valid, ErrInvalidToken},
		{"Unsigned token", issuer, unsigned, ErrInvalidToken},
		{"Tampered payload", issuer, tamper(valid), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewIssuerDefaultsSecret(t *testing.T) {
	token, err := NewIssuer("").Issue("1", "dev")
	require.NoError(t, err)

	_, err = NewIssuer("your-secret-key-change-in-production").Verify(token)
	assert.NoError(t, err)
}

func tamper(token string) string {
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'e' {
		payload[0] = 'f'
	} else {
		payload[0] = 'e'
	}
	parts[1] = string(payload)
	return strings.Join(parts, ".")
}
