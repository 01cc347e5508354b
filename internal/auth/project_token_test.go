package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextmavens/filestore/internal/domain"
)

func TestIssueAndVerifyToken(t *testing.T) {
	issuer, err := NewProjectTokenIssuer("test-secret")
	require.NoError(t, err)

	verifier, err := NewProjectTokenVerifier("test-secret")
	require.NoError(t, err)

	project := domain.ProjectIdentity{ProjectID: 42, TenantID: "acme"}

	token, err := issuer.IssueToken(project, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := verifier.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, project, identity)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer, err := NewProjectTokenIssuer("secret-a")
	require.NoError(t, err)

	verifier, err := NewProjectTokenVerifier("secret-b")
	require.NoError(t, err)

	token, err := issuer.IssueToken(domain.ProjectIdentity{ProjectID: 1, TenantID: "acme"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	verifier, err := NewProjectTokenVerifier("test-secret")
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"project_id": float64(1),
		"tenant_id":  "acme",
		"iat":        time.Now().Add(-2 * time.Hour).Unix(),
		"exp":        time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsNonHMACAlgorithm(t *testing.T) {
	verifier, err := NewProjectTokenVerifier("test-secret")
	require.NoError(t, err)

	// alg=none with an empty signature must never pass
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"project_id": float64(1),
		"tenant_id":  "acme",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(unsigned)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsMissingClaims(t *testing.T) {
	issuer, err := NewProjectTokenIssuer("test-secret")
	require.NoError(t, err)

	verifier, err := NewProjectTokenVerifier("test-secret")
	require.NoError(t, err)

	token, err := issuer.IssueToken(domain.ProjectIdentity{ProjectID: 7}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorContains(t, err, "missing project claims")
}

func TestTokenWithoutTTLHasNoExpiry(t *testing.T) {
	issuer, err := NewProjectTokenIssuer("test-secret")
	require.NoError(t, err)

	verifier, err := NewProjectTokenVerifier("test-secret")
	require.NoError(t, err)

	token, err := issuer.IssueToken(domain.ProjectIdentity{ProjectID: 1, TenantID: "acme"}, 0)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.NoError(t, err)
}

func TestEmptySecretIsRejected(t *testing.T) {
	_, err := NewProjectTokenIssuer("")
	assert.Error(t, err)

	_, err = NewProjectTokenVerifier("")
	assert.Error(t, err)
}
