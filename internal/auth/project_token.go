package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nextmavens/filestore/internal/domain"
)

// ProjectTokenIssuer mints project-scoped service tokens
type ProjectTokenIssuer struct {
	secret []byte
}

// NewProjectTokenIssuer creates a new token issuer
func NewProjectTokenIssuer(secret string) (*ProjectTokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}

	return &ProjectTokenIssuer{
		secret: []byte(secret),
	}, nil
}

// IssueToken creates a signed HS256 token carrying the project claims.
// A zero ttl produces a token without an expiry.
func (i *ProjectTokenIssuer) IssueToken(project domain.ProjectIdentity, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"project_id": project.ProjectID,
		"tenant_id":  project.TenantID,
		"iat":        now.Unix(),
	}

	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ProjectTokenVerifier validates service tokens and extracts the project
// identity they carry
type ProjectTokenVerifier struct {
	secret []byte
}

// NewProjectTokenVerifier creates a new token verifier
func NewProjectTokenVerifier(secret string) (*ProjectTokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}

	return &ProjectTokenVerifier{
		secret: []byte(secret),
	}, nil
}

// VerifyToken checks the token signature and returns the project identity
func (v *ProjectTokenVerifier) VerifyToken(tokenString string) (domain.ProjectIdentity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.ProjectIdentity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return domain.ProjectIdentity{}, fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.ProjectIdentity{}, fmt.Errorf("unexpected claims type")
	}

	projectID, hasProject := claims["project_id"].(float64)
	tenantID, _ := claims["tenant_id"].(string)

	if !hasProject || tenantID == "" {
		return domain.ProjectIdentity{}, fmt.Errorf("token is missing project claims")
	}

	return domain.ProjectIdentity{
		ProjectID: int64(projectID),
		TenantID:  tenantID,
	}, nil
}
