package cms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"herbarium/internal/contribution"
)

const (
	defaultTokenTTL = 5 * time.Minute
	tokenIssuer     = "herbarium"
)

// AuthorClaims identify the account a contribution is written on behalf of.
type AuthorClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues short-lived HS256 tokens the CMS uses to attribute writes.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer for the shared secret. A non-positive ttl falls
// back to five minutes.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Token signs a bearer token whose subject is the author id.
func (s *Signer) Token(author contribution.Author) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", errors.New("cms: signing secret not configured")
	}
	if strings.TrimSpace(author.ID) == "" {
		return "", errors.New("cms: author id is required")
	}

	issued := s.now().UTC()
	claims := AuthorClaims{
		Name: author.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   author.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("cms: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token produced by Token and returns its claims.
func (s *Signer) Verify(raw string) (*AuthorClaims, error) {
	if s == nil || len(s.secret) == 0 {
		return nil, errors.New("cms: signing secret not configured")
	}
	claims := &AuthorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("cms: verify token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("cms: invalid token")
	}
	return claims, nil
}
