package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finlink/internal/shared/apperr"
)

// TokenUse distinguishes access tokens from refresh tokens so that one
// can never be presented in place of the other.
type TokenUse string

const (
	AccessToken  TokenUse = "access"
	RefreshToken TokenUse = "refresh"
)

const bearerTokenType = "bearer"

type Claims struct {
	TokenUse TokenUse `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenPair is issued on registration, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type JWT struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewJWT returns an issuer/verifier for the given HMAC algorithm
// (HS256, HS384 or HS512).
func NewJWT(secret, algorithm string) (*JWT, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &JWT{secret: []byte(secret), method: method, now: time.Now}, nil
}

// WithClock returns a copy of j that reads the current time from now.
func (j *JWT) WithClock(now func() time.Time) *JWT {
	clone := *j
	clone.now = now
	return &clone
}

// Issue signs a token for subject that expires ttl from now.
func (j *JWT) Issue(subject string, use TokenUse, ttl time.Duration) (string, error) {
	now := j.now()
	claims := Claims{
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(now.Add(ttl))),
		},
	}

	signed, err := jwt.NewWithClaims(j.method, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ceilSecond rounds t up to a whole second. NumericDate keeps whole
// seconds, so a truncated exp would cut up to a second off the TTL.
func ceilSecond(t time.Time) time.Time {
	if whole := t.Truncate(time.Second); !whole.Equal(t) {
		return whole.Add(time.Second)
	}
	return t
}

// IssuePair signs an access token and a refresh token for the same subject.
func (j *JWT) IssuePair(subject string, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	access, err := j.Issue(subject, AccessToken, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := j.Issue(subject, RefreshToken, refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    bearerTokenType,
	}, nil
}

// Verify checks signature, algorithm, expiry and token use, and returns
// the subject claim. Every failure wraps apperr.ErrUnauthenticated.
func (j *JWT) Verify(tokenString string, use TokenUse) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", apperr.ErrUnauthenticated)
	}
	if claims.TokenUse != use {
		return "", fmt.Errorf("%w: expected %s token, got %q", apperr.ErrUnauthenticated, use, claims.TokenUse)
	}

	return claims.Subject, nil
}
