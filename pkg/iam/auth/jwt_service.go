package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// JWTService implements TokenService with HS256-signed JWTs.
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
}

// NewJWTService creates a new JWT token service.
func NewJWTService(secret string, ttl time.Duration, issuer string) *JWTService {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	if issuer == "" {
		issuer = "academy"
	}

	return &JWTService{
		secretKey: []byte(secret),
		ttl:       ttl,
		issuer:    issuer,
	}
}

// NewJWTServiceFromConfig creates the service from the auth config section.
func NewJWTServiceFromConfig(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		secretKey: []byte(cfg.Secret),
		ttl:       cfg.TTL,
		issuer:    cfg.Issuer,
	}
}

// jwtClaims is the wire shape of the claim set.
type jwtClaims struct {
	UserID kernel.UserID `json:"user_id"`
	Email  string        `json:"email"`
	Role   kernel.Role   `json:"role"`
	jwt.RegisteredClaims
}

// Issue mints a signed token for the given claims with the configured TTL.
func (j *JWTService) Issue(claims TokenClaims) (string, error) {
	now := time.Now()

	wire := jwtClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   claims.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wire)

	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the embedded claims.
// Expiry on an otherwise valid token is the only condition reported as
// AUTH_TOKEN_EXPIRED; any structural or signature problem is
// AUTH_TOKEN_MALFORMED.
func (j *JWTService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired()
		}
		return nil, ErrTokenMalformed().WithDetail("error", err.Error())
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed()
	}

	out := &TokenClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// TTL returns the configured token lifetime.
func (j *JWTService) TTL() time.Duration {
	return j.ttl
}
