// Package auth issues and verifies the JWT pair used by the API and holds
// the bcrypt password helpers.
//
// Two token kinds exist: short-lived access tokens presented on every
// request, and refresh tokens accepted only by the refresh endpoint. Every
// token carries a unique jti so logout can revoke it through the Redis
// denylist without keeping server-side sessions.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"drivebox/config"
)

const (
	// KindAccess marks tokens accepted by the auth middleware.
	KindAccess = "access"
	// KindRefresh marks tokens accepted only by POST /api/refresh.
	KindRefresh = "refresh"
)

// Claims is the typed JWT payload. The registered ID claim (jti) feeds the
// revocation denylist.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(config.JWTSecret())
}

func issue(userID uint, role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// GenerateToken creates a signed access token for the user.
func GenerateToken(userID uint, role string) (string, error) {
	return issue(userID, role, KindAccess, config.AccessTokenTTL())
}

// GenerateRefreshToken creates the longer-lived refresh token.
func GenerateRefreshToken(userID uint, role string) (string, error) {
	return issue(userID, role, KindRefresh, config.RefreshTokenTTL())
}

// ValidateToken parses t, checks the signature and expiry, and returns the
// claims. Only HS256 signatures are accepted.
func ValidateToken(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Kind == "" {
		// tokens minted before kinds existed count as access tokens
		claims.Kind = KindAccess
	}
	return claims, nil
}

// ValidateTokenOfKind validates t and additionally requires the given kind.
func ValidateTokenOfKind(t, kind string) (*Claims, error) {
	claims, err := ValidateToken(t)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("token kind %q not accepted here", claims.Kind)
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
