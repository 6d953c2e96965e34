package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims are the claims Supabase puts in the access tokens it
// issues to the front-end. Subject is the Supabase user id.
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseSupabaseToken validates a Supabase access token against the
// project's JWT secret (HS256).
func ParseSupabaseToken(tokenString, jwtSecret string) (*SupabaseClaims, error) {
	claims := &SupabaseClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
