package auth

import "platformo/internal/domain/models"

// JWTVerifier validates Supabase access tokens. The middleware depends on
// this interface only.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or
	// not an authenticated user's token.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close stops background JWKS refreshes.
	Close() error
}
