package transfer

import "github.com/golang-jwt/jwt/v5"

type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
