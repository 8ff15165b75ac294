package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the verified identity attached to authenticated requests.
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
