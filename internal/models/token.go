package models

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the only role the service knows; uploads and deletes require it.
const RoleAdmin = "admin"

// JWTClaims is the payload carried inside admin access tokens.
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
