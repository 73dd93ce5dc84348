package dto

// LoginRequest is the admin login body. There is a single admin account, so
// only the password is submitted.
type LoginRequest struct {
	Password string `json:"password" binding:"required" validate:"required"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}
