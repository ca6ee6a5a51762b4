package api

// RegisterRequest represents a new account registration
type RegisterRequest struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Address         string `json:"address,omitempty"` // optional
	Phone           string `json:"phone,omitempty"`   // optional
}

// LoginRequest represents a credential check
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by register, login and refresh.
// Refresh echoes the refresh token back unchanged.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"` // always "Bearer"
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime in milliseconds
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

// MessageResponse carries a human-readable success message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries an error description. Details is populated only
// for field validation failures.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
