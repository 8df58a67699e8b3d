package models

// Credentials is the body of POST /auth/login and /auth/register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// User is returned by GET /auth/me.
type User struct {
	Username string `json:"username" yaml:"username"`
}
