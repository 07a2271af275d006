package users

import "github.com/jrsteele09/go-account-dashboard/internal/utils"

// User is the authenticated account as reported by the identity backend.
// It is always replaced as a whole or cleared, never patched.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Avatar    *string `json:"avatar,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// AuthResponse is the success body of /auth/login, /auth/signup and /auth/refresh
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// LoginRequest is the body posted to /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body posted to /auth/signup
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// RegisterForm is the registration form as submitted by the visitor
type RegisterForm struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

func (f RegisterForm) Request() RegisterRequest {
	return RegisterRequest{Email: f.Email, Password: f.Password, Name: f.Name}
}

// DisplayName falls back to the email when the backend has no name on record
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func (u *User) AvatarURL() string {
	if u == nil {
		return ""
	}
	return utils.Value(u.Avatar)
}
