// AngelaMos | 2026
// dto.go

package auth

// Password lengths and confirmation are checked by the credential store so
// every write path reports the same messages.

type SignupRequest struct {
	Name            string `json:"name"            validate:"required,min=1,max=100"`
	Email           string `json:"email"           validate:"required,email,max=255"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}
