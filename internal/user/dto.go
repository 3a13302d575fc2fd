// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

// RegisterInput is what signup and admin creation hand to the service.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Role            core.Role
	Photo           string
}

type CreateUserRequest struct {
	Name            string `json:"name"            validate:"required,min=1,max=100"`
	Email           string `json:"email"           validate:"required,email,max=255"`
	Photo           string `json:"photo"           validate:"omitempty,max=512"`
	Role            string `json:"role"            validate:"omitempty,oneof=admin lead-guide guide user"`
	Password        string `json:"password"        validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
	Photo *string `json:"photo" validate:"omitempty,max=512"`
	Role  *string `json:"role"  validate:"omitempty,oneof=admin lead-guide guide user"`
}

type UpdateMeRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// UserResponse never carries the password hash or reset state.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo"`
	Role      core.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Photo:     u.Photo,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PasswordFields are the body keys the profile routes refuse.
var PasswordFields = []string{"password", "passwordConfirm"}
