package user

import (
	"strings"

	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
)

type CreateDTO struct {
	Username string `json:"username" validate:"required,username"`
	FullName string `json:"full_name" validate:"required,full_name,max=120"`
	Email    string `json:"email" validate:"required,email_address"`
	Role     string `json:"role" validate:"required"`
}

func (dto *CreateDTO) Normalize() {
	dto.Username = strings.ToLower(strings.TrimSpace(dto.Username))
	dto.FullName = validation.NormalizeName(dto.FullName)
	dto.Email = validation.NormalizeEmail(dto.Email)
	dto.Role = strings.TrimSpace(dto.Role)
}

func (dto CreateDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type ChangePasswordDTO struct {
	Current string `json:"current" validate:"required"`
	New     string `json:"new" validate:"required,password_policy"`
}

func (dto ChangePasswordDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}
