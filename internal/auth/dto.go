package auth

import (
	"strings"

	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
)

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (dto *LoginDTO) Normalize() {
	dto.Username = strings.ToLower(strings.TrimSpace(dto.Username))
}

func (dto LoginDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}
