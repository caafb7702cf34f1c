package catalog

import (
	"regexp"
	"strings"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
)

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

type AddDTO struct {
	Kind  string `json:"kind" validate:"required"`
	Value string `json:"value" validate:"required,max=100"`
}

// Normalize lowercases email domains and strips a leading "@".
func (dto *AddDTO) Normalize() {
	dto.Kind = strings.ToLower(strings.TrimSpace(dto.Kind))
	dto.Value = strings.Join(strings.Fields(dto.Value), " ")
	if dto.Kind == KindEmailDomain {
		dto.Value = strings.TrimPrefix(strings.ToLower(dto.Value), "@")
	}
}

func (dto AddDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}

	v := validation.NewValidator()
	v.Field("kind", dto.Kind).OneOf(Kinds(), internal.ErrCodeValidationFailed)
	if dto.Kind == KindEmailDomain {
		v.Field("value", dto.Value).Custom(func(value interface{}) *internal.AppError {
			if !domainPattern.MatchString(value.(string)) {
				return internal.NewValidationFieldError("value", "value is not a valid email domain", internal.ErrCodeInvalidEmail)
			}
			return nil
		})
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ParametersResponse struct {
	Kind       string       `json:"kind"`
	Parameters []*Parameter `json:"parameters"`
}
