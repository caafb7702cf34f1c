package equipment

import (
	"strings"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal/core/common/validation"
)

const noObservations = "None"

type RegisterDTO struct {
	Tag          string `json:"tag" validate:"required,asset_tag"`
	Type         string `json:"type" validate:"required,max=60"`
	Brand        string `json:"brand" validate:"required,max=60"`
	Model        string `json:"model" validate:"required,model_name,max=100"`
	Serial       string `json:"serial" validate:"required,serial,max=60"`
	Vendor       string `json:"vendor,omitempty" validate:"max=100"`
	Observations string `json:"observations,omitempty"`
}

func (dto *RegisterDTO) Normalize() {
	dto.Tag = validation.NormalizeTag(dto.Tag)
	dto.Type = strings.TrimSpace(dto.Type)
	dto.Brand = strings.TrimSpace(dto.Brand)
	dto.Model = strings.TrimSpace(dto.Model)
	dto.Serial = strings.ToUpper(strings.TrimSpace(dto.Serial))
	dto.Vendor = strings.TrimSpace(dto.Vendor)
	dto.Observations = validation.NormalizeObservation(dto.Observations, noObservations)
}

func (dto RegisterDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type EditDTO struct {
	Type   string `json:"type,omitempty" validate:"max=60"`
	Brand  string `json:"brand,omitempty" validate:"max=60"`
	Model  string `json:"model,omitempty" validate:"omitempty,model_name,max=100"`
	Serial string `json:"serial,omitempty" validate:"omitempty,serial,max=60"`
	Reason string `json:"reason" validate:"required"`
}

func (dto *EditDTO) Normalize() {
	dto.Type = strings.TrimSpace(dto.Type)
	dto.Brand = strings.TrimSpace(dto.Brand)
	dto.Model = strings.TrimSpace(dto.Model)
	dto.Serial = strings.ToUpper(strings.TrimSpace(dto.Serial))
	dto.Reason = strings.TrimSpace(dto.Reason)
}

func (dto EditDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

// AssignDTO covers both assignment and loan; DueDate is only read for loans.
type AssignDTO struct {
	Name         string     `json:"name" validate:"required,full_name"`
	Email        string     `json:"email" validate:"required,email_address"`
	Observations string     `json:"observations" validate:"required"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

func (dto *AssignDTO) Normalize() {
	dto.Name = validation.NormalizeName(dto.Name)
	dto.Email = validation.NormalizeEmail(dto.Email)
	dto.Observations = strings.TrimSpace(dto.Observations)
}

func (dto AssignDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type ReturnDTO struct {
	Reason string `json:"reason" validate:"required"`
}

type MaintenanceDTO struct {
	Kind         string `json:"kind" validate:"required,oneof=Preventive Corrective Upgrade"`
	Observations string `json:"observations" validate:"required"`
}

func (dto MaintenanceDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type CompleteMaintenanceDTO struct {
	Observations string `json:"observations" validate:"required"`
}

// VendorReturnDTO registers a unit for return to its vendor. A date in the
// past is accepted only with a justification.
type VendorReturnDTO struct {
	Reason        string    `json:"reason" validate:"required"`
	Date          time.Time `json:"date"`
	Justification string    `json:"justification,omitempty"`
	Observations  string    `json:"observations" validate:"required"`
}

func (dto *VendorReturnDTO) Normalize() {
	dto.Reason = strings.TrimSpace(dto.Reason)
	dto.Justification = strings.TrimSpace(dto.Justification)
	dto.Observations = strings.TrimSpace(dto.Observations)
}

func (dto VendorReturnDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

// NotRepairableDTO closes a failed maintenance. RetireNote is required when
// the unit entered maintenance while assigned or on loan.
type NotRepairableDTO struct {
	RetireNote string `json:"retire_note,omitempty"`
	VendorReturnDTO
}

type ResolutionDTO struct {
	Observations string `json:"observations" validate:"required"`
}

func (dto ResolutionDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type DeleteDTO struct {
	Reason string `json:"reason" validate:"required"`
}

type ListFilter struct {
	Statuses []Status
	Type     string
	Search   string
	Limit    int
}
