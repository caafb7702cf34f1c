package catalog

import (
	"time"

	catalogDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/catalog"
)

// Reference value kinds.
const (
	KindEquipmentType = "equipment_type"
	KindBrand         = "brand"
	KindEmailDomain   = "email_domain"
	KindVendor        = "vendor"
)

func Kinds() []string {
	return []string{KindEquipmentType, KindBrand, KindEmailDomain, KindVendor}
}

// Parameter is one reference value operators pick from when registering or
// assigning equipment.
type Parameter struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Parameter) Activate() {
	p.IsActive = true
}

func (p *Parameter) Deactivate() {
	p.IsActive = false
}

func NewParameter(kind, value string, now time.Time) *Parameter {
	return &Parameter{
		Kind:      kind,
		Value:     value,
		IsActive:  true,
		CreatedAt: now,
	}
}

// DefaultValues is the reference data seeded into a fresh database.
func DefaultValues() map[string][]string {
	return map[string][]string{
		KindEquipmentType: {"Laptop", "Desktop", "Monitor", "Phone", "Tablet", "Printer"},
		KindBrand:         {"Dell", "HP", "Lenovo", "Apple", "Samsung"},
		KindEmailDomain:   {"company.com"},
		KindVendor:        {"TechSupply", "OfficeWorld"},
	}
}

func ToDataModel(p *Parameter) *catalogDatamodel.Parameter {
	return &catalogDatamodel.Parameter{
		ID:        p.ID,
		Type:      p.Kind,
		Value:     p.Value,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

func FromDataModel(p *catalogDatamodel.Parameter) *Parameter {
	return &Parameter{
		ID:        p.ID,
		Kind:      p.Type,
		Value:     p.Value,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}
