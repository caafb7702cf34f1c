package equipment

import "time"

type Equipment struct {
	Tag                string     `gorm:"column:tag;primaryKey"`
	Type               string     `gorm:"column:type;not null;index"`
	Brand              string     `gorm:"column:brand;not null;index"`
	Model              string     `gorm:"column:model;not null"`
	Serial             string     `gorm:"column:serial;uniqueIndex;not null"`
	Vendor             *string    `gorm:"column:vendor"`
	Status             string     `gorm:"column:status;not null;index"`
	AssignedName       *string    `gorm:"column:assigned_name"`
	AssignedEmail      *string    `gorm:"column:assigned_email"`
	Observations       string     `gorm:"column:observations"`
	RegisteredAt       time.Time  `gorm:"column:registered_at;not null"`
	LoanDueDate        *time.Time `gorm:"column:loan_due_date"`
	VendorReturnDate   *time.Time `gorm:"column:vendor_return_date"`
	VendorReturnReason *string    `gorm:"column:vendor_return_reason"`
	PreviousStatus     *string    `gorm:"column:previous_status"`
	RenewalLinkedTag   *string    `gorm:"column:renewal_linked_tag"`
	RenewalDueDate     *time.Time `gorm:"column:renewal_due_date"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (Equipment) TableName() string {
	return "equipment"
}

// MovementLog rows are append-only.
type MovementLog struct {
	ID           int64     `gorm:"primaryKey"`
	EquipmentTag string    `gorm:"column:equipment_tag;not null;index"`
	Action       string    `gorm:"column:action;not null"`
	Detail       string    `gorm:"column:detail"`
	Actor        string    `gorm:"column:actor;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (MovementLog) TableName() string {
	return "movement_log"
}

func All() []interface{} {
	return []interface{}{&Equipment{}, &MovementLog{}}
}
