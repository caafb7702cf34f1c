package equipment

import (
	"fmt"
	"time"

	"github.com/frahmantamala/equipment-inventory/internal"
	equipmentDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/equipment"
)

type Status string

const (
	StatusAvailable           Status = "Available"
	StatusAssigned            Status = "Assigned"
	StatusOnLoan              Status = "OnLoan"
	StatusInMaintenance       Status = "InMaintenance"
	StatusPendingVendorReturn Status = "PendingVendorReturn"
	StatusReturnedToVendor    Status = "ReturnedToVendor"
	StatusInRenewal           Status = "InRenewal"
)

func Statuses() []Status {
	return []Status{
		StatusAvailable,
		StatusAssigned,
		StatusOnLoan,
		StatusInMaintenance,
		StatusPendingVendorReturn,
		StatusReturnedToVendor,
		StatusInRenewal,
	}
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", internal.NewValidationFieldError("status", fmt.Sprintf("unknown status %q", s), internal.ErrCodeValidationFailed)
}

// Event names a state machine transition.
type Event string

const (
	EventAssign              Event = "assign"
	EventLoan                Event = "loan"
	EventStartMaintenance    Event = "start-maintenance"
	EventStartVendorReturn   Event = "start-vendor-return"
	EventReturnToInventory   Event = "return-to-inventory"
	EventStartRenewal        Event = "start-renewal"
	EventReserveForRenewal   Event = "reserve-for-renewal"
	EventCompleteMaintenance Event = "complete-maintenance"
	EventNotRepairable       Event = "not-repairable"
	EventConfirmVendorReturn Event = "confirm-vendor-return"
	EventRejectVendorReturn  Event = "reject-vendor-return"
	EventReactivate          Event = "reactivate"
	EventApproveRenewal      Event = "approve-renewal"
	EventIssueRenewal        Event = "issue-renewal"
	EventRejectRenewal       Event = "reject-renewal"
	EventReleaseRenewal      Event = "release-renewal"
)

func Events() []Event {
	return []Event{
		EventAssign,
		EventLoan,
		EventStartMaintenance,
		EventStartVendorReturn,
		EventReturnToInventory,
		EventStartRenewal,
		EventReserveForRenewal,
		EventCompleteMaintenance,
		EventNotRepairable,
		EventConfirmVendorReturn,
		EventRejectVendorReturn,
		EventReactivate,
		EventApproveRenewal,
		EventIssueRenewal,
		EventRejectRenewal,
		EventReleaseRenewal,
	}
}

// restorePrevious marks a transition whose target is the saved previous status.
const restorePrevious Status = ""

var transitions = map[Status]map[Event]Status{
	StatusAvailable: {
		EventAssign:            StatusAssigned,
		EventLoan:              StatusOnLoan,
		EventStartMaintenance:  StatusInMaintenance,
		EventStartVendorReturn: StatusPendingVendorReturn,
		EventReserveForRenewal: StatusInRenewal,
	},
	StatusAssigned: {
		EventReturnToInventory: StatusAvailable,
		EventStartMaintenance:  StatusInMaintenance,
		EventStartRenewal:      StatusInRenewal,
	},
	StatusOnLoan: {
		EventReturnToInventory: StatusAvailable,
		EventStartMaintenance:  StatusInMaintenance,
	},
	StatusInMaintenance: {
		EventCompleteMaintenance: restorePrevious,
		EventNotRepairable:       StatusPendingVendorReturn,
	},
	StatusPendingVendorReturn: {
		EventConfirmVendorReturn: StatusReturnedToVendor,
		EventRejectVendorReturn:  StatusAvailable,
	},
	StatusReturnedToVendor: {
		EventReactivate: StatusAvailable,
	},
	StatusInRenewal: {
		EventApproveRenewal: StatusPendingVendorReturn,
		EventIssueRenewal:   StatusAssigned,
		EventRejectRenewal:  StatusAssigned,
		EventReleaseRenewal: StatusAvailable,
	},
}

// Allowed reports whether ev is legal from status.
func Allowed(from Status, ev Event) bool {
	_, ok := transitions[from][ev]
	return ok
}

const (
	ReasonDamaged   = "Damaged"
	ReasonNotNeeded = "No longer needed"
	ReasonTheft     = "Theft"
	ReasonRenewal   = "Renewal"
)

func VendorReturnReasons() []string {
	return []string{ReasonDamaged, ReasonNotNeeded, ReasonTheft}
}

const (
	MaintenancePreventive = "Preventive"
	MaintenanceCorrective = "Corrective"
	MaintenanceUpgrade    = "Upgrade"
)

func MaintenanceKinds() []string {
	return []string{MaintenancePreventive, MaintenanceCorrective, MaintenanceUpgrade}
}

// Audit action labels.
const (
	ActionRegistered            = "Registered"
	ActionEdited                = "Edited"
	ActionDeleted               = "Deleted"
	ActionAssigned              = "Assigned"
	ActionLoaned                = "Loaned"
	ActionReturned              = "Returned to inventory"
	ActionMaintenanceStarted    = "Maintenance started"
	ActionMaintenanceCompleted  = "Maintenance completed"
	ActionVendorReturnStarted   = "Vendor return registered"
	ActionVendorReturnConfirmed = "Vendor return confirmed"
	ActionVendorReturnRejected  = "Vendor return rejected"
	ActionReactivated           = "Reactivated"
	ActionRenewalStarted        = "Renewal started"
	ActionRenewalApproved       = "Renewal approved"
	ActionAssignedByRenewal     = "Assigned by renewal"
	ActionRenewalRejected       = "Renewal rejected"
)

// Equipment is one physical asset. All status changes go through the
// transition methods below, which leave the record untouched when the
// event is not legal from the current status.
type Equipment struct {
	Tag                string     `json:"tag"`
	Type               string     `json:"type"`
	Brand              string     `json:"brand"`
	Model              string     `json:"model"`
	Serial             string     `json:"serial"`
	Vendor             string     `json:"vendor,omitempty"`
	Status             Status     `json:"status"`
	AssignedName       string     `json:"assigned_name,omitempty"`
	AssignedEmail      string     `json:"assigned_email,omitempty"`
	Observations       string     `json:"observations"`
	RegisteredAt       time.Time  `json:"registered_at"`
	LoanDueDate        *time.Time `json:"loan_due_date,omitempty"`
	VendorReturnDate   *time.Time `json:"vendor_return_date,omitempty"`
	VendorReturnReason string     `json:"vendor_return_reason,omitempty"`
	PreviousStatus     Status     `json:"previous_status,omitempty"`
	RenewalLinkedTag   string     `json:"renewal_linked_tag,omitempty"`
	RenewalDueDate     *time.Time `json:"renewal_due_date,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Movement is one entry of the append-only movement log.
type Movement struct {
	ID           int64     `json:"id"`
	EquipmentTag string    `json:"equipment_tag"`
	Action       string    `json:"action"`
	Detail       string    `json:"detail"`
	Actor        string    `json:"actor"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewEquipment(dto RegisterDTO, now time.Time) *Equipment {
	return &Equipment{
		Tag:          dto.Tag,
		Type:         dto.Type,
		Brand:        dto.Brand,
		Model:        dto.Model,
		Serial:       dto.Serial,
		Vendor:       dto.Vendor,
		Status:       StatusAvailable,
		Observations: dto.Observations,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
}

func (e *Equipment) Clone() *Equipment {
	c := *e
	c.LoanDueDate = cloneTime(e.LoanDueDate)
	c.VendorReturnDate = cloneTime(e.VendorReturnDate)
	c.RenewalDueDate = cloneTime(e.RenewalDueDate)
	return &c
}

func (e *Equipment) IsAssigned() bool {
	return e.Status == StatusAssigned || e.Status == StatusOnLoan
}

// AwaitingRenewalApproval is true for the outgoing unit of an open renewal.
func (e *Equipment) AwaitingRenewalApproval() bool {
	return e.Status == StatusInRenewal && e.RenewalDueDate != nil
}

// target resolves ev against the transition table without touching e.
func (e *Equipment) target(ev Event) (Status, error) {
	to, ok := transitions[e.Status][ev]
	if !ok {
		return "", internal.ErrInvalidTransition.
			WithMessage("cannot %s equipment %s while it is %s", ev, e.Tag, e.Status).
			WithDetails(map[string]string{"tag": e.Tag, "status": string(e.Status), "event": string(ev)})
	}
	if to == restorePrevious {
		to = e.PreviousStatus
		if to == "" {
			to = StatusAvailable
		}
	}
	return to, nil
}

// Can reports whether ev is legal right now.
func (e *Equipment) Can(ev Event) bool {
	_, err := e.target(ev)
	return err == nil
}

// Check returns InvalidTransition when ev is not legal right now.
func (e *Equipment) Check(ev Event) error {
	_, err := e.target(ev)
	return err
}

func (e *Equipment) Assign(name, email, observations string, now time.Time) error {
	to, err := e.target(EventAssign)
	if err != nil {
		return err
	}
	e.Status = to
	e.AssignedName = name
	e.AssignedEmail = email
	e.LoanDueDate = nil
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) Loan(name, email string, due time.Time, observations string, now time.Time) error {
	to, err := e.target(EventLoan)
	if err != nil {
		return err
	}
	e.Status = to
	e.AssignedName = name
	e.AssignedEmail = email
	e.LoanDueDate = &due
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) ReturnToInventory(observations string, now time.Time) error {
	to, err := e.target(EventReturnToInventory)
	if err != nil {
		return err
	}
	e.Status = to
	e.clearAssignment()
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

// StartMaintenance keeps any assignment so CompleteMaintenance can restore it.
func (e *Equipment) StartMaintenance(observations string, now time.Time) error {
	to, err := e.target(EventStartMaintenance)
	if err != nil {
		return err
	}
	e.PreviousStatus = e.Status
	e.Status = to
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) CompleteMaintenance(observations string, now time.Time) error {
	to, err := e.target(EventCompleteMaintenance)
	if err != nil {
		return err
	}
	e.Status = to
	e.PreviousStatus = ""
	if to != StatusAssigned && to != StatusOnLoan {
		e.clearAssignment()
	}
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

// RequiresRetirement is true when a unit in maintenance still carries the
// assignment it had before entering it.
func (e *Equipment) RequiresRetirement() bool {
	return e.Status == StatusInMaintenance &&
		(e.PreviousStatus == StatusAssigned || e.PreviousStatus == StatusOnLoan)
}

// MarkNotRepairable sends a unit in maintenance to the vendor-return queue.
func (e *Equipment) MarkNotRepairable(reason string, date time.Time, observations string, now time.Time) error {
	to, err := e.target(EventNotRepairable)
	if err != nil {
		return err
	}
	e.Status = to
	e.PreviousStatus = StatusInMaintenance
	e.clearAssignment()
	e.VendorReturnReason = reason
	e.VendorReturnDate = &date
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) StartVendorReturn(reason string, date time.Time, observations string, now time.Time) error {
	to, err := e.target(EventStartVendorReturn)
	if err != nil {
		return err
	}
	e.PreviousStatus = e.Status
	e.Status = to
	e.VendorReturnReason = reason
	e.VendorReturnDate = &date
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) ConfirmVendorReturn(observations string, now time.Time) error {
	to, err := e.target(EventConfirmVendorReturn)
	if err != nil {
		return err
	}
	e.Status = to
	e.clearAssignment()
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) RejectVendorReturn(observations string, now time.Time) error {
	to, err := e.target(EventRejectVendorReturn)
	if err != nil {
		return err
	}
	e.Status = to
	e.PreviousStatus = ""
	e.clearVendorReturn()
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) Reactivate(observations string, now time.Time) error {
	to, err := e.target(EventReactivate)
	if err != nil {
		return err
	}
	e.PreviousStatus = e.Status
	e.Status = to
	e.clearAssignment()
	e.clearVendorReturn()
	e.clearRenewal()
	e.Observations = observations
	e.RegisteredAt = now
	e.UpdatedAt = now
	return nil
}

// StartRenewal moves the outgoing unit into a renewal paired with newTag.
func (e *Equipment) StartRenewal(newTag string, due time.Time, observations string, now time.Time) error {
	to, err := e.target(EventStartRenewal)
	if err != nil {
		return err
	}
	e.Status = to
	e.RenewalLinkedTag = newTag
	e.RenewalDueDate = &due
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

// ReserveForRenewal moves the incoming unit into a renewal paired with oldTag.
func (e *Equipment) ReserveForRenewal(oldTag string, observations string, now time.Time) error {
	to, err := e.target(EventReserveForRenewal)
	if err != nil {
		return err
	}
	e.Status = to
	e.RenewalLinkedTag = oldTag
	e.RenewalDueDate = nil
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

// ApproveRenewal queues the outgoing unit for vendor return.
func (e *Equipment) ApproveRenewal(vendorDate time.Time, observations string, now time.Time) error {
	to, err := e.target(EventApproveRenewal)
	if err != nil {
		return err
	}
	e.PreviousStatus = e.Status
	e.Status = to
	e.clearAssignment()
	e.clearRenewal()
	e.VendorReturnReason = ReasonRenewal
	e.VendorReturnDate = &vendorDate
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

// IssueRenewal hands the incoming unit to the outgoing unit's holder.
func (e *Equipment) IssueRenewal(name, email, observations string, now time.Time) error {
	to, err := e.target(EventIssueRenewal)
	if err != nil {
		return err
	}
	e.Status = to
	e.AssignedName = name
	e.AssignedEmail = email
	e.clearRenewal()
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

// RejectRenewal returns the outgoing unit to its holder.
func (e *Equipment) RejectRenewal(observations string, now time.Time) error {
	to, err := e.target(EventRejectRenewal)
	if err != nil {
		return err
	}
	e.Status = to
	e.clearRenewal()
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

// ReleaseRenewal returns the incoming unit to stock.
func (e *Equipment) ReleaseRenewal(observations string, now time.Time) error {
	to, err := e.target(EventReleaseRenewal)
	if err != nil {
		return err
	}
	e.Status = to
	e.clearAssignment()
	e.clearRenewal()
	e.Observations = observations
	e.UpdatedAt = now
	return nil
}

func (e *Equipment) clearAssignment() {
	e.AssignedName = ""
	e.AssignedEmail = ""
	e.LoanDueDate = nil
}

func (e *Equipment) clearVendorReturn() {
	e.VendorReturnReason = ""
	e.VendorReturnDate = nil
}

func (e *Equipment) clearRenewal() {
	e.RenewalLinkedTag = ""
	e.RenewalDueDate = nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func ToDataModel(e *Equipment) *equipmentDatamodel.Equipment {
	var previous *string
	if e.PreviousStatus != "" {
		p := string(e.PreviousStatus)
		previous = &p
	}
	return &equipmentDatamodel.Equipment{
		Tag:                e.Tag,
		Type:               e.Type,
		Brand:              e.Brand,
		Model:              e.Model,
		Serial:             e.Serial,
		Vendor:             optional(e.Vendor),
		Status:             string(e.Status),
		AssignedName:       optional(e.AssignedName),
		AssignedEmail:      optional(e.AssignedEmail),
		Observations:       e.Observations,
		RegisteredAt:       e.RegisteredAt,
		LoanDueDate:        e.LoanDueDate,
		VendorReturnDate:   e.VendorReturnDate,
		VendorReturnReason: optional(e.VendorReturnReason),
		PreviousStatus:     previous,
		RenewalLinkedTag:   optional(e.RenewalLinkedTag),
		RenewalDueDate:     e.RenewalDueDate,
		UpdatedAt:          e.UpdatedAt,
	}
}

func FromDataModel(e *equipmentDatamodel.Equipment) *Equipment {
	return &Equipment{
		Tag:                e.Tag,
		Type:               e.Type,
		Brand:              e.Brand,
		Model:              e.Model,
		Serial:             e.Serial,
		Vendor:             deref(e.Vendor),
		Status:             Status(e.Status),
		AssignedName:       deref(e.AssignedName),
		AssignedEmail:      deref(e.AssignedEmail),
		Observations:       e.Observations,
		RegisteredAt:       e.RegisteredAt,
		LoanDueDate:        e.LoanDueDate,
		VendorReturnDate:   e.VendorReturnDate,
		VendorReturnReason: deref(e.VendorReturnReason),
		PreviousStatus:     Status(deref(e.PreviousStatus)),
		RenewalLinkedTag:   deref(e.RenewalLinkedTag),
		RenewalDueDate:     e.RenewalDueDate,
		UpdatedAt:          e.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*equipmentDatamodel.Equipment) []*Equipment {
	result := make([]*Equipment, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}

func MovementToDataModel(m *Movement) *equipmentDatamodel.MovementLog {
	return &equipmentDatamodel.MovementLog{
		ID:           m.ID,
		EquipmentTag: m.EquipmentTag,
		Action:       m.Action,
		Detail:       m.Detail,
		Actor:        m.Actor,
		CreatedAt:    m.CreatedAt,
	}
}

func MovementFromDataModel(m *equipmentDatamodel.MovementLog) *Movement {
	return &Movement{
		ID:           m.ID,
		EquipmentTag: m.EquipmentTag,
		Action:       m.Action,
		Detail:       m.Detail,
		Actor:        m.Actor,
		CreatedAt:    m.CreatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
