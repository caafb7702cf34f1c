// Package command maps every CLI operation to the capability it needs and
// runs it through the permission gate.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/pkg/logger"
)

type ID int

const (
	Login ID = iota + 1
	Logout
	WhoAmI
	ChangePassword

	Register
	Edit
	Delete
	Assign
	Loan
	Return
	MaintenanceStart
	MaintenanceComplete
	NotRepairable
	VendorReturnStart
	VendorReturnConfirm
	VendorReturnReject
	Reactivate
	Show
	List
	History

	RenewalStart
	RenewalApprove
	RenewalReject
	RenewalList

	Pending
	Dashboard

	ReportInventory
	ReportVendorReturns
	ReportMovements
	ReportHistory

	UserCreate
	UserList
	UserResetPassword
	UserActivate
	UserDeactivate
	UserRole

	CatalogList
	CatalogAdd
	CatalogActivate
	CatalogDeactivate
	CatalogDelete

	SystemLog
)

// Access says what a command needs before it runs.
type Access int

const (
	// Public commands run without a session.
	Public Access = iota
	// Authenticated commands need any live session.
	Authenticated
	// Gated commands need a session holding Entry.Capability.
	Gated
)

type Entry struct {
	Name       string
	Access     Access
	Capability auth.Capability
	Help       string
}

// Table is the static dispatch table. Every cobra command resolves its entry
// here; nothing is authorized by name at runtime.
var Table = map[ID]Entry{
	Login:          {Name: "login", Access: Public, Help: "Open a session"},
	Logout:         {Name: "logout", Access: Public, Help: "Close the current session"},
	WhoAmI:         {Name: "whoami", Access: Authenticated, Help: "Show the logged-in user and capabilities"},
	ChangePassword: {Name: "passwd", Access: Authenticated, Help: "Change your own password"},

	Register:            {Name: "equipment register", Access: Gated, Capability: auth.CapRegisterEquipment, Help: "Register a new unit"},
	Edit:                {Name: "equipment edit", Access: Gated, Capability: auth.CapManageEquipment, Help: "Correct type, brand, model or serial"},
	Delete:              {Name: "equipment delete", Access: Gated, Capability: auth.CapDeleteEquipment, Help: "Delete a unit without history"},
	Assign:              {Name: "equipment assign", Access: Gated, Capability: auth.CapManageEquipment, Help: "Assign an available unit"},
	Loan:                {Name: "equipment loan", Access: Gated, Capability: auth.CapManageEquipment, Help: "Loan an available unit until a due date"},
	Return:              {Name: "equipment return", Access: Gated, Capability: auth.CapManageEquipment, Help: "Return an assigned or loaned unit to inventory"},
	MaintenanceStart:    {Name: "maintenance start", Access: Gated, Capability: auth.CapManageEquipment, Help: "Send a unit to maintenance"},
	MaintenanceComplete: {Name: "maintenance complete", Access: Gated, Capability: auth.CapManagePending, Help: "Close maintenance and restore the previous status"},
	NotRepairable:       {Name: "maintenance not-repairable", Access: Gated, Capability: auth.CapManagePending, Help: "Close maintenance and start a vendor return"},
	VendorReturnStart:   {Name: "vendor-return start", Access: Gated, Capability: auth.CapVendorReturn, Help: "Register a return to vendor"},
	VendorReturnConfirm: {Name: "vendor-return confirm", Access: Gated, Capability: auth.CapManagePending, Help: "Confirm the vendor received the unit"},
	VendorReturnReject:  {Name: "vendor-return reject", Access: Gated, Capability: auth.CapManagePending, Help: "Cancel a pending vendor return"},
	Reactivate:          {Name: "equipment reactivate", Access: Gated, Capability: auth.CapManagePending, Help: "Bring a returned unit back into inventory"},
	Show:                {Name: "equipment show", Access: Gated, Capability: auth.CapViewInventory, Help: "Show one unit"},
	List:                {Name: "equipment list", Access: Gated, Capability: auth.CapViewInventory, Help: "List units"},
	History:             {Name: "equipment history", Access: Gated, Capability: auth.CapViewHistory, Help: "Show the movement log of a unit"},

	RenewalStart:   {Name: "renewal start", Access: Gated, Capability: auth.CapManageEquipment, Help: "Pair an assigned unit with its replacement"},
	RenewalApprove: {Name: "renewal approve", Access: Gated, Capability: auth.CapApproveRenewal, Help: "Hand the replacement over and return the old unit"},
	RenewalReject:  {Name: "renewal reject", Access: Gated, Capability: auth.CapApproveRenewal, Help: "Cancel a renewal and restore both units"},
	RenewalList:    {Name: "renewal list", Access: Gated, Capability: auth.CapViewInventory, Help: "List open renewals"},

	Pending:   {Name: "pending", Access: Gated, Capability: auth.CapViewInventory, Help: "Show pending work queues"},
	Dashboard: {Name: "dashboard", Access: Gated, Capability: auth.CapViewInventory, Help: "Show inventory totals and recent activity"},

	ReportInventory:     {Name: "report inventory", Access: Gated, Capability: auth.CapGenerateReports, Help: "Export the inventory workbook"},
	ReportVendorReturns: {Name: "report vendor-returns", Access: Gated, Capability: auth.CapGenerateReports, Help: "Export units returned to vendors"},
	ReportMovements:     {Name: "report movements", Access: Gated, Capability: auth.CapGenerateReports, Help: "Export the movement log"},
	ReportHistory:       {Name: "report history", Access: Gated, Capability: auth.CapGenerateReports, Help: "Export one unit's history"},

	UserCreate:        {Name: "user create", Access: Gated, Capability: auth.CapManageUsers, Help: "Create an account with a temporary password"},
	UserList:          {Name: "user list", Access: Gated, Capability: auth.CapManageUsers, Help: "List accounts"},
	UserResetPassword: {Name: "user reset-password", Access: Gated, Capability: auth.CapManageUsers, Help: "Issue a new temporary password"},
	UserActivate:      {Name: "user activate", Access: Gated, Capability: auth.CapManageUsers, Help: "Re-enable an account"},
	UserDeactivate:    {Name: "user deactivate", Access: Gated, Capability: auth.CapManageUsers, Help: "Disable an account"},
	UserRole:          {Name: "user role", Access: Gated, Capability: auth.CapManageUsers, Help: "Change an account's role"},

	CatalogList:       {Name: "catalog list", Access: Gated, Capability: auth.CapConfigureSystem, Help: "List catalog values"},
	CatalogAdd:        {Name: "catalog add", Access: Gated, Capability: auth.CapConfigureSystem, Help: "Add a catalog value"},
	CatalogActivate:   {Name: "catalog activate", Access: Gated, Capability: auth.CapConfigureSystem, Help: "Re-enable a catalog value"},
	CatalogDeactivate: {Name: "catalog deactivate", Access: Gated, Capability: auth.CapConfigureSystem, Help: "Disable a catalog value"},
	CatalogDelete:     {Name: "catalog delete", Access: Gated, Capability: auth.CapConfigureSystem, Help: "Delete an unused catalog value"},

	SystemLog: {Name: "system-log", Access: Gated, Capability: auth.CapConfigureSystem, Help: "Show recent administrative actions"},
}

func (id ID) String() string {
	if e, ok := Table[id]; ok {
		return e.Name
	}
	return fmt.Sprintf("command(%d)", int(id))
}

// Help returns the entry help text, or an empty string for unknown IDs.
func Help(id ID) string {
	return Table[id].Help
}

// Available lists the commands session may run, sorted by name.
func Available(session *auth.Session) []Entry {
	var out []Entry
	for _, e := range Table {
		switch e.Access {
		case Public:
			out = append(out, e)
		case Authenticated:
			if session != nil {
				out = append(out, e)
			}
		case Gated:
			if session.Has(e.Capability) {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SessionResolver rebuilds the current session, typically auth.Service.
type SessionResolver interface {
	Resume(ctx context.Context) (*auth.Session, error)
}

type Dispatcher struct {
	gate     *auth.Gate
	sessions SessionResolver
	logger   *slog.Logger
}

func NewDispatcher(gate *auth.Gate, sessions SessionResolver, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		gate:     gate,
		sessions: sessions,
		logger:   log,
	}
}

// Run resolves the session for id and runs fn behind the gate. Public
// commands get a nil session. A session flagged for a forced password
// change may only run passwd, whoami and logout.
func (d *Dispatcher) Run(ctx context.Context, id ID, fn auth.HandlerFunc) error {
	entry, ok := Table[id]
	if !ok {
		return internal.NewInternalError(fmt.Sprintf("unknown command %s", id), nil)
	}

	ctx = logger.Into(ctx, d.logger.With("command", entry.Name))
	wrap := func(next auth.HandlerFunc) auth.HandlerFunc {
		return Chain(next, Recovery(), Logging())
	}

	if entry.Access == Public {
		return wrap(fn)(ctx, nil)
	}

	session, err := d.sessions.Resume(ctx)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		logger.From(ctx).Error("failed to resume session", "error", err)
		return internal.NewInternalError("failed to resume session", err)
	}

	if session.ForcePasswordChange && id != ChangePassword && id != WhoAmI {
		logger.From(ctx).Warn("command refused until password is changed", "username", session.Username)
		return internal.ErrPasswordChange
	}

	ctx = internal.ContextWithActor(ctx, session.Username)
	ctx = logger.With(ctx, "actor", session.Username)
	logger.From(ctx).Debug("dispatching command")

	if entry.Access == Authenticated {
		return wrap(fn)(ctx, session)
	}
	return wrap(d.gate.Guard(entry.Capability, fn))(ctx, session)
}
