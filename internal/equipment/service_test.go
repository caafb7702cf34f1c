package equipment_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	"github.com/frahmantamala/equipment-inventory/internal/core/events"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
	"github.com/frahmantamala/equipment-inventory/internal/equipment/equipmenttest"
	"github.com/frahmantamala/equipment-inventory/pkg/logger"
)

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		store     *equipmenttest.MemoryStore
		confirmer *equipmenttest.RecordingConfirmer
		bus       *events.EventBus
		published []*events.StatusChangedEvent
		service   *equipment.Service
		admin     *auth.Session
		manager   *auth.Session
		viewer    *auth.Session
	)

	registerDTO := func(tag, serial string) equipment.RegisterDTO {
		return equipment.RegisterDTO{
			Tag:    tag,
			Type:   "Laptop",
			Brand:  "Dell",
			Model:  "Latitude 5440",
			Serial: serial,
		}
	}

	assignDTO := func() equipment.AssignDTO {
		return equipment.AssignDTO{
			Name:         "ana lopez",
			Email:        "Ana.Lopez@Company.com",
			Observations: "desk 12",
		}
	}

	register := func(tag string) *equipment.Equipment {
		e, err := service.Register(ctx, admin, registerDTO(tag, "SN"+tag[len(tag)-4:]))
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = equipmenttest.NewMemoryStore()
		confirmer = &equipmenttest.RecordingConfirmer{}
		published = nil

		log := logger.Discard()
		bus = events.NewEventBus(log)
		bus.Subscribe(events.EventTypeStatusChanged, func(_ context.Context, ev events.Event) error {
			published = append(published, ev.(*events.StatusChangedEvent))
			return nil
		})

		gate := auth.NewGate(auth.NewPermissionChecker(), log)
		service = equipment.NewService(store, equipmenttest.DefaultCatalog(), gate, confirmer, bus, log)

		admin = equipmenttest.Session(auth.RoleAdministrator)
		manager = equipmenttest.Session(auth.RoleManager)
		viewer = equipmenttest.Session(auth.RoleViewer)
	})

	Describe("Register", func() {
		It("should add an available unit with a single registration movement", func() {
			// When
			e, err := service.Register(ctx, manager, registerDTO(" pc-1001 ", "sn1001"))

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Tag).To(Equal("PC-1001"))
			Expect(e.Serial).To(Equal("SN1001"))
			Expect(e.Status).To(Equal(equipment.StatusAvailable))
			Expect(e.Observations).To(Equal("None"))

			movements := store.AllMovements()
			Expect(movements).To(HaveLen(1))
			Expect(movements[0].Action).To(Equal(equipment.ActionRegistered))
			Expect(movements[0].Actor).To(Equal(manager.Username))
			Expect(published).To(HaveLen(1))
			Expect(published[0].To).To(Equal(string(equipment.StatusAvailable)))
		})

		It("should reject a duplicate tag", func() {
			register("PC-1001")

			_, err := service.Register(ctx, admin, registerDTO("PC-1001", "OTHER1"))

			Expect(internal.IsType(err, internal.ErrorTypeIntegrity)).To(BeTrue())
		})

		It("should point to reactivation when the tag was returned to its vendor", func() {
			// Given
			e := register("PC-1001")
			e.Status = equipment.StatusReturnedToVendor
			store.Put(e)

			// When
			_, err := service.Register(ctx, admin, registerDTO("PC-1001", "OTHER1"))

			// Then
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeTagRetired))
		})

		It("should reject a duplicate serial", func() {
			register("PC-1001")

			_, err := service.Register(ctx, admin, registerDTO("PC-2002", "SN1001"))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateSerial))
		})

		It("should reject a type missing from the active catalog", func() {
			dto := registerDTO("PC-1001", "SN1001")
			dto.Type = "Projector"

			_, err := service.Register(ctx, admin, dto)

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(store.AllMovements()).To(BeEmpty())
		})

		It("should reject a malformed tag", func() {
			_, err := service.Register(ctx, admin, registerDTO("P1", "SN1001"))

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("should deny a viewer before touching the store", func() {
			_, err := service.Register(ctx, viewer, registerDTO("PC-1001", "SN1001"))

			Expect(internal.IsType(err, internal.ErrorTypePermissionDenied)).To(BeTrue())
			Expect(store.AllMovements()).To(BeEmpty())
		})

		It("should deny a missing session", func() {
			_, err := service.Register(ctx, nil, registerDTO("PC-1001", "SN1001"))

			Expect(errors.Is(err, internal.ErrNoSession)).To(BeTrue())
		})
	})

	Describe("Assign", func() {
		It("should assign an available unit and normalize the holder", func() {
			register("PC-1001")

			e, err := service.Assign(ctx, manager, "pc-1001", assignDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusAssigned))
			Expect(e.AssignedName).To(Equal("Ana Lopez"))
			Expect(e.AssignedEmail).To(Equal("ana.lopez@company.com"))
			Expect(confirmer.Asked).To(Equal([]string{"PC-1001"}))

			history, err := service.History(ctx, viewer, "PC-1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[1].Action).To(Equal(equipment.ActionAssigned))
		})

		It("should reject an email outside the allowed domains", func() {
			register("PC-1001")
			dto := assignDTO()
			dto.Email = "ana@gmail.com"

			_, err := service.Assign(ctx, manager, "PC-1001", dto)

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(confirmer.Asked).To(BeEmpty())
		})

		It("should refuse an illegal transition without asking for confirmation", func() {
			register("PC-1001")
			_, err := service.Assign(ctx, manager, "PC-1001", assignDTO())
			Expect(err).NotTo(HaveOccurred())
			confirmer.Asked = nil

			_, err = service.Loan(ctx, manager, "PC-1001", withDue(assignDTO(), time.Now().AddDate(0, 0, 5)))

			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
			Expect(confirmer.Asked).To(BeEmpty())
		})

		It("should leave everything untouched when confirmation fails", func() {
			// Given
			register("PC-1001")
			confirmer.Err = internal.ErrConfirmationMismatch

			// When
			_, err := service.Assign(ctx, manager, "PC-1001", assignDTO())

			// Then
			Expect(errors.Is(err, internal.ErrConfirmationMismatch)).To(BeTrue())
			status, err := service.CurrentStatus(ctx, "PC-1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(equipment.StatusAvailable))
			Expect(store.AllMovements()).To(HaveLen(1))
		})

		It("should roll back the status when the movement cannot be written", func() {
			// Given
			register("PC-1001")
			store.Fail = func(op, _ string) error {
				if op == "AppendMovement" {
					return errors.New("disk full")
				}
				return nil
			}

			// When
			_, err := service.Assign(ctx, manager, "PC-1001", assignDTO())

			// Then
			Expect(internal.IsType(err, internal.ErrorTypeInternal)).To(BeTrue())
			status, _ := service.CurrentStatus(ctx, "PC-1001")
			Expect(status).To(Equal(equipment.StatusAvailable))
			Expect(published).To(HaveLen(1))
		})
	})

	Describe("Loan", func() {
		It("should require a due date after today", func() {
			register("PC-1001")

			_, err := service.Loan(ctx, manager, "PC-1001", withDue(assignDTO(), time.Now()))

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("should record the due date", func() {
			register("PC-1001")
			due := time.Now().AddDate(0, 0, 10)

			e, err := service.Loan(ctx, manager, "PC-1001", withDue(assignDTO(), due))

			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusOnLoan))
			Expect(e.LoanDueDate).NotTo(BeNil())
			Expect(e.LoanDueDate.Day()).To(Equal(due.Day()))
		})
	})

	Describe("maintenance", func() {
		It("should restore the holder after a round trip", func() {
			register("PC-1001")
			_, err := service.Assign(ctx, manager, "PC-1001", assignDTO())
			Expect(err).NotTo(HaveOccurred())

			e, err := service.StartMaintenance(ctx, manager, "PC-1001", equipment.MaintenanceDTO{Kind: "Corrective", Observations: "fan noise"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusInMaintenance))

			e, err = service.CompleteMaintenance(ctx, admin, "PC-1001", equipment.CompleteMaintenanceDTO{Observations: "fan replaced"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusAssigned))
			Expect(e.AssignedEmail).To(Equal("ana.lopez@company.com"))
		})

		It("should reject an unknown maintenance kind", func() {
			register("PC-1001")

			_, err := service.StartMaintenance(ctx, manager, "PC-1001", equipment.MaintenanceDTO{Kind: "Cosmetic", Observations: "x"})

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("should keep completion behind the pending-operations capability", func() {
			register("PC-1001")
			_, err := service.StartMaintenance(ctx, manager, "PC-1001", equipment.MaintenanceDTO{Kind: "Preventive", Observations: "clean"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CompleteMaintenance(ctx, manager, "PC-1001", equipment.CompleteMaintenanceDTO{Observations: "done"})

			Expect(internal.IsType(err, internal.ErrorTypePermissionDenied)).To(BeTrue())
		})

		It("should require a retire note when an assigned unit is not repairable", func() {
			register("PC-1001")
			_, err := service.Assign(ctx, manager, "PC-1001", assignDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.StartMaintenance(ctx, manager, "PC-1001", equipment.MaintenanceDTO{Kind: "Corrective", Observations: "screen"})
			Expect(err).NotTo(HaveOccurred())
			dto := equipment.NotRepairableDTO{VendorReturnDTO: equipment.VendorReturnDTO{
				Reason:       equipment.ReasonDamaged,
				Date:         time.Now().AddDate(0, 0, 2),
				Observations: "panel cracked",
			}}

			_, err = service.MarkNotRepairable(ctx, admin, "PC-1001", dto)
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())

			dto.RetireNote = "holder notified"
			e, err := service.MarkNotRepairable(ctx, admin, "PC-1001", dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusPendingVendorReturn))
			Expect(e.AssignedName).To(BeEmpty())

			history, err := service.History(ctx, admin, "PC-1001")
			Expect(err).NotTo(HaveOccurred())
			actions := make([]string, len(history))
			for i, m := range history {
				actions[i] = m.Action
			}
			Expect(actions).To(Equal([]string{
				equipment.ActionRegistered,
				equipment.ActionAssigned,
				equipment.ActionMaintenanceStarted,
				equipment.ActionReturned,
				equipment.ActionVendorReturnStarted,
			}))
		})
	})

	Describe("vendor return", func() {
		It("should require a justification for a past date", func() {
			register("PC-1001")
			dto := equipment.VendorReturnDTO{
				Reason:       equipment.ReasonNotNeeded,
				Date:         time.Now().AddDate(0, 0, -3),
				Observations: "surplus",
			}

			_, err := service.StartVendorReturn(ctx, manager, "PC-1001", dto)
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())

			dto.Justification = "shipped last week"
			e, err := service.StartVendorReturn(ctx, manager, "PC-1001", dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusPendingVendorReturn))
			Expect(e.Observations).To(ContainSubstring("Late registration: shipped last week"))
		})

		It("should confirm and later reactivate a unit", func() {
			register("PC-1001")
			_, err := service.StartVendorReturn(ctx, manager, "PC-1001", equipment.VendorReturnDTO{
				Reason: equipment.ReasonDamaged, Date: time.Now(), Observations: "broken",
			})
			Expect(err).NotTo(HaveOccurred())

			e, err := service.ConfirmVendorReturn(ctx, admin, "PC-1001", equipment.ResolutionDTO{Observations: "picked up"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusReturnedToVendor))

			e, err = service.Reactivate(ctx, admin, "PC-1001", equipment.ResolutionDTO{Observations: "repaired by vendor"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusAvailable))
		})

		It("should return a rejected unit to stock", func() {
			register("PC-1001")
			_, err := service.StartVendorReturn(ctx, manager, "PC-1001", equipment.VendorReturnDTO{
				Reason: equipment.ReasonTheft, Date: time.Now(), Observations: "stolen",
			})
			Expect(err).NotTo(HaveOccurred())

			e, err := service.RejectVendorReturn(ctx, admin, "PC-1001", equipment.ResolutionDTO{Observations: "found it"})

			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusAvailable))
			Expect(e.VendorReturnDate).To(BeNil())
		})
	})

	Describe("Delete", func() {
		It("should delete a unit that only has its registration", func() {
			register("PC-1001")

			err := service.Delete(ctx, admin, "PC-1001", equipment.DeleteDTO{Reason: "typo in tag"})

			Expect(err).NotTo(HaveOccurred())
			_, err = service.CurrentStatus(ctx, "PC-1001")
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())

			history, err := service.History(ctx, admin, "PC-1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(history[len(history)-1].Action).To(Equal(equipment.ActionDeleted))
		})

		It("should refuse a unit with history before asking for confirmation", func() {
			register("PC-1001")
			_, err := service.Assign(ctx, manager, "PC-1001", assignDTO())
			Expect(err).NotTo(HaveOccurred())
			confirmer.Asked = nil

			deletable, err := service.IsDeletable(ctx, "PC-1001")
			Expect(err).NotTo(HaveOccurred())
			Expect(deletable).To(BeFalse())

			err = service.Delete(ctx, admin, "PC-1001", equipment.DeleteDTO{Reason: "cleanup"})

			Expect(errors.Is(err, internal.ErrHasHistory)).To(BeTrue())
			Expect(confirmer.Asked).To(BeEmpty())
		})

		It("should be reserved to holders of the delete capability", func() {
			register("PC-1001")

			err := service.Delete(ctx, manager, "PC-1001", equipment.DeleteDTO{Reason: "cleanup"})

			Expect(internal.IsType(err, internal.ErrorTypePermissionDenied)).To(BeTrue())
		})
	})

	Describe("Edit", func() {
		It("should record the changed fields", func() {
			register("PC-1001")

			e, err := service.Edit(ctx, manager, "PC-1001", equipment.EditDTO{Model: "Latitude 7440", Reason: "wrong model"})

			Expect(err).NotTo(HaveOccurred())
			Expect(e.Model).To(Equal("Latitude 7440"))
			history, _ := service.History(ctx, viewer, "PC-1001")
			Expect(history[len(history)-1].Detail).To(ContainSubstring("Latitude 5440 -> Latitude 7440"))
		})

		It("should reject an empty change set", func() {
			register("PC-1001")

			_, err := service.Edit(ctx, manager, "PC-1001", equipment.EditDTO{Model: "Latitude 5440", Reason: "none"})

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("should filter by status", func() {
			register("PC-1001")
			register("PC-2002")
			_, err := service.Assign(ctx, manager, "PC-2002", assignDTO())
			Expect(err).NotTo(HaveOccurred())

			items, err := service.List(ctx, viewer, equipment.ListFilter{Statuses: []equipment.Status{equipment.StatusAssigned}})

			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Tag).To(Equal("PC-2002"))
		})
	})

	It("should report a missing unit as not found", func() {
		_, err := service.Get(ctx, viewer, "NOPE-0000")

		Expect(errors.Is(err, internal.ErrEquipmentNotFound)).To(BeTrue())
	})
})

func withDue(dto equipment.AssignDTO, due time.Time) equipment.AssignDTO {
	dto.DueDate = &due
	return dto
}
