package equipment_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func unitIn(status equipment.Status) *equipment.Equipment {
	e := &equipment.Equipment{
		Tag:          "PC-1001",
		Type:         "Laptop",
		Brand:        "Dell",
		Model:        "Latitude 5440",
		Serial:       "SN1001",
		Status:       status,
		Observations: "None",
		RegisteredAt: now.AddDate(0, -1, 0),
		UpdatedAt:    now.AddDate(0, -1, 0),
	}
	switch status {
	case equipment.StatusAssigned, equipment.StatusOnLoan:
		e.AssignedName = "Ana Lopez"
		e.AssignedEmail = "ana.lopez@company.com"
	case equipment.StatusInRenewal:
		e.AssignedName = "Ana Lopez"
		e.AssignedEmail = "ana.lopez@company.com"
		e.RenewalLinkedTag = "PC-2002"
		due := now.AddDate(0, 0, 7)
		e.RenewalDueDate = &due
	case equipment.StatusPendingVendorReturn:
		date := now
		e.VendorReturnDate = &date
		e.VendorReturnReason = equipment.ReasonDamaged
	}
	return e
}

func apply(e *equipment.Equipment, ev equipment.Event) error {
	due := now.AddDate(0, 0, 14)
	switch ev {
	case equipment.EventAssign:
		return e.Assign("Luis Perez", "luis.perez@company.com", "Desk 4", now)
	case equipment.EventLoan:
		return e.Loan("Luis Perez", "luis.perez@company.com", due, "Trip", now)
	case equipment.EventStartMaintenance:
		return e.StartMaintenance("Corrective maintenance: fan", now)
	case equipment.EventStartVendorReturn:
		return e.StartVendorReturn(equipment.ReasonDamaged, now, "Broken", now)
	case equipment.EventReturnToInventory:
		return e.ReturnToInventory("Done", now)
	case equipment.EventStartRenewal:
		return e.StartRenewal("PC-2002", due, "Renewal", now)
	case equipment.EventReserveForRenewal:
		return e.ReserveForRenewal("PC-0001", "Reserved", now)
	case equipment.EventCompleteMaintenance:
		return e.CompleteMaintenance("Fixed", now)
	case equipment.EventNotRepairable:
		return e.MarkNotRepairable(equipment.ReasonDamaged, now, "Board dead", now)
	case equipment.EventConfirmVendorReturn:
		return e.ConfirmVendorReturn("Shipped", now)
	case equipment.EventRejectVendorReturn:
		return e.RejectVendorReturn("Vendor refused", now)
	case equipment.EventReactivate:
		return e.Reactivate("Back", now)
	case equipment.EventApproveRenewal:
		return e.ApproveRenewal(due, "Approved", now)
	case equipment.EventIssueRenewal:
		return e.IssueRenewal("Ana Lopez", "ana.lopez@company.com", "Issued", now)
	case equipment.EventRejectRenewal:
		return e.RejectRenewal("Rejected", now)
	case equipment.EventReleaseRenewal:
		return e.ReleaseRenewal("Released", now)
	}
	Fail("unhandled event " + string(ev))
	return nil
}

var _ = Describe("Equipment state machine", func() {
	It("should accept exactly the events of the transition table and leave the record untouched otherwise", func() {
		for _, status := range equipment.Statuses() {
			for _, ev := range equipment.Events() {
				// Given
				e := unitIn(status)
				before := e.Clone()

				// When
				err := apply(e, ev)

				// Then
				if equipment.Allowed(status, ev) {
					Expect(err).NotTo(HaveOccurred(), "%s from %s", ev, status)
					Expect(e.Status).NotTo(Equal(status), "%s from %s should move", ev, status)
				} else {
					Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue(), "%s from %s", ev, status)
					Expect(e).To(Equal(before), "%s from %s mutated the record", ev, status)
				}
			}
		}
	})

	It("should never leave an in-stock unit holding an assignment", func() {
		for _, status := range equipment.Statuses() {
			for _, ev := range equipment.Events() {
				e := unitIn(status)
				if apply(e, ev) != nil {
					continue
				}
				if e.Status == equipment.StatusAvailable || e.Status == equipment.StatusReturnedToVendor {
					Expect(e.AssignedName).To(BeEmpty(), "%s from %s", ev, status)
					Expect(e.AssignedEmail).To(BeEmpty(), "%s from %s", ev, status)
					Expect(e.LoanDueDate).To(BeNil(), "%s from %s", ev, status)
				}
			}
		}
	})

	Describe("maintenance", func() {
		It("should restore an assignment held before maintenance", func() {
			// Given
			e := unitIn(equipment.StatusAssigned)
			Expect(e.StartMaintenance("Preventive maintenance: cleaning", now)).To(Succeed())
			Expect(e.RequiresRetirement()).To(BeTrue())

			// When
			err := e.CompleteMaintenance("Clean", now)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(equipment.StatusAssigned))
			Expect(e.AssignedName).To(Equal("Ana Lopez"))
			Expect(e.PreviousStatus).To(BeEmpty())
		})

		It("should return an available unit to stock", func() {
			e := unitIn(equipment.StatusAvailable)
			Expect(e.StartMaintenance("Upgrade maintenance: ram", now)).To(Succeed())
			Expect(e.RequiresRetirement()).To(BeFalse())

			Expect(e.CompleteMaintenance("Done", now)).To(Succeed())

			Expect(e.Status).To(Equal(equipment.StatusAvailable))
		})

		It("should drop the assignment when the unit is not repairable", func() {
			e := unitIn(equipment.StatusOnLoan)
			Expect(e.StartMaintenance("Corrective maintenance: screen", now)).To(Succeed())

			Expect(e.MarkNotRepairable(equipment.ReasonDamaged, now, "Panel cracked", now)).To(Succeed())

			Expect(e.Status).To(Equal(equipment.StatusPendingVendorReturn))
			Expect(e.AssignedName).To(BeEmpty())
			Expect(e.VendorReturnReason).To(Equal(equipment.ReasonDamaged))
		})
	})

	Describe("vendor return", func() {
		It("should clear the vendor data when the return is rejected", func() {
			e := unitIn(equipment.StatusPendingVendorReturn)

			Expect(e.RejectVendorReturn("Vendor refused", now)).To(Succeed())

			Expect(e.Status).To(Equal(equipment.StatusAvailable))
			Expect(e.VendorReturnDate).To(BeNil())
			Expect(e.VendorReturnReason).To(BeEmpty())
		})

		It("should reset registration date on reactivation", func() {
			e := unitIn(equipment.StatusReturnedToVendor)
			later := now.AddDate(0, 2, 0)

			Expect(e.Reactivate("Returned by vendor", later)).To(Succeed())

			Expect(e.Status).To(Equal(equipment.StatusAvailable))
			Expect(e.RegisteredAt).To(Equal(later))
		})
	})

	Describe("renewal", func() {
		It("should only count the outgoing unit as awaiting approval", func() {
			outgoing := unitIn(equipment.StatusAssigned)
			incoming := unitIn(equipment.StatusAvailable)
			incoming.Tag = "PC-2002"

			Expect(outgoing.StartRenewal("PC-2002", now.AddDate(0, 0, 5), "Renewal", now)).To(Succeed())
			Expect(incoming.ReserveForRenewal("PC-1001", "Reserved", now)).To(Succeed())

			Expect(outgoing.AwaitingRenewalApproval()).To(BeTrue())
			Expect(incoming.AwaitingRenewalApproval()).To(BeFalse())
			Expect(incoming.RenewalLinkedTag).To(Equal("PC-1001"))
		})

		It("should clear links on approval", func() {
			e := unitIn(equipment.StatusInRenewal)

			Expect(e.ApproveRenewal(now.AddDate(0, 0, 3), "Approved", now)).To(Succeed())

			Expect(e.Status).To(Equal(equipment.StatusPendingVendorReturn))
			Expect(e.RenewalLinkedTag).To(BeEmpty())
			Expect(e.RenewalDueDate).To(BeNil())
			Expect(e.VendorReturnReason).To(Equal(equipment.ReasonRenewal))
			Expect(e.AssignedEmail).To(BeEmpty())
		})
	})

	It("should parse known statuses and reject unknown ones", func() {
		st, err := equipment.ParseStatus("OnLoan")
		Expect(err).NotTo(HaveOccurred())
		Expect(st).To(Equal(equipment.StatusOnLoan))

		_, err = equipment.ParseStatus("Lost")
		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
	})
})
