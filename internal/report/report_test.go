package report_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	equipmentDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/equipment"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
	"github.com/frahmantamala/equipment-inventory/internal/equipment/equipmenttest"
	equipmentPostgres "github.com/frahmantamala/equipment-inventory/internal/equipment/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/report"
	reportPostgres "github.com/frahmantamala/equipment-inventory/internal/report/postgres"
	"github.com/frahmantamala/equipment-inventory/pkg/logger"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

var _ = Describe("Report Service", func() {
	var (
		ctx     context.Context
		store   equipment.Store
		service *report.Service
		dir     string
		manager *auth.Session
		now     time.Time
	)

	unit := func(tag string, status equipment.Status) *equipment.Equipment {
		return &equipment.Equipment{
			Tag:          tag,
			Type:         "Laptop",
			Brand:        "Dell",
			Model:        "Latitude 5440",
			Serial:       "SN" + tag,
			Status:       status,
			Observations: "None",
			RegisteredAt: now,
			UpdatedAt:    now,
		}
	}

	rowsOf := func(path string) [][]string {
		f, err := excelize.OpenFile(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetList()[0])
		Expect(err).NotTo(HaveOccurred())
		return rows
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
		dir = filepath.Join(GinkgoT().TempDir(), "reports")

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(equipmentDatamodel.All()...)).To(Succeed())

		store = equipmentPostgres.NewEquipmentRepository(db)
		reader := reportPostgres.NewReportRepository(sqlx.NewDb(sqlDB, "sqlite3"))
		log := logger.Discard()
		service = report.NewService(reader, auth.NewGate(auth.NewPermissionChecker(), log), dir, log)
		manager = equipmenttest.Session(auth.RoleManager)

		Expect(store.Create(ctx, unit("PC-1001", equipment.StatusAvailable))).To(Succeed())
		gone := unit("PC-2002", equipment.StatusReturnedToVendor)
		returned := now.AddDate(0, 0, -2)
		gone.VendorReturnDate = &returned
		gone.VendorReturnReason = equipment.ReasonDamaged
		Expect(store.Create(ctx, gone)).To(Succeed())

		for i, action := range []string{equipment.ActionRegistered, equipment.ActionAssigned} {
			Expect(store.AppendMovement(ctx, &equipment.Movement{
				EquipmentTag: "PC-1001",
				Action:       action,
				Actor:        "test.Manager",
				CreatedAt:    now.Add(time.Duration(i) * time.Hour),
			})).To(Succeed())
		}
	})

	It("should write the inventory with a header row", func() {
		// When
		path, err := service.Inventory(ctx, manager, report.InventoryFilter{})

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Dir(path)).To(Equal(dir))
		rows := rowsOf(path)
		Expect(rows).To(HaveLen(3))
		Expect(rows[0][0]).To(Equal("Tag"))
		Expect(rows[1][0]).To(Equal("PC-1001"))
		Expect(rows[1][9]).To(Equal("04/05/2026"))
	})

	It("should filter the inventory by status", func() {
		path, err := service.Inventory(ctx, manager, report.InventoryFilter{Statuses: []equipment.Status{equipment.StatusAvailable}})

		Expect(err).NotTo(HaveOccurred())
		Expect(rowsOf(path)).To(HaveLen(2))
	})

	It("should list vendor returns with their reason", func() {
		path, err := service.VendorReturned(ctx, manager)

		Expect(err).NotTo(HaveOccurred())
		rows := rowsOf(path)
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][0]).To(Equal("PC-2002"))
		Expect(rows[1][8]).To(Equal(equipment.ReasonDamaged))
	})

	It("should write the movement log within the date range", func() {
		from := now.Add(30 * time.Minute)

		path, err := service.MovementLog(ctx, manager, report.MovementFilter{From: &from})

		Expect(err).NotTo(HaveOccurred())
		rows := rowsOf(path)
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][2]).To(Equal(equipment.ActionAssigned))
	})

	It("should refuse an inverted date range", func() {
		from, to := now, now.AddDate(0, 0, -1)

		_, err := service.MovementLog(ctx, manager, report.MovementFilter{From: &from, To: &to})

		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
	})

	It("should write one unit's history", func() {
		path, err := service.History(ctx, manager, "pc-1001")

		Expect(err).NotTo(HaveOccurred())
		Expect(rowsOf(path)).To(HaveLen(3))
	})

	It("should report a unit without history as not found", func() {
		_, err := service.History(ctx, manager, "PC-9999")

		Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
	})

	It("should deny sessions without generate-reports", func() {
		_, err := service.Inventory(ctx, nil, report.InventoryFilter{})

		Expect(internal.IsType(err, internal.ErrorTypePermissionDenied)).To(BeTrue())
	})
})
