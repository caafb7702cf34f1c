package audit_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/audit"
	auditPostgres "github.com/frahmantamala/equipment-inventory/internal/audit/postgres"
	auditDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/audit"
	pkgLogger "github.com/frahmantamala/equipment-inventory/pkg/logger"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

var _ = Describe("System log", func() {
	var (
		ctx     context.Context
		service *audit.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&auditDatamodel.SystemLog{})).To(Succeed())

		service = audit.NewService(auditPostgres.NewAuditRepository(db), pkgLogger.Discard())
	})

	It("should keep the explicit actor", func() {
		// Given
		Expect(service.Record(ctx, "User created", "maria", "admin")).To(Succeed())

		// When
		entries, err := service.Recent(ctx, 10)

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Actor).To(Equal("admin"))
		Expect(entries[0].ID).To(BeNumerically(">", 0))
	})

	It("should fall back to the actor on the context", func() {
		// Given
		actx := internal.ContextWithActor(ctx, "maria")

		// When
		Expect(service.Record(actx, "Logout", "", "")).To(Succeed())

		// Then
		entries, err := service.Recent(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries[0].Actor).To(Equal("maria"))
	})

	It("should attribute anonymous entries to the system", func() {
		Expect(service.Record(ctx, "Catalog seeded", "12 values", "")).To(Succeed())

		entries, err := service.Recent(ctx, 5)

		Expect(err).NotTo(HaveOccurred())
		Expect(entries[0].Actor).To(Equal("system"))
	})

	It("should return the newest entries first and honour the limit", func() {
		for _, action := range []string{"first", "second", "third"} {
			Expect(service.Record(ctx, action, "", "admin")).To(Succeed())
		}

		entries, err := service.Recent(ctx, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Action).To(Equal("third"))
		Expect(entries[1].Action).To(Equal("second"))
	})
})
