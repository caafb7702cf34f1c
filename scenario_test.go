package main_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	migrations "github.com/frahmantamala/equipment-inventory/db"
	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/audit"
	auditPostgres "github.com/frahmantamala/equipment-inventory/internal/audit/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	authPostgres "github.com/frahmantamala/equipment-inventory/internal/auth/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	catalogPostgres "github.com/frahmantamala/equipment-inventory/internal/catalog/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/confirm"
	"github.com/frahmantamala/equipment-inventory/internal/core/events"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
	equipmentPostgres "github.com/frahmantamala/equipment-inventory/internal/equipment/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/pending"
	"github.com/frahmantamala/equipment-inventory/internal/renewal"
	"github.com/frahmantamala/equipment-inventory/internal/user"
	userPostgres "github.com/frahmantamala/equipment-inventory/internal/user/postgres"
	"github.com/frahmantamala/equipment-inventory/pkg/logger"
)

// The scenario runs the whole stack against a migrated in-memory sqlite
// database: seed, first login, then a unit's life from registration to
// renewal.
var _ = Describe("Equipment lifecycle", Ordered, func() {
	var (
		ctx        context.Context
		auditSvc   *audit.Service
		authRepo   *authPostgres.Repository
		authSvc    *auth.Service
		dispatcher *command.Dispatcher
		catalogSvc *catalog.Service
		equipSvc   *equipment.Service
		renewals   *renewal.Service
		users      *user.Service
		queues     *pending.Service
		admin      *auth.Session
		changes    []string
		tempPass   string
	)

	const newPassword = "inventory2026"

	BeforeAll(func() {
		ctx = context.Background()
		log := logger.Discard()

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)

		goose.SetBaseFS(migrations.Migrations)
		goose.SetTableName("schema_migrations")
		Expect(goose.SetDialect("sqlite3")).To(Succeed())
		Expect(goose.Up(sqlDB, "migrations/sqlite")).To(Succeed())

		dir, err := os.MkdirTemp("", "inventory-session")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		bus := events.NewEventBus(log)
		bus.Subscribe(events.EventTypeStatusChanged, func(_ context.Context, ev events.Event) error {
			e := ev.(*events.StatusChangedEvent)
			changes = append(changes, e.Tag+":"+e.To)
			return nil
		})

		gate := auth.NewGate(auth.NewPermissionChecker(), log)
		confirmer := confirm.AutoConfirm{}

		auditSvc = audit.NewService(auditPostgres.NewAuditRepository(db), log)
		authRepo = authPostgres.NewRepository(db)
		authSvc = auth.NewService(authRepo,
			auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour),
			auth.NewFileSessionStore(filepath.Join(dir, "session")),
			auditSvc, log)
		dispatcher = command.NewDispatcher(gate, authSvc, log)

		store := equipmentPostgres.NewEquipmentRepository(db)
		catalogSvc = catalog.NewService(catalogPostgres.NewCatalogRepository(db), store, gate, confirmer, auditSvc, log)
		equipSvc = equipment.NewService(store, catalogSvc, gate, confirmer, bus, log)
		renewals = renewal.NewService(store, gate, confirmer, bus, log)
		users = user.NewService(userPostgres.NewUserRepository(db), gate, confirmer, auditSvc, bcrypt.MinCost, log)
		queues = pending.NewService(store, gate, log)
	})

	It("seeds roles, catalog values and the first administrator", func() {
		Expect(authRepo.SeedMatrix(ctx, auth.DefaultMatrix())).To(Succeed())

		added, err := catalogSvc.SeedDefaults(ctx, catalog.DefaultValues())
		Expect(err).NotTo(HaveOccurred())
		Expect(added).To(BeNumerically(">", 0))

		var created bool
		_, tempPass, created, err = users.Bootstrap(ctx, user.CreateDTO{
			Username: "admin",
			FullName: "System Administrator",
			Email:    "admin@local.host",
			Role:     auth.RoleAdministrator,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())

		_, _, created, err = users.Bootstrap(ctx, user.CreateDTO{
			Username: "second",
			FullName: "Second Admin",
			Email:    "second@local.host",
			Role:     auth.RoleAdministrator,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())
	})

	It("forces a password change before anything else runs", func() {
		session, err := authSvc.Login(ctx, auth.LoginDTO{Username: "admin", Password: tempPass})
		Expect(err).NotTo(HaveOccurred())
		Expect(session.ForcePasswordChange).To(BeTrue())

		err = dispatcher.Run(ctx, command.List, func(context.Context, *auth.Session) error { return nil })
		Expect(errors.Is(err, internal.ErrPasswordChange)).To(BeTrue())

		err = dispatcher.Run(ctx, command.ChangePassword, func(ctx context.Context, s *auth.Session) error {
			return users.ChangePassword(ctx, s, user.ChangePasswordDTO{Current: tempPass, New: newPassword})
		})
		Expect(err).NotTo(HaveOccurred())

		admin, err = authSvc.Resume(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(admin.ForcePasswordChange).To(BeFalse())

		_, err = catalogSvc.Add(ctx, admin, catalog.AddDTO{Kind: catalog.KindEmailDomain, Value: "@Corp.com"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers PC-1001 as available", func() {
		e, err := equipSvc.Register(ctx, admin, equipment.RegisterDTO{
			Tag: "pc-1001", Type: "Laptop", Brand: "Dell", Model: "Latitude 5440", Serial: "sn1001",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(e.Tag).To(Equal("PC-1001"))
		Expect(e.Status).To(Equal(equipment.StatusAvailable))
	})

	It("assigns PC-1001 to an allow-listed address", func() {
		e, err := equipSvc.Assign(ctx, admin, "PC-1001", equipment.AssignDTO{
			Name: "Ana Pérez", Email: "ana@corp.com", Observations: "Onboarding",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(e.Status).To(Equal(equipment.StatusAssigned))
		Expect(e.AssignedName).To(Equal("Ana Pérez"))
	})

	It("refuses to delete a unit with history", func() {
		_, err := equipSvc.ReturnToInventory(ctx, admin, "PC-1001", equipment.ReturnDTO{Reason: "Desk move"})
		Expect(err).NotTo(HaveOccurred())

		err = equipSvc.Delete(ctx, admin, "PC-1001", equipment.DeleteDTO{Reason: "Duplicate"})

		Expect(internal.IsType(err, internal.ErrorTypeHasHistory)).To(BeTrue())
		status, err := equipSvc.CurrentStatus(ctx, "PC-1001")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(equipment.StatusAvailable))
	})

	It("pairs PC-1001 with PC-2002 for renewal", func() {
		_, err := equipSvc.Assign(ctx, admin, "PC-1001", equipment.AssignDTO{
			Name: "Ana Pérez", Email: "ana@corp.com", Observations: "Back to Ana",
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = equipSvc.Register(ctx, admin, equipment.RegisterDTO{
			Tag: "PC-2002", Type: "Laptop", Brand: "Dell", Model: "Latitude 7450", Serial: "SN2002",
		})
		Expect(err).NotTo(HaveOccurred())

		pair, err := renewals.Start(ctx, admin, renewal.StartDTO{
			OldTag: "PC-1001", NewTag: "PC-2002", DueDate: time.Now().AddDate(0, 0, 7),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(pair.Old.Status).To(Equal(equipment.StatusInRenewal))
		Expect(pair.New.Status).To(Equal(equipment.StatusInRenewal))

		counts, err := queues.PendingCounts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts.Renewal).To(Equal(int64(1)))
	})

	It("hands PC-2002 over on approval", func() {
		pair, err := renewals.Approve(ctx, admin, "PC-1001", renewal.ApproveDTO{})

		Expect(err).NotTo(HaveOccurred())
		Expect(pair.Old.Status).To(Equal(equipment.StatusPendingVendorReturn))
		Expect(pair.Old.VendorReturnReason).To(Equal(equipment.ReasonRenewal))
		Expect(pair.New.Status).To(Equal(equipment.StatusAssigned))
		Expect(pair.New.AssignedName).To(Equal("Ana Pérez"))
		Expect(changes).To(ContainElement("PC-2002:" + string(equipment.StatusAssigned)))
	})

	It("puts both units back on rejection", func() {
		_, err := equipSvc.Register(ctx, admin, equipment.RegisterDTO{
			Tag: "PC-3003", Type: "Laptop", Brand: "HP", Model: "EliteBook 840", Serial: "SN3003",
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = renewals.Start(ctx, admin, renewal.StartDTO{
			OldTag: "PC-2002", NewTag: "PC-3003", DueDate: time.Now().AddDate(0, 0, 7),
		})
		Expect(err).NotTo(HaveOccurred())

		pair, err := renewals.Reject(ctx, admin, "PC-2002", renewal.RejectDTO{Reason: "Budget freeze"})

		Expect(err).NotTo(HaveOccurred())
		Expect(pair.Old.Status).To(Equal(equipment.StatusAssigned))
		Expect(pair.Old.AssignedName).To(Equal("Ana Pérez"))
		Expect(pair.New.Status).To(Equal(equipment.StatusAvailable))
	})

	It("keeps renewal approval away from managers", func() {
		_, temp, err := users.Create(ctx, admin, user.CreateDTO{
			Username: "maria", FullName: "Maria Gomez", Email: "maria@corp.com", Role: auth.RoleManager,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = authSvc.Login(ctx, auth.LoginDTO{Username: "maria", Password: temp})
		Expect(err).NotTo(HaveOccurred())
		err = dispatcher.Run(ctx, command.ChangePassword, func(ctx context.Context, s *auth.Session) error {
			return users.ChangePassword(ctx, s, user.ChangePasswordDTO{Current: temp, New: "maria2026"})
		})
		Expect(err).NotTo(HaveOccurred())

		err = dispatcher.Run(ctx, command.RenewalApprove, func(context.Context, *auth.Session) error {
			Fail("manager reached renewal approval")
			return nil
		})

		Expect(internal.IsType(err, internal.ErrorTypePermissionDenied)).To(BeTrue())
	})

	It("keeps the administrative trail in the system log", func() {
		entries, err := auditSvc.Recent(ctx, 50)

		Expect(err).NotTo(HaveOccurred())
		var actions []string
		for _, e := range entries {
			actions = append(actions, e.Action)
		}
		Expect(actions).To(ContainElements("Login", "Password changed"))
	})
})
