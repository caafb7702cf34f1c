package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	authPostgres "github.com/frahmantamala/equipment-inventory/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/equipment-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/equipment-inventory/internal/user"
	userPostgres "github.com/frahmantamala/equipment-inventory/internal/user/postgres"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("UserRepository", func() {
	var (
		ctx  context.Context
		repo user.Repository
	)

	account := func(username, email, role string) *user.User {
		now := time.Now()
		return &user.User{
			Username:            username,
			FullName:            "Ana Lopez",
			Email:               email,
			PasswordHash:        "hash",
			Role:                role,
			IsActive:            true,
			ForcePasswordChange: true,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(userDatamodel.All()...)).To(Succeed())
		Expect(authPostgres.NewRepository(db).SeedMatrix(ctx, auth.DefaultMatrix())).To(Succeed())

		repo = userPostgres.NewUserRepository(db)
	})

	It("should create a user and load it with its role", func() {
		u := account("ana.lopez", "ana@company.com", auth.RoleManager)
		Expect(repo.Create(ctx, u)).To(Succeed())
		Expect(u.ID).To(BeNumerically(">", 0))

		stored, err := repo.GetByUsername(ctx, "ANA.LOPEZ")

		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Role).To(Equal(auth.RoleManager))
		Expect(stored.ForcePasswordChange).To(BeTrue())
	})

	It("should refuse an unknown role", func() {
		err := repo.Create(ctx, account("ana.lopez", "ana@company.com", "Auditor"))

		Expect(errors.Is(err, internal.ErrRoleNotFound)).To(BeTrue())
	})

	It("should map a missing user to not found", func() {
		_, err := repo.GetByUsername(ctx, "nobody")

		Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
	})

	It("should detect taken emails and existing roles", func() {
		Expect(repo.Create(ctx, account("ana.lopez", "ana@company.com", auth.RoleViewer))).To(Succeed())

		taken, err := repo.EmailExists(ctx, "ANA@company.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(taken).To(BeTrue())

		ok, err := repo.RoleExists(ctx, auth.RoleAdministrator)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		n, err := repo.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))
	})

	It("should update password, status and role", func() {
		u := account("ana.lopez", "ana@company.com", auth.RoleViewer)
		Expect(repo.Create(ctx, u)).To(Succeed())

		Expect(repo.UpdatePassword(ctx, u.ID, "new-hash", false)).To(Succeed())
		Expect(repo.SetActive(ctx, u.ID, false)).To(Succeed())
		Expect(repo.SetRole(ctx, u.ID, auth.RoleManager)).To(Succeed())

		stored, err := repo.GetByUsername(ctx, "ana.lopez")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.PasswordHash).To(Equal("new-hash"))
		Expect(stored.ForcePasswordChange).To(BeFalse())
		Expect(stored.IsActive).To(BeFalse())
		Expect(stored.Role).To(Equal(auth.RoleManager))
	})

	It("should list users by username", func() {
		Expect(repo.Create(ctx, account("zoe.m", "zoe@company.com", auth.RoleViewer))).To(Succeed())
		Expect(repo.Create(ctx, account("ana.lopez", "ana@company.com", auth.RoleViewer))).To(Succeed())

		users, err := repo.List(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(2))
		Expect(users[0].Username).To(Equal("ana.lopez"))
		Expect(users[1].Role).To(Equal(auth.RoleViewer))
	})
})
