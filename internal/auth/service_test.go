package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/pkg/logger"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

const testSecret = "0123456789abcdef0123456789abcdef"

// Mock Repository for testing
type mockRepository struct {
	creds         map[string]*Credentials
	logins        map[int64]time.Time
	returnError   bool
	errorToReturn error
}

func newMockRepository() *mockRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password1"), bcrypt.MinCost)

	return &mockRepository{
		creds: map[string]*Credentials{
			"admin":  {UserID: 1, Username: "admin", FullName: "Ana Admin", PasswordHash: string(hash), Role: RoleAdministrator, IsActive: true},
			"viewer": {UserID: 2, Username: "viewer", FullName: "Victor Viewer", PasswordHash: string(hash), Role: RoleViewer, IsActive: true},
			"gone":   {UserID: 3, Username: "gone", FullName: "Gina Gone", PasswordHash: string(hash), Role: RoleManager, IsActive: false},
			"fresh":  {UserID: 4, Username: "fresh", FullName: "Fred Fresh", PasswordHash: string(hash), Role: RoleManager, IsActive: true, ForcePasswordChange: true},
		},
		logins: map[int64]time.Time{},
	}
}

func (m *mockRepository) GetCredentials(_ context.Context, username string) (*Credentials, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	c, ok := m.creds[username]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *mockRepository) GetCapabilities(_ context.Context, role string) ([]Capability, error) {
	return DefaultMatrix()[role], nil
}

func (m *mockRepository) RecordLogin(_ context.Context, userID int64, at time.Time) error {
	m.logins[userID] = at
	return nil
}

func (m *mockRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

type memoryStore struct {
	token string
}

func (s *memoryStore) Save(token string) error { s.token = token; return nil }

func (s *memoryStore) Load() (string, error) {
	if s.token == "" {
		return "", internal.ErrNoSession
	}
	return s.token, nil
}

func (s *memoryStore) Clear() error { s.token = ""; return nil }

type mockAudit struct {
	actions []string
}

func (m *mockAudit) Record(_ context.Context, action, _, actor string) error {
	m.actions = append(m.actions, action+":"+actor)
	return nil
}

var _ = ginkgo.Describe("Auth Service", func() {
	var (
		ctx      context.Context
		repo     *mockRepository
		store    *memoryStore
		audit    *mockAudit
		tokens   *TokenIssuer
		service  *Service
		fixedNow time.Time
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		store = &memoryStore{}
		audit = &mockAudit{}
		fixedNow = time.Now().Truncate(time.Second)
		tokens = NewTokenIssuer(testSecret, time.Hour)
		tokens.now = func() time.Time { return fixedNow }
		service = NewService(repo, tokens, store, audit, logger.Discard())
		service.now = func() time.Time { return fixedNow }
	})

	ginkgo.Describe("Login", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should open a session with the role capabilities", func() {
				// Given
				dto := LoginDTO{Username: "  Admin ", Password: "correct_password1"}

				// When
				session, err := service.Login(ctx, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(session.Username).To(gomega.Equal("admin"))
				gomega.Expect(session.Role).To(gomega.Equal(RoleAdministrator))
				gomega.Expect(session.Capabilities).To(gomega.ConsistOf(AllCapabilities()))
				gomega.Expect(session.ExpiresAt).To(gomega.Equal(fixedNow.Add(time.Hour)))
				gomega.Expect(store.token).ToNot(gomega.BeEmpty())
				gomega.Expect(repo.logins).To(gomega.HaveKeyWithValue(int64(1), fixedNow))
				gomega.Expect(audit.actions).To(gomega.ContainElement("Login:admin"))
			})

			ginkgo.It("should carry the forced password change flag", func() {
				session, err := service.Login(ctx, LoginDTO{Username: "fresh", Password: "correct_password1"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(session.ForcePasswordChange).To(gomega.BeTrue())
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should not reveal whether the username exists", func() {
				_, unknown := service.Login(ctx, LoginDTO{Username: "nobody", Password: "whatever1"})
				_, wrong := service.Login(ctx, LoginDTO{Username: "admin", Password: "wrong_password1"})

				gomega.Expect(unknown).To(gomega.Equal(internal.ErrInvalidCredentials))
				gomega.Expect(wrong).To(gomega.Equal(internal.ErrInvalidCredentials))
				gomega.Expect(store.token).To(gomega.BeEmpty())
			})

			ginkgo.It("should refuse inactive accounts", func() {
				_, err := service.Login(ctx, LoginDTO{Username: "gone", Password: "correct_password1"})

				gomega.Expect(err).To(gomega.Equal(internal.ErrUserInactive))
			})

			ginkgo.It("should return validation error for empty password", func() {
				_, err := service.Login(ctx, LoginDTO{Username: "admin"})

				gomega.Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(gomega.BeTrue())
			})
		})

		ginkgo.Context("when repository returns error", func() {
			ginkgo.It("should return an internal error", func() {
				repo.setError(errors.New("database error"))

				_, err := service.Login(ctx, LoginDTO{Username: "admin", Password: "correct_password1"})

				gomega.Expect(internal.IsType(err, internal.ErrorTypeInternal)).To(gomega.BeTrue())
			})
		})
	})

	ginkgo.Describe("Resume", func() {
		ginkgo.It("should rebuild the stored session", func() {
			// Given
			opened, err := service.Login(ctx, LoginDTO{Username: "viewer", Password: "correct_password1"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			resumed, err := service.Resume(ctx)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resumed.ID).To(gomega.Equal(opened.ID))
			gomega.Expect(resumed.Role).To(gomega.Equal(RoleViewer))
			gomega.Expect(resumed.Has(CapViewInventory)).To(gomega.BeTrue())
			gomega.Expect(resumed.Has(CapManageEquipment)).To(gomega.BeFalse())
		})

		ginkgo.It("should pick up role changes made after login", func() {
			_, err := service.Login(ctx, LoginDTO{Username: "viewer", Password: "correct_password1"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			repo.creds["viewer"].Role = RoleManager

			resumed, err := service.Resume(ctx)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resumed.Has(CapRegisterEquipment)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a session whose user was deactivated", func() {
			_, err := service.Login(ctx, LoginDTO{Username: "viewer", Password: "correct_password1"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			repo.creds["viewer"].IsActive = false

			_, err = service.Resume(ctx)

			gomega.Expect(err).To(gomega.Equal(internal.ErrUserInactive))
		})

		ginkgo.It("should report an expired session", func() {
			_, err := service.Login(ctx, LoginDTO{Username: "viewer", Password: "correct_password1"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			tokens.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }

			_, err = service.Resume(ctx)

			gomega.Expect(err).To(gomega.Equal(internal.ErrTokenExpired))
		})

		ginkgo.It("should report a missing session", func() {
			_, err := service.Resume(ctx)

			gomega.Expect(err).To(gomega.Equal(internal.ErrNoSession))
		})

		ginkgo.It("should reject a token signed with another secret", func() {
			forged := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Hour)
			token, err := forged.Issue(&Session{Username: "admin", Role: RoleAdministrator})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			store.token = token

			_, err = service.Resume(ctx)

			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a signed token without a validity window", func() {
			// Given
			claims := &Claims{
				Username:         "admin",
				Role:             RoleAdministrator,
				RegisteredClaims: jwt.RegisteredClaims{Subject: "admin"},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			store.token = token

			// When
			session, err := service.Resume(ctx)

			// Then
			gomega.Expect(session).To(gomega.BeNil())
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("should clear the stored session", func() {
			session, err := service.Login(ctx, LoginDTO{Username: "admin", Password: "correct_password1"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.Logout(ctx, session)).To(gomega.Succeed())

			gomega.Expect(store.token).To(gomega.BeEmpty())
			gomega.Expect(audit.actions).To(gomega.ContainElement("Logout:admin"))
		})

		ginkgo.It("should not fail without a session", func() {
			gomega.Expect(service.Logout(ctx, nil)).To(gomega.Succeed())
		})
	})
})

var _ = ginkgo.Describe("Gate", func() {
	var (
		ctx  context.Context
		gate *Gate
		now  time.Time
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		now = time.Now()
		gate = NewGate(NewPermissionChecker(), logger.Discard())
		gate.now = func() time.Time { return now }
	})

	ginkgo.It("should deny a nil session", func() {
		err := gate.Authorize(ctx, nil, CapViewInventory)

		gomega.Expect(err).To(gomega.Equal(internal.ErrNoSession))
	})

	ginkgo.It("should deny an expired session", func() {
		session := &Session{Username: "admin", Capabilities: AllCapabilities(), ExpiresAt: now.Add(-time.Second)}

		err := gate.Authorize(ctx, session, CapViewInventory)

		gomega.Expect(err).To(gomega.Equal(internal.ErrTokenExpired))
	})

	ginkgo.It("should deny a capability the role lacks", func() {
		session := &Session{Username: "viewer", Role: RoleViewer, Capabilities: DefaultMatrix()[RoleViewer]}

		err := gate.Authorize(ctx, session, CapDeleteEquipment)

		gomega.Expect(internal.IsType(err, internal.ErrorTypePermissionDenied)).To(gomega.BeTrue())
	})

	ginkgo.It("should only run a guarded handler when allowed", func() {
		ran := false
		handler := gate.Guard(CapApproveRenewal, func(context.Context, *Session) error {
			ran = true
			return nil
		})

		err := handler(ctx, &Session{Role: RoleManager, Capabilities: DefaultMatrix()[RoleManager]})
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(ran).To(gomega.BeFalse())

		err = handler(ctx, &Session{Role: RoleAdministrator, Capabilities: AllCapabilities()})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ran).To(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("FileSessionStore", func() {
	var store *FileSessionStore

	ginkgo.BeforeEach(func() {
		store = NewFileSessionStore(filepath.Join(ginkgo.GinkgoT().TempDir(), "state", "session"))
	})

	ginkgo.It("should round-trip a token and clear it", func() {
		gomega.Expect(store.Save("signed.token.value")).To(gomega.Succeed())

		token, err := store.Load()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(token).To(gomega.Equal("signed.token.value"))

		gomega.Expect(store.Clear()).To(gomega.Succeed())
		_, err = store.Load()
		gomega.Expect(err).To(gomega.Equal(internal.ErrNoSession))
	})

	ginkgo.It("should tolerate clearing twice", func() {
		gomega.Expect(store.Clear()).To(gomega.Succeed())
		gomega.Expect(store.Clear()).To(gomega.Succeed())
	})
})

var _ = ginkgo.Describe("Credentials", func() {
	ginkgo.It("should verify a hashed password", func() {
		hash, err := HashPassword("s3cretpass", bcrypt.MinCost)

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(VerifyPassword("s3cretpass", hash)).To(gomega.BeTrue())
		gomega.Expect(VerifyPassword("other", hash)).To(gomega.BeFalse())
	})

	ginkgo.It("should issue temporary passwords that end with day and month", func() {
		now := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)

		temp, err := TemporaryPassword(now)

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(temp).To(gomega.MatchRegexp(`^inv[0-9a-f]{8}0703$`))
	})
})
