package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	authDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/auth"
	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/intranet-portal/internal/core/events"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock repository for testing
type mockRepository struct {
	mu            sync.Mutex
	users         map[int64]*userDatamodel.User
	tokens        map[string]*authDatamodel.RefreshToken
	nextTokenID   int64
	errorToReturn error
}

func newMockRepository() *mockRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	return &mockRepository{
		users: map[int64]*userDatamodel.User{
			1: {ID: 1, Username: "jdoe", DisplayName: "Jane Doe", Email: "jdoe@example.com", PasswordHash: string(hash), Role: RoleUser, IsActive: true},
			2: {ID: 2, Username: "admin", DisplayName: "Admin", Email: "admin@example.com", PasswordHash: string(hash), Role: RoleAdmin, IsActive: true},
			3: {ID: 3, Username: "gone", DisplayName: "Gone", Email: "gone@example.com", PasswordHash: string(hash), Role: RoleUser, IsActive: false},
		},
		tokens: map[string]*authDatamodel.RefreshToken{},
	}
}

func (m *mockRepository) GetUserByUsername(_ context.Context, username string) (*userDatamodel.User, error) {
	if m.errorToReturn != nil {
		return nil, m.errorToReturn
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id int64) (*userDatamodel.User, error) {
	if m.errorToReturn != nil {
		return nil, m.errorToReturn
	}
	return m.users[id], nil
}

func (m *mockRepository) TouchLastLogin(_ context.Context, userID int64, at time.Time) error {
	if u, ok := m.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *mockRepository) IssueRefreshToken(_ context.Context, token *authDatamodel.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == token.UserID && t.RevokedAt == nil {
			at := token.CreatedAt
			t.RevokedAt = &at
		}
	}
	m.nextTokenID++
	token.ID = m.nextTokenID
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRepository) GetRefreshToken(_ context.Context, token string) (*authDatamodel.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepository) RotateRefreshToken(_ context.Context, oldToken string, next *authDatamodel.RefreshToken, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tokens[oldToken]
	if !ok || old.RevokedAt != nil {
		return ErrTokenNotActive
	}
	old.RevokedAt = &at
	replacement := next.Token
	old.ReplacedByToken = &replacement
	m.nextTokenID++
	next.ID = m.nextTokenID
	m.tokens[next.Token] = next
	return nil
}

func (m *mockRepository) RevokeRefreshToken(_ context.Context, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[token]; ok && t.RevokedAt == nil {
		t.RevokedAt = &at
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("bus closed")
}

var _ = ginkgo.Describe("Auth Service", func() {
	var (
		repo      *mockRepository
		publisher *recordingPublisher
		tokenGen  *JWTTokenGenerator
		service   *Service
		ctx       context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		publisher = &recordingPublisher{}
		tokenGen = NewJWTTokenGenerator("test-secret-with-enough-length!!", "intranet-portal", 15*time.Minute)
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = NewService(repo, tokenGen, Options{RefreshTokenTTL: 24 * time.Hour}, publisher, lg)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("issues an access token and a refresh token for valid credentials", func() {
			session, err := service.Login(ctx, LoginDTO{Username: "jdoe", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(session.AccessToken).NotTo(gomega.BeEmpty())
			gomega.Expect(session.RefreshToken).To(gomega.HaveLen(64))
			gomega.Expect(session.User.Username).To(gomega.Equal("jdoe"))
			gomega.Expect(repo.users[1].LastLoginAt).NotTo(gomega.BeNil())

			claims, err := tokenGen.ValidateToken(session.AccessToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(int64(1)))
			gomega.Expect(claims.Role).To(gomega.Equal(RoleUser))
		})

		ginkgo.DescribeTable("returns the same error for every rejected login",
			func(username, password string) {
				_, err := service.Login(ctx, LoginDTO{Username: username, Password: password})
				gomega.Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(gomega.BeTrue())
			},
			ginkgo.Entry("wrong password", "jdoe", "wrong_password"),
			ginkgo.Entry("unknown user", "nobody", "correct_password"),
			ginkgo.Entry("inactive user", "gone", "correct_password"),
		)

		ginkgo.It("rejects an empty username with a validation error", func() {
			_, err := service.Login(ctx, LoginDTO{Password: "x"})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})

		ginkgo.It("revokes earlier refresh tokens of the same user", func() {
			first, err := service.Login(ctx, LoginDTO{Username: "jdoe", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = service.Login(ctx, LoginDTO{Username: "jdoe", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(repo.tokens[first.RefreshToken].RevokedAt).NotTo(gomega.BeNil())
		})

		ginkgo.It("wraps repository failures as internal errors", func() {
			repo.errorToReturn = errors.New("connection refused")
			_, err := service.Login(ctx, LoginDTO{Username: "jdoe", Password: "correct_password"})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(500))
		})
	})

	ginkgo.Describe("Refresh", func() {
		var session *Session

		ginkgo.BeforeEach(func() {
			var err error
			session, err = service.Login(ctx, LoginDTO{Username: "jdoe", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("rotates the refresh token", func() {
			next, err := service.Refresh(ctx, session.RefreshToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(next.RefreshToken).NotTo(gomega.Equal(session.RefreshToken))

			old := repo.tokens[session.RefreshToken]
			gomega.Expect(old.RevokedAt).NotTo(gomega.BeNil())
			gomega.Expect(*old.ReplacedByToken).To(gomega.Equal(next.RefreshToken))
		})

		ginkgo.It("rejects a rotated token and reports the reuse", func() {
			_, err := service.Refresh(ctx, session.RefreshToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Refresh(ctx, session.RefreshToken)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
			gomega.Expect(publisher.events).To(gomega.HaveLen(1))
			gomega.Expect(publisher.events[0].EventType()).To(gomega.Equal(events.EventTypeRefreshTokenReused))
		})

		ginkgo.It("still rejects a reused token when the reuse event cannot be published", func() {
			var logs bytes.Buffer
			service.logger = slog.New(slog.NewTextHandler(&logs, nil))
			service.publisher = failingPublisher{}

			_, err := service.Refresh(ctx, session.RefreshToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = service.Refresh(ctx, session.RefreshToken)

			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
			gomega.Expect(logs.String()).To(gomega.ContainSubstring("failed to publish refresh token reuse event"))
		})

		ginkgo.It("rejects an expired token", func() {
			service.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
			_, err := service.Refresh(ctx, session.RefreshToken)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects tokens of a deactivated user", func() {
			repo.users[1].IsActive = false
			_, err := service.Refresh(ctx, session.RefreshToken)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects unknown and empty tokens", func() {
			_, err := service.Refresh(ctx, "does-not-exist")
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
			_, err = service.Refresh(ctx, "")
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("revokes the token and is idempotent", func() {
			session, err := service.Login(ctx, LoginDTO{Username: "jdoe", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(service.Logout(ctx, session.RefreshToken)).To(gomega.Succeed())
			gomega.Expect(service.Logout(ctx, session.RefreshToken)).To(gomega.Succeed())
			gomega.Expect(service.Logout(ctx, "")).To(gomega.Succeed())

			_, err = service.Refresh(ctx, session.RefreshToken)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("resolves a valid access token to the user", func() {
			session, err := service.Login(ctx, LoginDTO{Username: "admin", Password: "correct_password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			u, err := service.Authenticate(ctx, session.AccessToken)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(u.IsAdmin()).To(gomega.BeTrue())
		})

		ginkgo.It("rejects a token signed with another secret", func() {
			other := NewJWTTokenGenerator("another-secret-another-secret!!!", "intranet-portal", time.Minute)
			token, _, err := other.GenerateAccessToken(&User{ID: 1, Role: RoleUser})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Authenticate(ctx, token)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects an expired token", func() {
			tokenGen.now = func() time.Time { return time.Now().Add(-time.Hour) }
			token, _, err := tokenGen.GenerateAccessToken(&User{ID: 1, Role: RoleUser})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			tokenGen.now = time.Now

			_, err = service.Authenticate(ctx, token)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Policy", func() {
		policy := NewPolicy()

		ginkgo.It("lets owners and admins mutate", func() {
			gomega.Expect(policy.CanMutate(&User{ID: 1, Role: RoleUser}, 1)).To(gomega.Succeed())
			gomega.Expect(policy.CanMutate(&User{ID: 2, Role: RoleAdmin}, 1)).To(gomega.Succeed())
		})

		ginkgo.It("forbids other users", func() {
			err := policy.CanMutate(&User{ID: 3, Role: RoleUser}, 1)
			gomega.Expect(errors.Is(err, internal.ErrForbidden)).To(gomega.BeTrue())
		})

		ginkgo.It("requires a caller", func() {
			gomega.Expect(errors.Is(policy.RequireAdmin(nil), internal.ErrUnauthorized)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("HashPassword", func() {
		ginkgo.It("never hashes below the minimum cost", func() {
			hash, err := HashPassword("s3cret-pass", 4)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			cost, err := bcrypt.Cost([]byte(hash))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cost).To(gomega.Equal(DefaultBCryptCost))
			gomega.Expect(VerifyPassword(hash, "s3cret-pass")).To(gomega.Succeed())
		})
	})
})
