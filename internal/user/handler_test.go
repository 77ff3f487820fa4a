package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/frahmantamala/intranet-portal/internal/user"
	userPostgres "github.com/frahmantamala/intranet-portal/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("User Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
		caller *auth.User
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		repo := userPostgres.NewRepository(db)
		service := user.NewService(repo, auth.NewPolicy(), auth.DefaultBCryptCost, slogger)
		handler := user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		for _, u := range []*userDatamodel.User{
			{Username: "admin", DisplayName: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: user.RoleAdmin, ThemePreference: user.ThemeLight, IsActive: true},
			{Username: "jane", DisplayName: "Jane", Email: "jane@example.com", PasswordHash: "x", Role: user.RoleUser, ThemePreference: user.ThemeLight, IsActive: true},
		} {
			Expect(repo.Create(context.Background(), u)).To(Succeed())
		}

		caller = &auth.User{ID: 1, Role: auth.RoleAdmin}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Get("/users", handler.ListUsers)
		router.Post("/users", handler.CreateUser)
		router.Get("/users/{id}", handler.GetUser)
		router.Delete("/users/{id}", handler.DeleteUser)
		router.Put("/users/me/preferences", handler.UpdatePreferences)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("lists active users ordered by username with pagination metadata", func() {
		w := do(http.MethodGet, "/users?page=1&pageSize=10", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var page struct {
			Data       []user.User `json:"data"`
			Pagination struct {
				TotalItems int64 `json:"totalItems"`
				TotalPages int   `json:"totalPages"`
			} `json:"pagination"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(page.Data).To(HaveLen(2))
		Expect(page.Data[0].Username).To(Equal("admin"))
		Expect(page.Pagination.TotalItems).To(Equal(int64(2)))
		Expect(page.Pagination.TotalPages).To(Equal(1))
	})

	It("rejects an out of range page size", func() {
		w := do(http.MethodGet, "/users?pageSize=101", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var envelope map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&envelope)).To(Succeed())
		Expect(envelope["error"]["code"]).To(Equal(string(internal.ErrCodeInvalidParams)))
	})

	It("creates a user and returns 201", func() {
		w := do(http.MethodPost, "/users", user.CreateUserDTO{
			Username: "omar", Password: "password123", DisplayName: "Omar", Email: "omar@example.com",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
	})

	It("returns 409 for a duplicate username", func() {
		w := do(http.MethodPost, "/users", user.CreateUserDTO{
			Username: "jane", Password: "password123", DisplayName: "Jane 2", Email: "jane2@example.com",
		})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("forbids non-admins from reading other profiles", func() {
		caller = &auth.User{ID: 2, Role: auth.RoleUser}
		Expect(do(http.MethodGet, "/users/1", nil).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodGet, "/users/2", nil).Code).To(Equal(http.StatusOK))
	})

	It("soft deletes and hides the user from the active list", func() {
		Expect(do(http.MethodDelete, "/users/2", nil).Code).To(Equal(http.StatusNoContent))

		var row userDatamodel.User
		Expect(db.First(&row, 2).Error).To(Succeed())
		Expect(row.IsActive).To(BeFalse())

		w := do(http.MethodGet, "/users?activeOnly=false", nil)
		Expect(w.Body.String()).To(ContainSubstring(`"username":"jane"`))
	})

	It("updates the caller's preferences", func() {
		caller = &auth.User{ID: 2, Role: auth.RoleUser}
		w := do(http.MethodPut, "/users/me/preferences", map[string]interface{}{"themePreference": "Dark"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"themePreference":"Dark"`))
	})
})
