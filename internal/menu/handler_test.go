package menu_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/intranet-portal/internal/auth"
	articleDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/article"
	menuDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/menu"
	"github.com/frahmantamala/intranet-portal/internal/menu"
	menuPostgres "github.com/frahmantamala/intranet-portal/internal/menu/postgres"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Menu Handler Integration", func() {
	var (
		router *chi.Mux
		caller *auth.User
		admin  *auth.User
		member *auth.User
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&articleDatamodel.ContentArticle{}, &menuDatamodel.MenuItem{})).To(Succeed())
		Expect(db.Create(&articleDatamodel.ContentArticle{ID: 10, Title: "Handbook", Content: "x", AuthorID: 1}).Error).To(Succeed())

		service := menu.NewService(menuPostgres.NewMenuRepository(db), auth.NewPolicy(), slogger)
		handler := menu.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		admin = &auth.User{ID: 1, Role: auth.RoleAdmin}
		member = &auth.User{ID: 2, Role: auth.RoleUser}
		caller = admin

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Get("/menus", handler.GetMenuTree)
		router.Post("/menus", handler.CreateMenu)
		router.Put("/menus/reorder", handler.ReorderMenus)
		router.Put("/menus/{id}", handler.UpdateMenu)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	create := func(body string) int64 {
		w := do(http.MethodPost, "/menus", body)
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
		var m menu.MenuItem
		Expect(json.Unmarshal(w.Body.Bytes(), &m)).To(Succeed())
		return m.ID
	}

	tree := func(path string) []*menu.MenuItem {
		w := do(http.MethodGet, path, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var items []*menu.MenuItem
		Expect(json.Unmarshal(w.Body.Bytes(), &items)).To(Succeed())
		return items
	}

	type errorBody struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Errors []struct {
					Field string `json:"field"`
				} `json:"errors"`
			} `json:"details"`
		} `json:"error"`
	}

	BeforeEach(func() {
		create(`{"name":"Home","linkType":"Article","articleId":10,"displayOrder":0}`)
		create(`{"name":"Drafts","linkType":"ExternalUrl","externalUrl":"https://example.com/drafts","displayOrder":1,"isVisible":false}`)
	})

	It("shows hidden items only to admins asking for them", func() {
		Expect(tree("/menus")).To(HaveLen(1))
		Expect(tree("/menus?includeHidden=true")).To(HaveLen(2))

		caller = member
		Expect(tree("/menus?includeHidden=true")).To(HaveLen(1))
	})

	It("treats any includeHidden value other than true as false", func() {
		Expect(tree("/menus?includeHidden=1")).To(HaveLen(1))
	})

	It("applies a reorder body and reports the number of updated rows", func() {
		w := do(http.MethodPut, "/menus/reorder", `[{"id":1,"displayOrder":5},{"id":2,"displayOrder":0},{"id":99,"displayOrder":1}]`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp menu.ReorderResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Updated).To(Equal(int64(2)))

		items := tree("/menus?includeHidden=true")
		Expect(items[0].Name).To(Equal("Drafts"))
		Expect(items[1].Name).To(Equal("Home"))
	})

	DescribeTable("refuses malformed reorder bodies",
		func(body string) {
			w := do(http.MethodPut, "/menus/reorder", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		},
		Entry("empty list", `[]`),
		Entry("object instead of list", `{"id":1,"displayOrder":2}`),
		Entry("unknown field", `[{"id":1,"order":2}]`),
	)

	It("answers 422 with the field for a forbidden link target", func() {
		w := do(http.MethodPost, "/menus", `{"name":"Mixed","linkType":"Article","articleId":10,"externalUrl":"https://example.com"}`)
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))

		var body errorBody
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Error.Code).To(Equal("VALIDATION_ERROR"))
		Expect(body.Error.Details.Errors).To(HaveLen(1))
		Expect(body.Error.Details.Errors[0].Field).To(Equal("externalUrl"))
	})

	It("switches the link type in one update and drops the old target", func() {
		w := do(http.MethodPut, "/menus/1", `{"linkType":"ExternalUrl","externalUrl":"https://example.com/home"}`)
		Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
		var m menu.MenuItem
		Expect(json.Unmarshal(w.Body.Bytes(), &m)).To(Succeed())
		Expect(m.LinkType).To(Equal(menu.LinkTypeExternalURL))
		Expect(m.ArticleID).To(BeNil())
	})

	It("keeps members away from mutations", func() {
		caller = member
		w := do(http.MethodPut, "/menus/reorder", `[{"id":1,"displayOrder":5}]`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})
})
