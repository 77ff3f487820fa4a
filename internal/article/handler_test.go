package article_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/intranet-portal/internal/article"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Article Handler", func() {
	var (
		repo   *MockRepository
		router *chi.Mux
		caller *auth.User
		admin  *auth.User
		author *auth.User
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		repo = NewMockRepository()
		service := article.NewService(repo, auth.NewPolicy(), nil, slogger)
		handler := article.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		admin = &auth.User{ID: 1, Role: auth.RoleAdmin}
		author = &auth.User{ID: 2, Role: auth.RoleUser}
		caller = author

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Post("/articles", handler.CreateArticle)
		router.Get("/articles/{id}", handler.GetArticle)
		router.Post("/articles/{id}/submit", handler.SubmitArticle)
		router.Post("/articles/{id}/approve", handler.ApproveArticle)
		router.Post("/articles/{id}/reject", handler.RejectArticle)
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

	decode := func(w *httptest.ResponseRecorder) *article.Article {
		var a article.Article
		Expect(json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&a)).To(Succeed())
		return &a
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	submitted := func() int64 {
		w := do(http.MethodPost, "/articles", `{"title":"Policy update","content":"Read me"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		id := decode(w).ID

		w = do(http.MethodPost, "/articles/"+itoa(id)+"/submit", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w).PublicationStatus).To(Equal(article.StatusPendingApproval))
		return id
	}

	It("approves with an empty body and publishes from now", func() {
		id := submitted()
		caller = admin

		w := do(http.MethodPost, "/articles/"+itoa(id)+"/approve", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		a := decode(w)
		Expect(a.PublicationStatus).To(Equal(article.StatusPublished))
		Expect(*a.AvailableFrom).To(BeTemporally("~", time.Now(), 5*time.Second))
		Expect(a.AvailableUntil).To(BeNil())
	})

	It("reads the availability window from the approve body", func() {
		id := submitted()
		caller = admin

		w := do(http.MethodPost, "/articles/"+itoa(id)+"/approve",
			`{"availableFrom":"2031-01-01T08:00:00Z","availableUntil":"2031-02-01T08:00:00Z"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		a := decode(w)
		Expect(*a.AvailableFrom).To(BeTemporally("==", time.Date(2031, 1, 1, 8, 0, 0, 0, time.UTC)))
		Expect(*a.AvailableUntil).To(BeTemporally("==", time.Date(2031, 2, 1, 8, 0, 0, 0, time.UTC)))
	})

	It("serves a scheduled article to its author only", func() {
		id := submitted()
		caller = admin
		Expect(do(http.MethodPost, "/articles/"+itoa(id)+"/approve", `{"availableFrom":"2031-01-01T08:00:00Z"}`).Code).To(Equal(http.StatusOK))

		caller = &auth.User{ID: 3, Role: auth.RoleUser}
		Expect(do(http.MethodGet, "/articles/"+itoa(id), "").Code).To(Equal(http.StatusNotFound))

		caller = author
		Expect(do(http.MethodGet, "/articles/"+itoa(id), "").Code).To(Equal(http.StatusOK))
	})

	It("rejects an approve body with unknown fields", func() {
		id := submitted()
		caller = admin

		w := do(http.MethodPost, "/articles/"+itoa(id)+"/approve", `{"publishAt":"2031-01-01T08:00:00Z"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("VALIDATION_ERROR"))
		Expect(storedStatus(repo, id)).To(Equal(article.StatusPendingApproval))
	})

	It("refuses an inverted window", func() {
		id := submitted()
		caller = admin

		w := do(http.MethodPost, "/articles/"+itoa(id)+"/approve",
			`{"availableFrom":"2031-02-01T08:00:00Z","availableUntil":"2031-01-01T08:00:00Z"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_DATE_RANGE"))
		Expect(storedStatus(repo, id)).To(Equal(article.StatusPendingApproval))
	})

	It("records the rejection reason", func() {
		id := submitted()
		caller = admin

		w := do(http.MethodPost, "/articles/"+itoa(id)+"/reject", `{"reason":"Needs a source"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		a := decode(w)
		Expect(a.PublicationStatus).To(Equal(article.StatusRejected))
		Expect(*a.RejectionReason).To(Equal("Needs a source"))
	})

	It("forbids non-admins from approving", func() {
		id := submitted()

		w := do(http.MethodPost, "/articles/"+itoa(id)+"/approve", "")
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(storedStatus(repo, id)).To(Equal(article.StatusPendingApproval))
	})

	It("answers 400 for a submit on a non-draft article", func() {
		id := submitted()

		w := do(http.MethodPost, "/articles/"+itoa(id)+"/submit", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_STATE_TRANSITION"))
	})

	It("rejects a malformed id", func() {
		w := do(http.MethodPost, "/articles/abc/submit", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_PARAMS"))
	})
})

func storedStatus(repo *MockRepository, id int64) article.Status {
	return article.Status(repo.rows[id].PublicationStatus)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
