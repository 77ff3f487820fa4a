package file_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"

	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/file"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

var _ = Describe("File Handler", func() {
	var router *chi.Mux

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler := file.NewHandler(&transport.BaseHandler{Logger: slogger}, newTestService(afero.NewMemMapFs()))

		caller := &auth.User{ID: 1, Username: "admin", Role: auth.RoleAdmin}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Post("/files", handler.UploadFile)
		router.Get("/files", handler.ListFiles)
		router.Get("/files/categories", handler.ListCategories)
		router.Get("/files/{id}/download", handler.DownloadFile)
	})

	multipartBody := func(field, name, contentType, content string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if field != "" {
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
			h.Set("Content-Type", contentType)
			part, err := mw.CreatePart(h)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte(content))
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(mw.WriteField("category", "Policies")).To(Succeed())
		Expect(mw.Close()).To(Succeed())
		return &buf, mw.FormDataContentType()
	}

	post := func(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/files", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		return env.Error.Code
	}

	It("uploads and downloads a file", func() {
		w := post(multipartBody("file", "Handbook.pdf", "application/pdf", "%PDF-1.7"))
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created file.File
		Expect(json.Unmarshal(w.Body.Bytes(), &created)).To(Succeed())
		Expect(*created.Category).To(Equal("Policies"))

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/files/%d/download", created.ID), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/pdf"))
		Expect(w.Header().Get("Content-Disposition")).To(Equal(`attachment; filename=Handbook.pdf`))
		Expect(w.Body.String()).To(Equal("%PDF-1.7"))
	})

	It("answers NO_FILE when the file field is missing", func() {
		w := post(multipartBody("", "", "", ""))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("NO_FILE"))
	})

	It("answers 415 for executables", func() {
		w := post(multipartBody("file", "run.exe", "application/octet-stream", "MZ"))
		Expect(w.Code).To(Equal(http.StatusUnsupportedMediaType))
		Expect(errorCode(w)).To(Equal("INVALID_FILE_TYPE"))
	})

	It("lists categories as a JSON array", func() {
		Expect(post(multipartBody("file", "a.pdf", "application/pdf", "x")).Code).To(Equal(http.StatusCreated))

		req := httptest.NewRequest(http.MethodGet, "/files/categories", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`["Policies"]`))
	})

	It("rejects a malformed uploadedBy filter", func() {
		req := httptest.NewRequest(http.MethodGet, "/files?uploadedBy=abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_PARAMS"))
	})
})
