package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/intranet-portal/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type envelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("OpenAPIValidator", func() {
	var handler http.Handler

	BeforeEach(func() {
		doc, err := middleware.LoadOpenAPI(context.Background(), "../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())

		validate, err := middleware.OpenAPIValidator(doc, slog.New(slog.NewTextHandler(io.Discard, nil)))
		Expect(err).NotTo(HaveOccurred())

		handler = validate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) envelope {
		var env envelope
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		return env
	}

	It("passes valid requests through", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/api/v1/rooms?page=2&pageSize=10", nil))
		Expect(w.Code).To(Equal(http.StatusTeapot))
	})

	It("rejects malformed query parameters as INVALID_PARAMS", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/api/v1/rooms?page=abc", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(w).Error.Code).To(Equal("INVALID_PARAMS"))
	})

	It("rejects page sizes above the maximum", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/api/v1/files?pageSize=500", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects mistyped JSON bodies as VALIDATION_ERROR", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", bytes.NewBufferString(`{"name":"Orion","capacity":"ten"}`))
		req.Header.Set("Content-Type", "application/json")
		w := serve(req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decode(w).Error.Code).To(Equal("VALIDATION_ERROR"))
	})

	It("leaves multipart uploads to the handler", func() {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		part, err := mw.CreateFormFile("file", "notes.txt")
		Expect(err).NotTo(HaveOccurred())
		_, _ = part.Write([]byte("hello"))
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		Expect(serve(req).Code).To(Equal(http.StatusTeapot))
	})

	It("ignores routes missing from the document", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
		Expect(w.Code).To(Equal(http.StatusTeapot))
	})
})
