package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		repo    *mockRepository
		handler *Handler
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		tokenGen := NewJWTTokenGenerator("test-secret-with-enough-length!!", "intranet-portal", 15*time.Minute)
		service := NewService(repo, tokenGen, Options{RefreshTokenTTL: 24 * time.Hour}, &recordingPublisher{}, lg)
		handler = NewHandler(service, true, lg)
	})

	refreshCookieOf := func(w *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range w.Result().Cookies() {
			if c.Name == RefreshTokenCookie {
				return c
			}
		}
		return nil
	}

	login := func() *httptest.ResponseRecorder {
		body, err := json.Marshal(LoginDTO{Username: "jdoe", Password: "correct_password"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.Login(w, req)
		return w
	}

	ginkgo.It("returns the access token in the body and the refresh token as a locked-down cookie", func() {
		w := login()
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))

		var resp TokenResponse
		gomega.Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.AccessToken).NotTo(gomega.BeEmpty())
		gomega.Expect(resp.TokenType).To(gomega.Equal("Bearer"))
		gomega.Expect(resp.User.Username).To(gomega.Equal("jdoe"))
		gomega.Expect(w.Body.String()).NotTo(gomega.ContainSubstring("refreshToken"))

		cookie := refreshCookieOf(w)
		gomega.Expect(cookie).NotTo(gomega.BeNil())
		gomega.Expect(cookie.Value).To(gomega.HaveLen(64))
		gomega.Expect(cookie.HttpOnly).To(gomega.BeTrue())
		gomega.Expect(cookie.Secure).To(gomega.BeTrue())
		gomega.Expect(cookie.SameSite).To(gomega.Equal(http.SameSiteStrictMode))
		gomega.Expect(cookie.Path).To(gomega.Equal("/api/v1/auth"))
		gomega.Expect(cookie.Expires).To(gomega.BeTemporally("~", time.Now().Add(24*time.Hour), time.Minute))
	})

	ginkgo.It("rotates the cookie on refresh", func() {
		first := refreshCookieOf(login())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(first)
		w := httptest.NewRecorder()
		handler.Refresh(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		next := refreshCookieOf(w)
		gomega.Expect(next).NotTo(gomega.BeNil())
		gomega.Expect(next.Value).NotTo(gomega.Equal(first.Value))
	})

	ginkgo.It("clears the cookie when refresh answers 401", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "not-a-known-token"})
		w := httptest.NewRecorder()
		handler.Refresh(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		cookie := refreshCookieOf(w)
		gomega.Expect(cookie).NotTo(gomega.BeNil())
		gomega.Expect(cookie.Value).To(gomega.BeEmpty())
		gomega.Expect(cookie.MaxAge).To(gomega.BeNumerically("<", 0))
		gomega.Expect(cookie.Path).To(gomega.Equal("/api/v1/auth"))
	})

	ginkgo.It("answers 401 without a refresh cookie", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		w := httptest.NewRecorder()
		handler.Refresh(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("logs out with 200, revokes the token and clears the cookie", func() {
		issued := refreshCookieOf(login())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.AddCookie(issued)
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		var body map[string]string
		gomega.Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body).To(gomega.HaveKeyWithValue("message", "Logged out"))

		cookie := refreshCookieOf(w)
		gomega.Expect(cookie).NotTo(gomega.BeNil())
		gomega.Expect(cookie.MaxAge).To(gomega.BeNumerically("<", 0))
		gomega.Expect(repo.tokens[issued.Value].RevokedAt).NotTo(gomega.BeNil())
	})

	ginkgo.It("logs out with 200 even without a cookie", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("rejects requests to protected routes without a bearer token", func() {
		reached := false
		protected := handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}))

		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(reached).To(gomega.BeFalse())
	})

	ginkgo.It("serves the current user behind the middleware", func() {
		var resp TokenResponse
		gomega.Expect(json.Unmarshal(login().Body.Bytes(), &resp)).To(gomega.Succeed())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		w := httptest.NewRecorder()
		handler.AuthMiddleware(http.HandlerFunc(handler.Me)).ServeHTTP(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		var u User
		gomega.Expect(json.Unmarshal(w.Body.Bytes(), &u)).To(gomega.Succeed())
		gomega.Expect(u.ID).To(gomega.Equal(int64(1)))
	})
})
