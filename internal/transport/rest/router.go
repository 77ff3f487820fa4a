package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/intranet-portal/internal/article"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/file"
	"github.com/frahmantamala/intranet-portal/internal/menu"
	"github.com/frahmantamala/intranet-portal/internal/reservation"
	"github.com/frahmantamala/intranet-portal/internal/room"
	"github.com/frahmantamala/intranet-portal/internal/transport/middleware"
	"github.com/frahmantamala/intranet-portal/internal/transport/swagger"
	"github.com/frahmantamala/intranet-portal/internal/user"
	"github.com/go-chi/chi"
)

// Handlers groups everything the router mounts. Nil domain handlers are
// skipped so tests can mount a subset.
type Handlers struct {
	Health      *HealthHandler
	Auth        *auth.Handler
	RBAC        *auth.RBACAuthorization
	User        *user.Handler
	Room        *room.Handler
	Reservation *reservation.Handler
	Article     *article.Handler
	Menu        *menu.Handler
	File        *file.Handler
}

type Options struct {
	AllowedOrigins []string
	OpenAPIPath    string
	// RequestValidator is applied to /api/v1 when set.
	RequestValidator func(http.Handler) http.Handler
	Metrics          *middleware.Metrics
	MetricsPath      string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, opts.Metrics.Handler())
	}

	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(vr chi.Router) {
			if opts.RequestValidator != nil {
				vr.Use(opts.RequestValidator)
			}

			vr.Route("/auth", func(ar chi.Router) {
				ar.Post("/login", h.Auth.Login)
				ar.Post("/refresh", h.Auth.Refresh)
				ar.Post("/logout", h.Auth.Logout)
				ar.With(h.Auth.AuthMiddleware).Get("/me", h.Auth.Me)
			})

			vr.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)
				admin := h.RBAC.RequireAdmin()

				if h.User != nil {
					pr.Route("/users", func(ur chi.Router) {
						ur.With(admin).Get("/", h.User.ListUsers)
						ur.With(admin).Post("/", h.User.CreateUser)
						ur.Put("/me/preferences", h.User.UpdatePreferences)
						ur.Get("/{id}", h.User.GetUser)
						ur.Put("/{id}", h.User.UpdateUser)
						ur.With(admin).Delete("/{id}", h.User.DeleteUser)
						ur.Post("/{id}/reset-password", h.User.ResetPassword)
					})
				}

				if h.Room != nil {
					pr.Route("/rooms", func(rr chi.Router) {
						rr.Get("/", h.Room.ListRooms)
						rr.Get("/{id}", h.Room.GetRoom)
						if h.Reservation != nil {
							rr.Get("/{id}/schedule", h.Reservation.RoomSchedule)
						}
						rr.Group(func(ar chi.Router) {
							ar.Use(admin)
							ar.Post("/", h.Room.CreateRoom)
							ar.Put("/{id}", h.Room.UpdateRoom)
							ar.Delete("/{id}", h.Room.DeleteRoom)
						})
					})
				}

				if h.Reservation != nil {
					pr.Route("/reservations", func(rr chi.Router) {
						rr.Get("/", h.Reservation.ListReservations)
						rr.Post("/", h.Reservation.CreateReservation)
						rr.Post("/check-availability", h.Reservation.CheckAvailability)
						rr.Get("/{id}", h.Reservation.GetReservation)
						rr.Put("/{id}", h.Reservation.UpdateReservation)
						rr.Delete("/{id}", h.Reservation.CancelReservation)
					})
				}

				if h.Article != nil {
					pr.Route("/articles", func(ar chi.Router) {
						ar.Get("/", h.Article.ListArticles)
						ar.Post("/", h.Article.CreateArticle)
						ar.Get("/published", h.Article.ListPublished)
						ar.Get("/{id}", h.Article.GetArticle)
						ar.Put("/{id}", h.Article.UpdateArticle)
						ar.Delete("/{id}", h.Article.DeleteArticle)
						ar.Post("/{id}/submit", h.Article.SubmitArticle)
						ar.With(admin).Post("/{id}/approve", h.Article.ApproveArticle)
						ar.With(admin).Post("/{id}/reject", h.Article.RejectArticle)
					})
				}

				if h.Menu != nil {
					pr.Route("/menus", func(mr chi.Router) {
						mr.Get("/", h.Menu.GetMenuTree)
						mr.Get("/{id}", h.Menu.GetMenu)
						mr.Group(func(ar chi.Router) {
							ar.Use(admin)
							ar.Post("/", h.Menu.CreateMenu)
							ar.Put("/reorder", h.Menu.ReorderMenus)
							ar.Put("/{id}", h.Menu.UpdateMenu)
							ar.Delete("/{id}", h.Menu.DeleteMenu)
						})
					})
				}

				if h.File != nil {
					pr.Route("/files", func(fr chi.Router) {
						fr.Get("/", h.File.ListFiles)
						fr.Get("/categories", h.File.ListCategories)
						fr.Get("/{id}", h.File.GetFile)
						fr.Get("/{id}/download", h.File.DownloadFile)
						fr.Group(func(ar chi.Router) {
							ar.Use(admin)
							ar.Post("/", h.File.UploadFile)
							ar.Put("/{id}", h.File.UpdateFile)
							ar.Delete("/{id}", h.File.DeleteFile)
						})
					})
				}
			})
		})
	})
}
